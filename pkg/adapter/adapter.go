// Package adapter provides database adapter interfaces and implementations
// for executing synthesized queries.
//
// This package contains the public contract that all database adapters must implement.
// Concrete adapter implementations are in pkg/adapters/ subdirectories.
//
// Core types (AdapterConfig, Rows) are defined in pkg/core and re-exported
// here via type aliases.
package adapter

import (
	"github.com/leapstack-labs/askql/pkg/core"
)

type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Rows is an alias for core.Rows.
	Rows = core.Rows

	// Adapter is an alias for core.Adapter. It provides methods for
	// connecting to databases and executing SQL.
	Adapter = core.Adapter
)
