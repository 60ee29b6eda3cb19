// Package config provides shared configuration helpers for askql.
// This package is decoupled from CLI concerns and can be used by the HTTP
// server and other tools that need to resolve a database target.
package config

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/askql/pkg/adapter"
	"github.com/leapstack-labs/askql/pkg/core"
)

// defaultSchemas maps a target type to the schema it uses when none is set.
var defaultSchemas = map[string]string{
	"duckdb":   "main",
	"postgres": "public",
	"sqlite":   "main",
}

// DefaultSchemaForType returns the default schema for a database type.
// Unknown types fall back to "main".
func DefaultSchemaForType(dbType string) string {
	name, _ := adapter.Resolve(dbType)
	if s, ok := defaultSchemas[name]; ok {
		return s
	}
	return "main"
}

// ValidateTarget checks if the target configuration is valid.
// It uses the adapter registry to determine which adapter types are available.
func ValidateTarget(t *core.TargetConfig) error {
	if t == nil {
		return fmt.Errorf("target is required")
	}
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}

	// Use adapter registry as single source of truth
	if !adapter.IsRegistered(t.Type) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}

	if _, err := QueryTimeout(t); err != nil {
		return err
	}
	return nil
}

// QueryTimeout parses the target's per-attempt query timeout.
// An empty value returns zero, meaning the executor default.
func QueryTimeout(t *core.TargetConfig) (time.Duration, error) {
	if t == nil || t.QueryTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(t.QueryTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid target query_timeout %q: %w", t.QueryTimeout, err)
	}
	return d, nil
}

// MergeTargetConfig merges two target configs, with override taking precedence.
func MergeTargetConfig(base, override *core.TargetConfig) *core.TargetConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := &core.TargetConfig{
		Type:         base.Type,
		Database:     base.Database,
		Host:         base.Host,
		Port:         base.Port,
		User:         base.User,
		Password:     base.Password,
		Schema:       base.Schema,
		QueryTimeout: base.QueryTimeout,
		Options:      make(map[string]string),
		Params:       make(map[string]any),
	}

	for k, v := range base.Options {
		merged.Options[k] = v
	}
	for k, v := range base.Params {
		merged.Params[k] = v
	}

	if override.Type != "" {
		merged.Type = override.Type
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.User != "" {
		merged.User = override.User
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if override.Schema != "" {
		merged.Schema = override.Schema
	}
	if override.QueryTimeout != "" {
		merged.QueryTimeout = override.QueryTimeout
	}

	for k, v := range override.Options {
		merged.Options[k] = v
	}
	// Params override wholesale per key
	for k, v := range override.Params {
		merged.Params[k] = v
	}

	return merged
}
