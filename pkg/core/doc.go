// Package core defines the shared language of the askql system.
//
// This package contains:
//   - Domain entities (Triple, QueryComponents, ResultSet, Result)
//   - Service interfaces (Adapter)
//   - Configuration types (TargetConfig)
//   - Pipeline error taxonomy
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
