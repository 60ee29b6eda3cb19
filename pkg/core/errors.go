package core

import (
	"errors"
	"fmt"
)

// Pipeline error taxonomy.
var (
	// ErrMetadataUnavailable is returned when metadata retrieval yields nothing.
	ErrMetadataUnavailable = errors.New("cannot retrieve database metadata")

	// ErrAnalysisMalformed is returned when the analysis text has no usable section.
	ErrAnalysisMalformed = errors.New("analysis contained no recognizable sections")

	// ErrSynthesisInvalid is returned when components cannot produce a query.
	ErrSynthesisInvalid = errors.New("invalid query components")
)

// ExecutionError wraps a failure reported by the relational engine.
type ExecutionError struct {
	SQL   string
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("failed to execute %q: %v", e.SQL, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}
