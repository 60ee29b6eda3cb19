package core

// Row maps a column name (as returned by the engine) to its value.
type Row map[string]any

// ResultSet is an ordered sequence of rows. Columns preserves the engine's
// projection order, which maps cannot.
type ResultSet struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Len returns the number of rows.
func (r ResultSet) Len() int {
	return len(r.Rows)
}

// Empty reports whether the result set has no rows.
func (r ResultSet) Empty() bool {
	return len(r.Rows) == 0
}

// Outcome discriminates why a result set looks the way it does.
type Outcome string

// Execution outcomes.
const (
	OutcomeRows  Outcome = "rows"
	OutcomeEmpty Outcome = "empty"
	OutcomeError Outcome = "error"
)

// Result is what the executor hands to the response stage.
type Result struct {
	ResultSet
	Outcome Outcome `json:"outcome"`
	// Err holds the execution failure when Outcome is OutcomeError.
	Err error `json:"-"`
}
