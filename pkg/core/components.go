package core

// Aggregation is a named reduction function applied to a projected column.
// The zero value means the column is not aggregated.
type Aggregation string

// Common aggregation functions. Any other uppercased name reported by the
// model is carried through as-is.
const (
	AggNone  Aggregation = ""
	AggSum   Aggregation = "SUM"
	AggCount Aggregation = "COUNT"
	AggAvg   Aggregation = "AVG"
	AggMin   Aggregation = "MIN"
	AggMax   Aggregation = "MAX"
)

// Column is a projected column with an optional aggregation.
type Column struct {
	Aggregation Aggregation `json:"aggregation,omitempty"`
	Name        string      `json:"name"`
}

// IsAggregated reports whether the column carries an aggregation.
func (c Column) IsAggregated() bool {
	return c.Aggregation != AggNone
}

// String renders the column as AGG(name) or name.
func (c Column) String() string {
	if c.IsAggregated() {
		return string(c.Aggregation) + "(" + c.Name + ")"
	}
	return c.Name
}

// QueryComponents is the normalized intermediate structure bridging the
// free-text analysis and SQL synthesis.
type QueryComponents struct {
	// Tables is ordered; the first table is the FROM target.
	Tables  []string `json:"tables"`
	Columns []Column `json:"columns"`
	// Filters are ANDed predicate expressions.
	Filters []string `json:"filters"`
	Joins   []string `json:"joins"`
	GroupBy []string `json:"group_by"`
}

// IsEmpty reports whether no section produced any content.
func (q QueryComponents) IsEmpty() bool {
	return len(q.Tables) == 0 && len(q.Columns) == 0 && len(q.Filters) == 0 &&
		len(q.Joins) == 0 && len(q.GroupBy) == 0
}

// HasColumn reports whether an identical (aggregation, name) pair exists.
func (q QueryComponents) HasColumn(c Column) bool {
	for _, existing := range q.Columns {
		if existing == c {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so later stages never mutate earlier output.
func (q QueryComponents) Clone() QueryComponents {
	return QueryComponents{
		Tables:  append([]string(nil), q.Tables...),
		Columns: append([]Column(nil), q.Columns...),
		Filters: append([]string(nil), q.Filters...),
		Joins:   append([]string(nil), q.Joins...),
		GroupBy: append([]string(nil), q.GroupBy...),
	}
}
