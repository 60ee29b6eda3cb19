package synth

import (
	"strings"

	"github.com/leapstack-labs/askql/pkg/core"
)

// DefaultSchema is used when no schema is configured.
const DefaultSchema = "SFLIGHT"

// Normalizer repairs structural gaps in parsed components.
type Normalizer struct {
	// Schema prefixes bare table names.
	Schema string
	// Matcher decides whether a GROUP BY name is already projected.
	Matcher GroupMatcher
}

// NewNormalizer creates a normalizer. A nil matcher selects SubstringMatcher.
func NewNormalizer(schema string, matcher GroupMatcher) *Normalizer {
	if schema == "" {
		schema = DefaultSchema
	}
	if matcher == nil {
		matcher = SubstringMatcher
	}
	return &Normalizer{Schema: schema, Matcher: matcher}
}

// Normalize returns a repaired copy of q. Filters and joins pass through
// verbatim.
func (n *Normalizer) Normalize(q core.QueryComponents) core.QueryComponents {
	out := q.Clone()

	for i, t := range out.Tables {
		out.Tables[i] = QualifyTable(t, n.Schema)
	}

	matcher := n.Matcher
	if matcher == nil {
		matcher = SubstringMatcher
	}
	for _, group := range out.GroupBy {
		bare := core.Column{Name: group}
		if out.HasColumn(bare) || n.projected(out.Columns, group, matcher) {
			continue
		}
		out.Columns = append(out.Columns, bare)
	}

	return out
}

func (n *Normalizer) projected(cols []core.Column, group string, m GroupMatcher) bool {
	for _, c := range cols {
		if !c.IsAggregated() && m.Match(group, c) {
			return true
		}
	}
	return false
}

// QualifyTable prefixes name with schema unless it already carries one.
// Qualifying an already-qualified name is a no-op.
func QualifyTable(name, schema string) string {
	if schema == "" || strings.Contains(name, ".") {
		return name
	}
	return schema + "." + name
}
