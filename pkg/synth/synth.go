package synth

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/leapstack-labs/askql/pkg/core"
)

// joinPlaceholder is emitted by models when they mean "a join is needed"
// without giving a condition; it renders nothing.
const joinPlaceholder = "INNER JOIN"

// joinClause matches a complete join clause and captures its target table.
var joinClause = regexp.MustCompile(`(?i)^INNER JOIN\s+(.+?)\s+ON\s+`)

// qualifiedRef matches dotted column references such as SBOOK.CUSTOMID.
var qualifiedRef = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)\.[A-Za-z_][A-Za-z0-9_]*`)

// Synthesizer renders query components into SQL. It is stateless and
// deterministic: identical components always produce identical SQL.
type Synthesizer struct {
	// Schema qualifies join targets inferred from join conditions.
	Schema string
}

// NewSynthesizer creates a synthesizer using schema for inferred join targets.
func NewSynthesizer(schema string) *Synthesizer {
	if schema == "" {
		schema = DefaultSchema
	}
	return &Synthesizer{Schema: schema}
}

// Synthesize renders q as one SQL statement terminated by ';'.
// It returns core.ErrSynthesisInvalid when no table was identified.
func (s *Synthesizer) Synthesize(q core.QueryComponents) (string, error) {
	tables := cleanAll(q.Tables)
	if len(tables) == 0 {
		return "", fmt.Errorf("%w: no tables identified for SQL generation", core.ErrSynthesisInvalid)
	}

	groupBy := cleanAll(q.GroupBy)
	filters := cleanAll(q.Filters)

	from := tables[0]
	joins, err := s.renderJoins(from, tables[1:], cleanAll(q.Joins))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(selectItems(groupBy, q.Columns), ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(from)

	for _, j := range joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}

	predicate := strings.Join(filters, " AND ")
	grouping := strings.Join(groupBy, ", ")
	switch {
	case predicate != "" && grouping != "":
		sb.WriteString(" GROUP BY " + grouping + " HAVING " + predicate)
	case predicate != "":
		sb.WriteString(" WHERE " + predicate)
	case grouping != "":
		sb.WriteString(" GROUP BY " + grouping)
	}

	sql := strings.TrimSpace(sb.String())
	if !strings.HasSuffix(sql, ";") {
		sql += ";"
	}
	return sql, nil
}

// selectItems places grouping columns first, then the requested columns.
// Bare columns already present are skipped.
func selectItems(groupBy []string, cols []core.Column) []string {
	var items []string
	seen := make(map[string]bool)
	add := func(item string) {
		if seen[item] {
			return
		}
		seen[item] = true
		items = append(items, item)
	}

	for _, g := range groupBy {
		add(g)
	}

	for _, c := range cols {
		name := clean(c.Name)
		if name == "" {
			continue
		}
		if !c.IsAggregated() {
			add(name)
			continue
		}
		agg := clean(string(c.Aggregation))
		add(fmt.Sprintf("%s(%s) AS %s", agg, name, alias(agg, name)))
	}

	if len(items) == 0 {
		return []string{"*"}
	}
	return items
}

// alias builds AGG_col, replacing characters that are not valid in a bare
// identifier.
func alias(agg, col string) string {
	if col == "*" {
		col = "ALL"
	}
	var sb strings.Builder
	sb.WriteString(agg)
	sb.WriteByte('_')
	for _, r := range col {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// renderJoins turns join conditions into INNER JOIN clauses. Each condition
// joins the next unused table from the component list; when the list runs
// out the target is inferred from the qualifiers in the condition.
func (s *Synthesizer) renderJoins(from string, candidates, conds []string) ([]string, error) {
	used := map[string]bool{baseName(from): true}
	var out []string

	for _, cond := range conds {
		if strings.EqualFold(cond, joinPlaceholder) {
			continue
		}

		// Some models answer with a complete clause; keep it as written.
		if m := joinClause.FindStringSubmatch(cond); m != nil {
			used[baseName(m[1])] = true
			out = append(out, cond)
			continue
		}

		target := ""
		for _, t := range candidates {
			if !used[baseName(t)] {
				target = t
				break
			}
		}
		if target == "" {
			target = s.inferJoinTarget(cond, used)
		}
		if target == "" {
			return nil, fmt.Errorf("%w: cannot determine table for join %q", core.ErrSynthesisInvalid, cond)
		}

		used[baseName(target)] = true
		out = append(out, fmt.Sprintf("INNER JOIN %s ON %s", target, cond))
	}
	return out, nil
}

// inferJoinTarget returns the first table referenced in cond that has not
// been joined yet, qualified with the configured schema.
func (s *Synthesizer) inferJoinTarget(cond string, used map[string]bool) string {
	for _, m := range qualifiedRef.FindAllStringSubmatch(cond, -1) {
		qualifier := m[1]
		if used[baseName(qualifier)] {
			continue
		}
		return QualifyTable(qualifier, s.Schema)
	}
	return ""
}

// baseName strips any schema prefix: SFLIGHT.SBOOK -> SBOOK.
func baseName(table string) string {
	if i := strings.LastIndex(table, "."); i >= 0 {
		return strings.ToUpper(table[i+1:])
	}
	return strings.ToUpper(table)
}

// clean removes the brackets models copy from the prompt template.
func clean(s string) string {
	return strings.TrimSpace(strings.NewReplacer("[", "", "]", "").Replace(s))
}

func cleanAll(list []string) []string {
	var out []string
	for _, s := range list {
		if c := clean(s); c != "" {
			out = append(out, c)
		}
	}
	return out
}
