package analysis

import (
	"strings"

	"github.com/leapstack-labs/askql/pkg/core"
)

// conjunction splits filter fragments into one filter per conjunct.
const conjunction = " AND "

// placeholders are fragments models emit for an intentionally empty section.
var placeholders = map[string]bool{
	"none": true,
	"n/a":  true,
	"null": true,
	"-":    true,
}

// handler appends the content of one line to the section it belongs to.
type handler func(q *core.QueryComponents, content string)

// sectionHandlers maps each section to the function that parses its content.
var sectionHandlers = map[Section]handler{
	SectionTables:  parseTables,
	SectionColumns: parseColumns,
	SectionFilters: parseFilters,
	SectionJoins:   parseJoins,
	SectionGroupBy: parseGroupBy,
}

// Parser is a line-oriented state machine over the five section headers.
// The section cursor lives in each Parse call, so one Parser may be shared
// by concurrent callers. The zero value is ready to use.
type Parser struct{}

// NewParser creates a parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse converts raw analysis text into query components. It never fails:
// text without any recognizable header yields empty components, which
// synthesis rejects.
func (p *Parser) Parse(text string) core.QueryComponents {
	current := SectionNone

	if i := strings.Index(text, ExplanationMarker); i >= 0 {
		text = text[:i]
	}

	var q core.QueryComponents
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		content := line
		if s, rest, ok := matchHeader(line); ok {
			current = s
			content = rest
		}

		// Content before the first header is commentary.
		if current == SectionNone {
			continue
		}
		sectionHandlers[current](&q, content)
	}
	return q
}

// Parse is a convenience wrapper around a fresh Parser.
func Parse(text string) core.QueryComponents {
	return NewParser().Parse(text)
}

// fragments splits content on commas and drops empty or placeholder items.
func fragments(content string) []string {
	var out []string
	for _, part := range strings.Split(content, ",") {
		if frag := cleanFragment(part); frag != "" {
			out = append(out, frag)
		}
	}
	return out
}

// cleanFragment trims whitespace and the brackets the prompt template uses
// around each section's placeholder.
func cleanFragment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.Trim(s, "[]"))
	if placeholders[strings.ToLower(s)] {
		return ""
	}
	return s
}

func parseTables(q *core.QueryComponents, content string) {
	q.Tables = append(q.Tables, fragments(content)...)
}

func parseColumns(q *core.QueryComponents, content string) {
	for _, frag := range fragments(content) {
		col := ParseColumn(frag)
		if col.Name == "" || q.HasColumn(col) {
			continue
		}
		q.Columns = append(q.Columns, col)
	}
}

func parseFilters(q *core.QueryComponents, content string) {
	for _, frag := range fragments(content) {
		for _, conj := range strings.Split(frag, conjunction) {
			f := cleanFragment(conj)
			if f == "" || contains(q.Filters, f) {
				continue
			}
			q.Filters = append(q.Filters, f)
		}
	}
}

func parseJoins(q *core.QueryComponents, content string) {
	q.Joins = append(q.Joins, fragments(content)...)
}

func parseGroupBy(q *core.QueryComponents, content string) {
	q.GroupBy = append(q.GroupBy, fragments(content)...)
}

// ParseColumn interprets "AGG(col)" as an aggregated column and anything
// else as a bare column name.
func ParseColumn(frag string) core.Column {
	open := strings.Index(frag, "(")
	if open < 0 || !strings.Contains(frag, ")") {
		return core.Column{Name: frag}
	}

	agg := strings.ToUpper(strings.TrimSpace(frag[:open]))
	arg := frag[open+1:]
	if end := strings.Index(arg, ")"); end >= 0 {
		arg = arg[:end]
	}
	return core.Column{
		Aggregation: core.Aggregation(agg),
		Name:        strings.TrimSpace(arg),
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
