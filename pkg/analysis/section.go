// Package analysis turns the free-text schema analysis produced by a language
// model into typed query components.
//
// The model is asked to answer with five labeled sections, one per line:
//
//	Tables: SFLIGHT.SBOOK
//	Columns: SUM(LOCCURAM), CARRID
//	Filters: CARRID = 'AA'
//	Joins:
//	GroupBy: CARRID
//
// Nothing enforces that shape, so the parser is a small line-oriented state
// machine that tolerates commentary, continuation lines and missing sections.
package analysis

import "strings"

// Section identifies one labeled block of the analysis text.
type Section int

// Sections in the order the model is asked to emit them.
const (
	SectionNone Section = iota
	SectionTables
	SectionColumns
	SectionFilters
	SectionJoins
	SectionGroupBy
)

// ExplanationMarker starts trailing commentary that is always discarded.
const ExplanationMarker = "Explanation:"

// Sections lists every real section in prompt order.
var Sections = []Section{SectionTables, SectionColumns, SectionFilters, SectionJoins, SectionGroupBy}

var headers = map[Section]string{
	SectionTables:  "Tables:",
	SectionColumns: "Columns:",
	SectionFilters: "Filters:",
	SectionJoins:   "Joins:",
	SectionGroupBy: "GroupBy:",
}

// Header returns the literal header for the section, e.g. "Tables:".
func (s Section) Header() string {
	return headers[s]
}

func (s Section) String() string {
	if h, ok := headers[s]; ok {
		return strings.TrimSuffix(h, ":")
	}
	return "None"
}

// matchHeader reports which section a trimmed line opens, if any, and the
// remainder of the line after the header.
func matchHeader(line string) (Section, string, bool) {
	for _, s := range Sections {
		h := headers[s]
		if strings.HasPrefix(line, h) {
			return s, line[len(h):], true
		}
	}
	return SectionNone, "", false
}
