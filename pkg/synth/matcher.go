package synth

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/askql/pkg/core"
)

// GroupMatcher decides whether an unaggregated projected column already
// covers a GROUP BY name.
type GroupMatcher interface {
	Match(group string, col core.Column) bool
}

// GroupMatcherFunc adapts a function to GroupMatcher.
type GroupMatcherFunc func(group string, col core.Column) bool

// Match calls f.
func (f GroupMatcherFunc) Match(group string, col core.Column) bool {
	return f(group, col)
}

// Matcher policy names accepted in configuration.
const (
	MatchSubstring = "substring"
	MatchExact     = "exact"
)

var (
	// SubstringMatcher treats a column as covering the group when its name
	// contains the group name, so SBOOK.CARRID covers CARRID. It also lets
	// CARRID_TEXT cover CARRID.
	SubstringMatcher GroupMatcher = GroupMatcherFunc(func(group string, col core.Column) bool {
		return strings.Contains(col.Name, group)
	})

	// ExactMatcher requires the column name to equal the group name.
	ExactMatcher GroupMatcher = GroupMatcherFunc(func(group string, col core.Column) bool {
		return col.Name == group
	})
)

var matchers = map[string]GroupMatcher{
	MatchSubstring: SubstringMatcher,
	MatchExact:     ExactMatcher,
}

// MatcherByName resolves a configured policy. An empty name selects the
// substring policy.
func MatcherByName(name string) (GroupMatcher, error) {
	if name == "" {
		return SubstringMatcher, nil
	}
	m, ok := matchers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown group match policy %q (available: %s)", name, strings.Join(MatcherNames(), ", "))
	}
	return m, nil
}

// MatcherNames returns the accepted policy names, sorted.
func MatcherNames() []string {
	names := make([]string, 0, len(matchers))
	for n := range matchers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
