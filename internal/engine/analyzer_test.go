package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/askql/internal/llm"
	"github.com/leapstack-labs/askql/internal/testutil"
)

func TestAnalyzer_Prompt(t *testing.T) {
	a := NewAnalyzer(llm.NewScripted(), "SFLIGHT", nil)

	prompt, err := a.Prompt(flightTriples, "What is the total booking amount for American Airlines?")
	require.NoError(t, err)

	assert.Contains(t, prompt, flightNS+"SBOOK rdf:type Table\n")
	assert.Contains(t, prompt, flightNS+"SBOOK/LOCCURAM aggregation SUM\n")
	assert.Contains(t, prompt, "Question: What is the total booking amount for American Airlines?")
	assert.Contains(t, prompt, "Always include the schema name (SFLIGHT) before table names")
	assert.Contains(t, prompt, "(e.g., SFLIGHT.SBOOK)")

	// Sections appear in the order the parser expects.
	last := -1
	for _, h := range []string{"Tables:", "Columns:", "Filters:", "Joins:", "GroupBy:"} {
		idx := strings.LastIndex(prompt, "\n"+h)
		require.Greater(t, idx, last, "header %s out of order", h)
		last = idx
	}
}

func TestAnalyzer_Analyze(t *testing.T) {
	tests := []struct {
		name    string
		model   *llm.Scripted
		want    string
		wantErr string
	}{
		{
			name:  "returns raw text",
			model: llm.NewScripted(analysisScenarioA),
			want:  analysisScenarioA,
		},
		{
			name:  "does not validate reply",
			model: llm.NewScripted("I am not sure."),
			want:  "I am not sure.",
		},
		{
			name:    "model failure",
			model:   llm.NewScripted().Then(llm.Reply{Err: errors.New("overloaded")}),
			wantErr: "analysis failed: overloaded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer(tt.model, "SFLIGHT", testutil.NewTestLogger(t))

			got, err := a.Analyze(context.Background(), flightTriples, "question")
			assert.Equal(t, 1, tt.model.Calls())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
