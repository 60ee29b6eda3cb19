package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/askql/internal/llm"
	"github.com/leapstack-labs/askql/pkg/core"
)

func TestResponder_Respond(t *testing.T) {
	rows := core.Result{
		ResultSet: core.ResultSet{
			Columns: []string{"CARRID", "SUM_LOCCURAM"},
			Rows:    []core.Row{{"CARRID": "AA", "SUM_LOCCURAM": 1500.5}},
		},
		Outcome: core.OutcomeRows,
	}
	failed := core.Result{
		Outcome: core.OutcomeError,
		Err:     &core.ExecutionError{SQL: "SELECT 1;", Cause: errors.New("connection refused")},
	}

	tests := []struct {
		name         string
		reportErrors bool
		result       core.Result
		model        *llm.Scripted
		want         string
		wantCalls    int
		wantErr      bool
	}{
		{
			name:      "rows are phrased by the model",
			result:    rows,
			model:     llm.NewScripted("American Airlines booked 1500.5 in total."),
			want:      "American Airlines booked 1500.5 in total.",
			wantCalls: 1,
		},
		{
			name:   "empty result skips the model",
			result: core.Result{Outcome: core.OutcomeEmpty},
			model:  llm.NewScripted(),
			want:   MsgNoResults,
		},
		{
			name:   "execution error reads as no results",
			result: failed,
			model:  llm.NewScripted(),
			want:   MsgNoResults,
		},
		{
			name:         "execution error reported when enabled",
			reportErrors: true,
			result:       failed,
			model:        llm.NewScripted(),
			want:         "Query execution failed: connection refused",
		},
		{
			name:      "model failure",
			result:    rows,
			model:     llm.NewScripted().Then(llm.Reply{Err: errors.New("rate limited")}),
			wantCalls: 1,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResponder(tt.model, tt.reportErrors, nil)

			got, err := r.Respond(context.Background(), "How much did AA book?", tt.result)
			assert.Equal(t, tt.wantCalls, tt.model.Calls())
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "response generation failed")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResponder_PromptIncludesTable(t *testing.T) {
	model := llm.NewScripted("ok")
	r := NewResponder(model, false, nil)

	_, err := r.Respond(context.Background(), "How much did AA book?", core.Result{
		ResultSet: core.ResultSet{
			Columns: []string{"CARRID", "SUM_LOCCURAM"},
			Rows:    []core.Row{{"CARRID": "AA", "SUM_LOCCURAM": 1500.5}},
		},
		Outcome: core.OutcomeRows,
	})
	require.NoError(t, err)

	require.Len(t, model.Prompts(), 1)
	prompt := model.Prompts()[0]
	assert.Contains(t, prompt, "Question: How much did AA book?")
	assert.Contains(t, prompt, "CARRID")
	assert.Contains(t, prompt, "SUM_LOCCURAM")
	assert.Contains(t, prompt, "1500.5")
	assert.Contains(t, prompt, "Response:")
}
