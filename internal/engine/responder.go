package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/askql/internal/llm"
	"github.com/leapstack-labs/askql/internal/render"
	"github.com/leapstack-labs/askql/pkg/core"
)

// Fixed user-facing messages.
const (
	MsgNoMetadata      = "Could not retrieve database metadata."
	MsgNoResults       = "No results found for your query."
	msgProcessingError = "Error processing question: %s"
	msgExecutionFailed = "Query execution failed: %s"
)

// Responder phrases a result set as prose.
type Responder struct {
	model llm.Model
	// ReportErrors answers execution failures with their cause instead of
	// the no-results message.
	ReportErrors bool
	logger       *slog.Logger
}

// NewResponder creates a responder backed by model.
func NewResponder(model llm.Model, reportErrors bool, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Responder{model: model, ReportErrors: reportErrors, logger: logger}
}

// Respond returns the answer for res. Empty results short-circuit without a
// model call.
func (r *Responder) Respond(ctx context.Context, question string, res core.Result) (string, error) {
	if res.Outcome == core.OutcomeError && r.ReportErrors && res.Err != nil {
		return fmt.Sprintf(msgExecutionFailed, causeOf(res.Err)), nil
	}
	if res.Empty() {
		return MsgNoResults, nil
	}

	prompt, err := renderPrompt("answer.tmpl", answerPrompt{
		Question: question,
		Results:  render.PlainString(res.ResultSet),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render answer prompt: %w", err)
	}

	text, err := r.model.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("response generation failed: %w", err)
	}
	r.logger.Debug("answer generated", slog.Int("bytes", len(text)))
	return text, nil
}

func causeOf(err error) string {
	var execErr *core.ExecutionError
	if errors.As(err, &execErr) && execErr.Cause != nil {
		return execErr.Cause.Error()
	}
	return err.Error()
}
