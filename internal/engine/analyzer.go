package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/askql/internal/llm"
	"github.com/leapstack-labs/askql/pkg/core"
)

// Analyzer asks the model to break a question down into the five labeled
// sections the parser understands. It does not validate the reply.
type Analyzer struct {
	model  llm.Model
	schema string
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer that instructs the model to qualify
// tables with schema.
func NewAnalyzer(model llm.Model, schema string, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{model: model, schema: schema, logger: logger}
}

// Prompt renders the analysis prompt for triples and question.
func (a *Analyzer) Prompt(triples []core.Triple, question string) (string, error) {
	return renderPrompt("analysis.tmpl", analysisPrompt{
		Schema:   a.schema,
		Triples:  triples,
		Question: question,
	})
}

// Analyze returns the model's raw analysis text.
func (a *Analyzer) Analyze(ctx context.Context, triples []core.Triple, question string) (string, error) {
	prompt, err := a.Prompt(triples, question)
	if err != nil {
		return "", fmt.Errorf("failed to render analysis prompt: %w", err)
	}

	text, err := a.model.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("analysis failed: %w", err)
	}

	a.logger.Debug("analysis received", slog.Int("triples", len(triples)), slog.Int("bytes", len(text)))
	return text, nil
}
