// Package llm wraps the language model used to analyze questions and phrase
// answers behind a single prompt-in, text-out interface.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/leapstack-labs/askql/internal/retry"
)

// Model turns a prompt into text.
type Model interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to Model.
type Func func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Config configures the model client.
type Config struct {
	Provider   string        `koanf:"provider"`
	Model      string        `koanf:"model"`
	APIKey     string        `koanf:"api_key"`
	BaseURL    string        `koanf:"base_url"`
	MaxTokens  int64         `koanf:"max_tokens"`
	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries uint64        `koanf:"max_retries"`
}

// Defaults for Config fields left empty.
const (
	DefaultProvider  = "anthropic"
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTokens = 1024
)

var providers = map[string]func(Config, *slog.Logger) (Model, error){
	"anthropic": func(cfg Config, logger *slog.Logger) (Model, error) {
		return NewAnthropic(cfg, logger)
	},
}

// Providers returns the supported provider names (sorted).
func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the configured model wrapped in the retry budget from cfg.
func New(cfg Config, logger *slog.Logger) (Model, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = DefaultProvider
	}

	factory, ok := providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider %q (available: %s)", cfg.Provider, strings.Join(Providers(), ", "))
	}

	m, err := factory(cfg, logger)
	if err != nil {
		return nil, err
	}
	return WithRetry(m, retry.Policy{
		MaxRetries:     cfg.MaxRetries,
		AttemptTimeout: cfg.Timeout,
	}, logger), nil
}

type retrying struct {
	next   Model
	policy retry.Policy
	logger *slog.Logger
}

// WithRetry bounds every Complete call on m with the given policy.
func WithRetry(m Model, policy retry.Policy, logger *slog.Logger) Model {
	return &retrying{next: m, policy: policy, logger: logger}
}

func (r *retrying) Complete(ctx context.Context, prompt string) (string, error) {
	var out string
	err := retry.Do(ctx, r.policy, r.logger, "llm.complete", func(ctx context.Context) error {
		text, err := r.next.Complete(ctx, prompt)
		if err != nil {
			return err
		}
		out = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
