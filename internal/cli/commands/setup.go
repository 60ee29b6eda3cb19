package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/askql/internal/cli/config"
	"github.com/leapstack-labs/askql/internal/cli/output"
	intconfig "github.com/leapstack-labs/askql/internal/config"
	"github.com/leapstack-labs/askql/internal/engine"
	"github.com/leapstack-labs/askql/internal/llm"
	"github.com/leapstack-labs/askql/internal/metadata"
	"github.com/leapstack-labs/askql/pkg/adapter"

	// Register the bundled database adapters.
	_ "github.com/leapstack-labs/askql/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/askql/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/askql/pkg/adapters/sqlite"
)

// newModel builds the language model. Tests replace it with a scripted model.
var newModel = llm.New

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := config.GetLogger(cmd.Context())

	eng, closer, err := createEngine(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = eng.Close()
		_ = closer.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: newRenderer(cmd, cfg),
	}, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't need the model or metadata source.
func NewCommandContextWithoutEngine(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: newRenderer(cmd, cfg),
	}, nil
}

func newRenderer(cmd *cobra.Command, cfg *config.Config) *output.Renderer {
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
}

// getConfig returns the configuration loaded by the root command, or
// loads one from the working directory when a command runs standalone.
func getConfig() (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	return config.LoadConfig("", nil)
}

// createEngine wires the metadata source, model and target into an engine.
// The returned closer releases the metadata source.
func createEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine.Engine, io.Closer, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if cfg.Metadata.Source == metadata.SourceStore {
		if err := ensureParentDir(cfg.Metadata.StorePath); err != nil {
			return nil, nil, err
		}
	}
	retriever, closer, err := metadata.New(ctx, cfg.Metadata, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create metadata retriever: %w", err)
	}

	model, err := newModel(cfg.LLM, logger)
	if err != nil {
		_ = closer.Close()
		return nil, nil, fmt.Errorf("failed to create language model: %w", err)
	}

	timeout, err := intconfig.QueryTimeout(cfg.Target)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}

	eng, err := engine.New(engine.Config{
		Retriever:    retriever,
		Model:        model,
		Target:       cfg.Target.AdapterConfig(),
		Prefix:       cfg.Metadata.Prefix,
		Schema:       cfg.Synthesis.DefaultSchema,
		GroupMatch:   cfg.Synthesis.GroupMatch,
		QueryTimeout: timeout,
		MaxRetries:   cfg.Execution.MaxRetries,
		ReportErrors: cfg.Execution.ReportErrors,
		Logger:       logger,
	})
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	return eng, closer, nil
}

// openStore opens the local triple store named by the configuration.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*metadata.Store, error) {
	if err := ensureParentDir(cfg.Metadata.StorePath); err != nil {
		return nil, err
	}
	store, err := metadata.OpenStore(ctx, cfg.Metadata.StorePath, logger)
	if err != nil {
		return nil, err
	}
	store.Graph = cfg.Metadata.Graph
	return store, nil
}

// connectTarget opens the configured target database without an engine.
func connectTarget(ctx context.Context, cfg *config.Config, logger *slog.Logger) (adapter.Adapter, error) {
	return adapter.Open(ctx, cfg.Target.AdapterConfig(), logger)
}

func ensureParentDir(path string) error {
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
