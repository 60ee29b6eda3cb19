package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/askql/internal/cli/config"
	"github.com/leapstack-labs/askql/internal/cli/output"
	"github.com/leapstack-labs/askql/internal/metadata"
)

// Check statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// modelProbe is the prompt sent to verify the model answers at all.
const modelProbe = "Reply with the single word OK."

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	NoModel bool
	Timeout time.Duration
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check connectivity to the database, metadata source and model",
		Long: `Check that every dependency askql needs is reachable.

The checks run concurrently:
  - target: connect to the database and ping it
  - metadata: retrieve the schema triples under the configured prefix
  - model: send a short prompt to the language model

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run all checks
  askql doctor

  # Skip the model check (no API call)
  askql doctor --no-model -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NoModel, "no-model", false, "Skip the language model check")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "Timeout for each check")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Checks []HealthCheck `json:"checks"`
	Passed int           `json:"passed"`
	Failed int           `json:"failed"`
}

// HealthCheck is the result of one dependency check.
type HealthCheck struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Duration string `json:"duration"`
}

type checkFunc func(ctx context.Context) (detail string, err error)

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cmdCtx, err := NewCommandContextWithoutEngine(cmd)
	if err != nil {
		return err
	}

	checks := []struct {
		name string
		fn   checkFunc
	}{
		{"target", targetCheck(cmdCtx.Cfg, cmdCtx.Logger)},
		{"metadata", metadataCheck(cmdCtx.Cfg, cmdCtx.Logger)},
		{"model", modelCheck(cmdCtx.Cfg, cmdCtx.Logger)},
	}

	results := make([]HealthCheck, len(checks))
	g, ctx := errgroup.WithContext(cmd.Context())
	for i, c := range checks {
		if c.name == "model" && opts.NoModel {
			results[i] = HealthCheck{Name: c.name, Status: StatusSkipped, Detail: "disabled by --no-model"}
			continue
		}
		g.Go(func() error {
			results[i] = runCheck(ctx, c.name, c.fn, opts.Timeout)
			return nil
		})
	}
	_ = g.Wait()

	out := &DoctorOutput{Checks: results}
	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			out.Passed++
		case StatusFailed:
			out.Failed++
			cmdCtx.Logger.Debug("check failed", slog.String("check", r.Name), slog.String("error", r.Detail))
		}
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(out); err != nil {
			return err
		}
	} else {
		renderDoctor(r, out)
	}

	if out.Failed > 0 {
		return fmt.Errorf("%d of %d checks failed", out.Failed, len(results))
	}
	return nil
}

func runCheck(ctx context.Context, name string, fn checkFunc, timeout time.Duration) HealthCheck {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	detail, err := fn(ctx)
	hc := HealthCheck{
		Name:     name,
		Status:   StatusSuccess,
		Detail:   detail,
		Duration: time.Since(start).Round(time.Millisecond).String(),
	}
	if err != nil {
		hc.Status = StatusFailed
		hc.Detail = err.Error()
	}
	return hc
}

func targetCheck(cfg *config.Config, logger *slog.Logger) checkFunc {
	return func(ctx context.Context) (string, error) {
		db, err := connectTarget(ctx, cfg, logger)
		if err != nil {
			return "", err
		}
		defer func() { _ = db.Close() }()

		if err := db.Ping(ctx); err != nil {
			return "", fmt.Errorf("ping failed: %w", err)
		}
		return fmt.Sprintf("%s (%s)", cfg.Target.Type, db.DialectName()), nil
	}
}

func metadataCheck(cfg *config.Config, logger *slog.Logger) checkFunc {
	return func(ctx context.Context) (string, error) {
		if cfg.Metadata.Source == metadata.SourceStore {
			if err := ensureParentDir(cfg.Metadata.StorePath); err != nil {
				return "", err
			}
		}
		retriever, closer, err := metadata.New(ctx, cfg.Metadata, logger)
		if err != nil {
			return "", err
		}
		defer func() { _ = closer.Close() }()

		triples, err := retriever.Retrieve(ctx, cfg.Metadata.Prefix)
		if err != nil {
			return "", err
		}
		if len(triples) == 0 {
			return "", fmt.Errorf("no triples under %s", cfg.Metadata.Prefix)
		}
		return fmt.Sprintf("%d triples from %s", len(triples), cfg.Metadata.Source), nil
	}
}

func modelCheck(cfg *config.Config, logger *slog.Logger) checkFunc {
	return func(ctx context.Context) (string, error) {
		model, err := newModel(cfg.LLM, logger)
		if err != nil {
			return "", err
		}
		if _, err := model.Complete(ctx, modelProbe); err != nil {
			return "", err
		}
		return cfg.LLM.Model, nil
	}
}

func renderDoctor(r *output.Renderer, out *DoctorOutput) {
	title := cases.Title(language.English)

	r.Header(1, "Health Check")
	r.Println("")
	for _, c := range out.Checks {
		detail := c.Detail
		if c.Duration != "" && c.Status != StatusSkipped {
			if detail != "" {
				detail += ", "
			}
			detail += c.Duration
		}
		r.StatusLine(title.String(c.Name), c.Status, detail)
	}
	r.Println("")

	summary := fmt.Sprintf("%d passed, %d failed", out.Passed, out.Failed)
	if out.Failed > 0 {
		r.Error(summary)
		return
	}
	r.Success(summary)
}
