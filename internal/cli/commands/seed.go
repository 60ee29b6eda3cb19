package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/askql/internal/cli/output"
)

// defaultSeedsDir holds the SQL files seed runs when given no arguments.
const defaultSeedsDir = "seeds"

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed [FILE...]",
		Short: "Run SQL seed files against the target database",
		Long: `Execute SQL files against the configured target database.

Each file runs as one script and may hold several statements. Without
arguments every *.sql file in the project's seeds/ directory runs in
name order.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # Run all seeds in seeds/
  askql seed

  # Run one file against another database
  askql seed --database other.duckdb seeds/sflight.sql`,
		RunE: runSeed,
	}

	return cmd
}

// SeedResult reports one executed seed file.
type SeedResult struct {
	File     string `json:"file"`
	Bytes    int    `json:"bytes"`
	Duration string `json:"duration"`
}

func runSeed(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContextWithoutEngine(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	files := args
	if len(files) == 0 {
		files, err = getSeedFiles(filepath.Join(cmdCtx.Cfg.ProjectRoot, defaultSeedsDir))
		if err != nil {
			return err
		}
	}
	if len(files) == 0 {
		if r.EffectiveMode() == output.ModeJSON {
			return r.JSON([]SeedResult{})
		}
		r.Muted("No seed files found in " + defaultSeedsDir)
		return nil
	}

	db, err := connectTarget(ctx, cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	results := make([]SeedResult, 0, len(files))
	for _, file := range files {
		content, err := os.ReadFile(file) //nolint:gosec // seed files are chosen by the user
		if err != nil {
			return fmt.Errorf("failed to read seed file: %w", err)
		}

		start := time.Now()
		if err := db.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to run seed %s: %w", file, err)
		}
		elapsed := time.Since(start).Round(time.Millisecond)
		cmdCtx.Logger.Debug("seed executed", slog.String("file", file), slog.Duration("duration", elapsed))
		results = append(results, SeedResult{File: file, Bytes: len(content), Duration: elapsed.String()})
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(results)
	}
	r.Header(1, "Seeds")
	r.Println("")
	for _, res := range results {
		r.StatusLine(res.File, "success", fmt.Sprintf("%d bytes, %s", res.Bytes, res.Duration))
	}
	r.Println("")
	r.Success(fmt.Sprintf("Seeded %s (%s)", cmdCtx.Cfg.Target.Type, cmdCtx.Cfg.Target.Database))
	return nil
}

// getSeedFiles returns the .sql files in dir sorted by name. A missing
// directory yields no files.
func getSeedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read seeds directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".sql") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
