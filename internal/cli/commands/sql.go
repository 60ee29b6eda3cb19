package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/askql/internal/cli/output"
	"github.com/leapstack-labs/askql/internal/engine"
	"github.com/leapstack-labs/askql/pkg/core"
)

// NewSQLCommand creates the sql command.
func NewSQLCommand() *cobra.Command {
	var showAnalysis bool

	cmd := &cobra.Command{
		Use:   "sql <question>",
		Short: "Show the SQL a question would run",
		Long: `Analyze a question and print the query components and the SQL
statement that would answer it, without touching the database.`,
		Example: `  # Preview the query for a question
  askql sql "Total booking amount per carrier"

  # Include the raw model analysis
  askql sql --analysis "Total booking amount for AA"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(cmd, strings.Join(args, " "), showAnalysis)
		},
	}

	cmd.Flags().BoolVar(&showAnalysis, "analysis", false, "Print the raw model analysis")

	return cmd
}

func runSQL(cmd *cobra.Command, question string, showAnalysis bool) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return fmt.Errorf("question must not be empty")
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	plan, err := cmdCtx.Engine.Prepare(cmd.Context(), question)
	if err != nil {
		if errors.Is(err, core.ErrMetadataUnavailable) {
			return fmt.Errorf("could not retrieve database metadata: %w", err)
		}
		if cmdCtx.Renderer.EffectiveMode() == output.ModeJSON {
			_ = cmdCtx.Renderer.JSON(plan)
		}
		return err
	}

	return renderPlan(cmdCtx.Renderer, plan, showAnalysis)
}

func renderPlan(r *output.Renderer, plan *engine.Plan, showAnalysis bool) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(plan)
	}

	c := plan.Components
	if showAnalysis {
		r.Header(2, "Analysis")
		r.Println(plan.Analysis)
		r.Println("")
	}

	r.Header(2, "Components")
	r.KeyValue("Tables", joinOrNone(c.Tables))
	columns := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		columns[i] = col.String()
	}
	r.KeyValue("Columns", joinOrNone(columns))
	r.KeyValue("Filters", joinOrNone(c.Filters))
	r.KeyValue("Joins", joinOrNone(c.Joins))
	r.KeyValue("Group by", joinOrNone(c.GroupBy))
	r.Println("")

	r.Header(2, "SQL")
	r.SQL(plan.SQL)
	return nil
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
