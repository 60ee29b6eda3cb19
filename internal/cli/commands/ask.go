package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/askql/internal/cli/output"
	"github.com/leapstack-labs/askql/internal/engine"
)

// AskOptions holds options for the ask command.
type AskOptions struct {
	ShowSQL  bool
	ShowRows bool
}

// NewAskCommand creates the ask command.
func NewAskCommand() *cobra.Command {
	opts := &AskOptions{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question about the database",
		Long: `Answer a natural-language question about the configured database.

The question is analyzed against the schema metadata, turned into a SQL
query, executed against the target and the results are phrased as prose.

Output adapts to environment:
  - Terminal: Styled answer
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output json for the full report including components and rows, or
--output csv for the result rows alone.`,
		Example: `  # Ask a question
  askql ask "What is the total booking amount for carrier AA?"

  # Show the generated SQL and the rows it returned
  askql ask --show-sql --show-rows "Total booking amount per carrier"

  # Machine-readable report
  askql ask -o json "How many bookings are there?"

  # Result rows as CSV
  askql ask -o csv "Total booking amount per carrier" > totals.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.ShowSQL, "show-sql", false, "Print the generated SQL")
	cmd.Flags().BoolVar(&opts.ShowRows, "show-rows", false, "Print the rows returned by the query")

	return cmd
}

func runAsk(cmd *cobra.Command, question string, opts *AskOptions) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return fmt.Errorf("question must not be empty")
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := cmdCtx.Engine.Ask(cmd.Context(), question)
	if err != nil {
		cmdCtx.Logger.Warn("question not fully answered",
			slog.String("request_id", report.RequestID),
			slog.String("error", err.Error()))
	}

	return renderReport(cmdCtx.Renderer, report, opts)
}

// askReport is the JSON shape of an answered question.
type askReport struct {
	RequestID  string           `json:"request_id"`
	Question   string           `json:"question"`
	Answer     string           `json:"answer"`
	SQL        string           `json:"sql,omitempty"`
	Outcome    string           `json:"outcome,omitempty"`
	Columns    []string         `json:"columns,omitempty"`
	Rows       []map[string]any `json:"rows,omitempty"`
	Components any              `json:"components"`
}

func toAskReport(report *engine.Report) askReport {
	rows := make([]map[string]any, 0, report.Result.Len())
	for _, row := range report.Result.Rows {
		rows = append(rows, row)
	}
	return askReport{
		RequestID:  report.RequestID,
		Question:   report.Question,
		Answer:     report.Answer,
		SQL:        report.SQL,
		Outcome:    string(report.Result.Outcome),
		Columns:    report.Result.Columns,
		Rows:       rows,
		Components: report.Components,
	}
}

func renderReport(r *output.Renderer, report *engine.Report, opts *AskOptions) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(toAskReport(report))
	case output.ModeCSV:
		return r.ResultSet(report.Result.ResultSet)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Answer"))
		r.Println("")
		r.Println(report.Answer)
		if opts.ShowSQL && report.SQL != "" {
			r.Println("")
			r.Println(output.FormatHeader(2, "SQL"))
			r.Println("")
			r.SQL(report.SQL)
		}
		if opts.ShowRows && !report.Result.Empty() {
			r.Println("")
			r.Println(output.FormatHeader(2, "Rows"))
			r.Println("")
			return r.ResultSet(report.Result.ResultSet)
		}
		return nil
	default:
		if opts.ShowSQL && report.SQL != "" {
			r.SQL(report.SQL)
			r.Println("")
		}
		if opts.ShowRows && !report.Result.Empty() {
			if err := r.ResultSet(report.Result.ResultSet); err != nil {
				return err
			}
			r.Println("")
		}
		r.Println(r.Styles().Answer.Render(report.Answer))
		return nil
	}
}
