package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/askql/internal/cli/output"
	"github.com/leapstack-labs/askql/internal/engine"
)

const replPrompt = "askql> "

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	opts := &AskOptions{}

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Ask questions interactively",
		Long: `Start an interactive session. Every line is answered as a question.

Dot commands:
  .sql     toggle printing the generated SQL
  .rows    toggle printing the returned rows
  .help    show help
  .quit    exit the session`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.ShowSQL, "show-sql", false, "Print the generated SQL")
	cmd.Flags().BoolVar(&opts.ShowRows, "show-rows", false, "Print the rows returned by the query")

	return cmd
}

func runREPL(cmd *cobra.Command, opts *AskOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	historyFile := filepath.Join(cmdCtx.Cfg.ProjectRoot, ".askql", "history")
	if err := ensureParentDir(historyFile); err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    replCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	session := &replSession{
		engine:   cmdCtx.Engine,
		renderer: cmdCtx.Renderer,
		logger:   cmdCtx.Logger,
		opts:     *opts,
	}

	cmdCtx.Renderer.Println("askql interactive session")
	cmdCtx.Renderer.Println("Type .help for commands, .quit to exit")
	cmdCtx.Renderer.Println("")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if session.handle(cmd.Context(), line) {
			break
		}
	}
	return nil
}

func replCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".sql"),
		readline.PcItem(".rows"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}

// replSession answers lines read by the REPL.
type replSession struct {
	engine   *engine.Engine
	renderer *output.Renderer
	logger   *slog.Logger
	opts     AskOptions
}

// handle processes one input line and reports whether the session should end.
func (s *replSession) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, ".") {
		return s.dotCommand(line)
	}

	report, err := s.engine.Ask(ctx, line)
	if err != nil {
		s.logger.Warn("question not fully answered",
			slog.String("request_id", report.RequestID),
			slog.String("error", err.Error()))
	}
	if err := renderReport(s.renderer, report, &s.opts); err != nil {
		s.renderer.Error(err.Error())
	}
	s.renderer.Println("")
	return false
}

func (s *replSession) dotCommand(line string) bool {
	switch strings.ToLower(strings.Fields(line)[0]) {
	case ".quit", ".exit":
		return true
	case ".help":
		s.renderer.Println("Commands:")
		s.renderer.Println("  .sql     toggle printing the generated SQL")
		s.renderer.Println("  .rows    toggle printing the returned rows")
		s.renderer.Println("  .help    show this help")
		s.renderer.Println("  .quit    exit the session")
	case ".sql":
		s.opts.ShowSQL = !s.opts.ShowSQL
		s.renderer.Muted(fmt.Sprintf("show sql: %t", s.opts.ShowSQL))
	case ".rows":
		s.opts.ShowRows = !s.opts.ShowRows
		s.renderer.Muted(fmt.Sprintf("show rows: %t", s.opts.ShowRows))
	default:
		s.renderer.Warning(fmt.Sprintf("unknown command %s (try .help)", line))
	}
	return false
}
