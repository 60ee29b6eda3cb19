// Package cli provides the command-line interface for askql.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/askql/internal/cli/commands"
	"github.com/leapstack-labs/askql/internal/cli/config"
	"github.com/leapstack-labs/askql/internal/cli/output"
	"github.com/leapstack-labs/askql/internal/metadata"
	"github.com/leapstack-labs/askql/pkg/adapter"
	"github.com/leapstack-labs/askql/pkg/synth"
)

var (
	cfgFile string
	envFlag string
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// rendererKey is used to store renderer in context.
type rendererKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "askql",
		Short: "askql - ask your database questions in plain language",
		Long: `askql answers natural-language questions about a SQL database.

It reads a machine-readable description of the schema (subject-predicate-object
triples), asks a language model which tables, columns, filters, joins and
groupings the question needs, builds a SQL query from them, runs it and phrases
the result as a short answer.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfigWithTarget(cfgFile, envFlag, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := NewLogger(cmd.ErrOrStderr(), cfg.LogFormat, cfg.Verbose)
			ctx := config.WithLogger(cmd.Context(), logger)
			ctx = context.WithValue(ctx, configKey{}, cfg)

			mode := output.Mode(cfg.OutputFormat)
			renderer := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
			ctx = context.WithValue(ctx, rendererKey{}, renderer)
			cmd.SetContext(ctx)

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", slog.String("path", configFile))
			}
			if envFlag != "" {
				logger.Debug("using environment", slog.String("env", envFlag))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Natural-language questions over SQL databases
`)

	// Global persistent flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./askql.yaml)")
	flags.StringVarP(&envFlag, "env", "e", "", "Environment to use (e.g., dev, staging, prod)")
	flags.BoolP("verbose", "v", false, "Verbose output (debug logging)")
	flags.StringP("output", "o", "", "Output format (auto|text|markdown|json|csv)")
	flags.String("log-format", "", "Log format (text|json)")
	flags.String("database", "", "Target database path or name")
	flags.String("target-type", "", "Target database type (duckdb|postgres|sqlite)")
	flags.String("source", "", "Metadata source (sparql|store)")
	flags.String("endpoint", "", "SPARQL endpoint URL")
	flags.String("prefix", "", "Metadata namespace prefix")
	flags.String("graph", "", "Named graph for metadata")
	flags.String("store", "", "Path to the local triple store")
	flags.String("model", "", "Language model name")
	flags.String("schema", "", "Schema qualifying bare table names")
	flags.String("group-match", "", "Grouping repair policy (substring|exact)")
	flags.Bool("report-errors", false, "Answer execution failures with their cause")

	completions := map[string][]string{
		"output":      {"auto", "text", "markdown", "json", "csv"},
		"log-format":  {"text", "json"},
		"target-type": adapter.ListAdapters(),
		"source":      {metadata.SourceSPARQL, metadata.SourceStore},
		"group-match": {synth.MatchSubstring, synth.MatchExact},
		"env":         {"dev", "staging", "prod"},
	}
	for name, values := range completions {
		_ = rootCmd.RegisterFlagCompletionFunc(name, fixedCompletion(values))
	}

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewAskCommand())
	rootCmd.AddCommand(commands.NewSQLCommand())
	rootCmd.AddCommand(commands.NewREPLCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewDoctorCommand())
	rootCmd.AddCommand(commands.NewTriplesCommand())
	rootCmd.AddCommand(commands.NewSeedCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

func fixedCompletion(values []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

// NewLogger builds the process logger. Verbose lowers the level to debug.
func NewLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return config.GetCurrentConfig()
}

// GetRenderer retrieves the renderer from the command context.
func GetRenderer(ctx context.Context) *output.Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*output.Renderer); ok {
		return r
	}
	// Return default renderer if none in context
	return output.NewRenderer(os.Stdout, os.Stderr, output.ModeAuto)
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for askql.

To load completions:

Bash:
  $ source <(askql completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ askql completion bash > /etc/bash_completion.d/askql
  # macOS:
  $ askql completion bash > $(brew --prefix)/etc/bash_completion.d/askql

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ askql completion zsh > "${fpath[1]}/_askql"

Fish:
  $ askql completion fish | source

  # To load completions for each session, execute once:
  $ askql completion fish > ~/.config/fish/completions/askql.fish

PowerShell:
  PS> askql completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
