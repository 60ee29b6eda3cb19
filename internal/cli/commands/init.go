package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/askql/internal/cli/config"
	"github.com/leapstack-labs/askql/internal/cli/output"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new askql project",
		Long: `Initialize a new askql project with a configuration file.

This creates:
  - askql.yaml configuration file
  - .gitignore for the local store and database files

Use --example to also create the SFLIGHT demo: a schema description in
metadata/sflight.nt and sample data in seeds/sflight.sql.`,
		Example: `  # Initialize in current directory
  askql init

  # Initialize with the SFLIGHT demo
  askql init --example

  # Initialize in a new directory
  askql init my-project --example

  # Force overwrite existing files
  askql init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			mode := output.ModeAuto
			if cfg := config.GetCurrentConfig(); cfg != nil {
				mode = output.Mode(cfg.OutputFormat)
			}
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			name := "minimal"
			if example {
				name = "example"
			}
			return runInit(r, dir, name, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	cmd.Flags().BoolVar(&example, "example", false, "Create the SFLIGHT demo project")

	return cmd
}

func runInit(r *output.Renderer, dir, template string, force bool) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", config.ConfigFileName)
	}

	written, err := copyTemplate(template, dir, force)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{"directory": dir, "template": template, "files": written})
	}

	groups := groupTemplateFiles(written)
	for _, section := range []string{"config", "metadata", "seeds"} {
		if len(groups[section]) == 0 {
			continue
		}
		r.Header(2, sectionTitle(section))
		for _, f := range groups[section] {
			r.StatusLine(f, "success", "")
		}
		r.Println("")
	}

	r.Success("askql project initialized!")
	r.Println("")
	r.Println("Next steps:")
	if template == "example" {
		r.Println("  1. Run 'askql seed' to create the SFLIGHT tables")
		r.Println("  2. Run 'askql triples load metadata/sflight.nt' to load the schema description")
		r.Println("  3. Export ANTHROPIC_API_KEY and run 'askql doctor'")
		r.Println("  4. Run 'askql ask \"What is the total booking amount for carrier AA?\"'")
		return nil
	}
	r.Println("  1. Point target: at your database in askql.yaml")
	r.Println("  2. Configure metadata: (a SPARQL endpoint or 'askql triples load')")
	r.Println("  3. Export ANTHROPIC_API_KEY and run 'askql doctor'")
	return nil
}

func sectionTitle(section string) string {
	switch section {
	case "metadata":
		return "Metadata"
	case "seeds":
		return "Seeds"
	default:
		return "Configuration"
	}
}
