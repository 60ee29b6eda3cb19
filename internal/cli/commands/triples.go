package commands

import (
	"fmt"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/askql/internal/cli/output"
	"github.com/leapstack-labs/askql/internal/metadata"
	"github.com/leapstack-labs/askql/pkg/core"
)

// NewTriplesCommand creates the triples command group.
func NewTriplesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "triples",
		Short: "Manage the local metadata triple store",
		Long: `Load and inspect the schema triples held in the local store.

The store is used when metadata.source is "store". Files ending in .nt are
read as N-Triples, files ending in .yaml or .yml as a list of {s, p, o}.`,
	}

	cmd.AddCommand(newTriplesLoadCommand())
	cmd.AddCommand(newTriplesListCommand())

	return cmd
}

// LoadResult reports one loaded file.
type LoadResult struct {
	File     string `json:"file"`
	Triples  int    `json:"triples"`
	Inserted int    `json:"inserted"`
}

// LoadOutput is the JSON output for triples load.
type LoadOutput struct {
	Graph    string       `json:"graph"`
	Removed  int          `json:"removed"`
	Files    []LoadResult `json:"files"`
	Inserted int          `json:"inserted"`
	Total    int          `json:"total"`
}

func newTriplesLoadCommand() *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "load FILE...",
		Short: "Load triples from N-Triples or YAML files",
		Example: `  # Load the flight schema description
  askql triples load metadata/sflight.nt

  # Replace a named graph
  askql triples load --graph sflight --replace metadata/sflight.nt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTriplesLoad(cmd, args, replace)
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Delete the graph's existing triples first")

	return cmd
}

func runTriplesLoad(cmd *cobra.Command, files []string, replace bool) error {
	cmdCtx, err := NewCommandContextWithoutEngine(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	store, err := openStore(ctx, cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	out := &LoadOutput{Graph: store.Graph}
	if replace {
		removed, err := store.DeleteGraph(ctx, store.Graph)
		if err != nil {
			return err
		}
		out.Removed = removed
	}

	for _, file := range files {
		triples, err := metadata.LoadFile(file)
		if err != nil {
			return err
		}
		inserted, err := store.Insert(ctx, store.Graph, triples)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
		cmdCtx.Logger.Debug("triples loaded",
			slog.String("file", file),
			slog.Int("triples", len(triples)),
			slog.Int("inserted", inserted))
		out.Files = append(out.Files, LoadResult{File: file, Triples: len(triples), Inserted: inserted})
		out.Inserted += inserted
	}

	total, err := store.Count(ctx)
	if err != nil {
		return err
	}
	out.Total = total

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	if out.Removed > 0 {
		r.Muted(fmt.Sprintf("removed %d triples", out.Removed))
	}
	for _, f := range out.Files {
		r.StatusLine(f.File, "success", fmt.Sprintf("%d triples, %d new", f.Triples, f.Inserted))
	}
	r.Println("")
	r.Success(fmt.Sprintf("Loaded %d triples (%d in store)", out.Inserted, out.Total))
	return nil
}

func newTriplesListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored triples",
		Long: `List the stored triples whose subject starts with the metadata prefix.
Use the global --prefix flag to list another namespace.`,
		Example: `  # Everything under the configured prefix
  askql triples list

  # Every stored triple
  askql triples list --prefix ""`,
		Args: cobra.NoArgs,
		RunE: runTriplesList,
	}

	return cmd
}

func runTriplesList(cmd *cobra.Command, _ []string) error {
	cmdCtx, err := NewCommandContextWithoutEngine(cmd)
	if err != nil {
		return err
	}
	prefix := cmdCtx.Cfg.Metadata.Prefix
	ctx := cmd.Context()

	store, err := openStore(ctx, cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	triples, err := store.Retrieve(ctx, prefix)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		if triples == nil {
			triples = []core.Triple{}
		}
		return r.JSON(triples)
	case output.ModeCSV:
		return r.ResultSet(triplesResultSet(triples))
	case output.ModeMarkdown:
		r.Println(triplesTable(triples).RenderMarkdown())
	default:
		t := triplesTable(triples)
		t.SetStyle(table.StyleLight)
		r.Println(t.Render())
	}
	r.Println("")
	r.Muted(fmt.Sprintf("(%d triples)", len(triples)))
	return nil
}

func triplesTable(triples []core.Triple) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Subject", "Predicate", "Object"})
	for _, tr := range triples {
		t.AppendRow(table.Row{tr.Subject, tr.Predicate, tr.Object})
	}
	return t
}

func triplesResultSet(triples []core.Triple) core.ResultSet {
	rs := core.ResultSet{Columns: []string{"subject", "predicate", "object"}}
	for _, tr := range triples {
		rs.Rows = append(rs.Rows, core.Row{"subject": tr.Subject, "predicate": tr.Predicate, "object": tr.Object})
	}
	return rs
}
