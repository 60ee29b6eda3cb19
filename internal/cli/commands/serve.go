package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/askql/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the question-answering API over HTTP",
		Long: `Start an HTTP server exposing the engine as a JSON API.

Endpoints:
  POST /api/ask   {"question": "..."}  answer a question
  POST /api/sql   {"question": "..."}  preview the SQL for a question
  GET  /healthz                        liveness probe

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Example: `  # Serve on the configured address (server.addr)
  askql serve

  # Serve on another port
  askql serve --addr :9090`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default: server.addr)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	addr := cmdCtx.Cfg.Server.Addr
	if cmd.Flags().Changed("addr") {
		addr, _ = cmd.Flags().GetString("addr")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{
		Engine:          cmdCtx.Engine,
		Addr:            addr,
		ShutdownTimeout: cmdCtx.Cfg.Server.ShutdownTimeout,
		Logger:          cmdCtx.Logger,
	})
	cmdCtx.Renderer.Muted(fmt.Sprintf("Serving on %s (Ctrl+C to stop)", addr))
	return srv.Serve(ctx)
}
