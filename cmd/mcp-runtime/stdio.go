package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ggoodman/mcp-runtime-go/examples/demo"
	"github.com/ggoodman/mcp-runtime-go/registry"
	"github.com/ggoodman/mcp-runtime-go/stdio"
	"github.com/ggoodman/mcp-runtime-go/telemetry"
)

var stdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Serve the demo registry over stdin/stdout",
	Long: `Serve the demo registry to a single client speaking newline-delimited
JSON-RPC on stdin/stdout. Logs go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		reg, err := demo.New(registry.WithLogger(log))
		if err != nil {
			return fmt.Errorf("build registry: %w", err)
		}
		h := stdio.NewHandler(reg,
			stdio.WithIO(cmd.InOrStdin(), cmd.OutOrStdout()),
			stdio.WithLogger(log),
			stdio.WithServerInfo(cfg.ServerName, Version),
			stdio.WithInstructions(cfg.Instructions),
			stdio.WithTelemetry(telemetry.NewEmitter(telemetry.NewSlogSink(log, slog.LevelDebug), telemetry.WithEmitterLogger(log))),
		)
		return h.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(stdioCmd)
}
