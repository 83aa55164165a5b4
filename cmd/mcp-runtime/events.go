package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ggoodman/mcp-runtime-go/telemetry"
	"github.com/ggoodman/mcp-runtime-go/telemetry/redissink"
)

var tailFrom string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect telemetry published to Redis",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow the telemetry stream, printing one JSON event per line",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rs, err := redissink.New(ctx, cfg.Telemetry, log)
		if err != nil {
			return err
		}
		defer rs.Close()

		enc := json.NewEncoder(cmd.OutOrStdout())
		err = rs.Tail(ctx, tailFrom, func(_ string, ev telemetry.Event) error {
			return enc.Encode(ev)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	eventsTailCmd.Flags().StringVar(&tailFrom, "from", "", "Stream entry id to start after (default: new entries only; 0 for all)")
	eventsCmd.AddCommand(eventsTailCmd)
}
