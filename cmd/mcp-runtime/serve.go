package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ggoodman/mcp-runtime-go/examples/demo"
	"github.com/ggoodman/mcp-runtime-go/registry"
	"github.com/ggoodman/mcp-runtime-go/sessions"
	"github.com/ggoodman/mcp-runtime-go/streaminghttp"
	"github.com/ggoodman/mcp-runtime-go/telemetry"
	"github.com/ggoodman/mcp-runtime-go/telemetry/redissink"
)

var (
	serveAddr           string
	servePath           string
	serveRedisTelemetry bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the demo registry over MCP streaming HTTP",
	Long: `Serve the demo tools, prompts and resources on a single POST endpoint.

Configuration is read from MCP_* environment variables; flags override them.
With --redis-telemetry, lifecycle events are also appended to a Redis stream
that 'mcp-runtime events tail' can follow.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from MCP_ADDR or :8080)")
	serveCmd.Flags().StringVar(&servePath, "path", "", "Endpoint path (default from MCP_PATH or /mcp)")
	serveCmd.Flags().BoolVar(&serveRedisTelemetry, "redis-telemetry", false, "Publish telemetry to Redis (MCP_TELEMETRY_REDIS)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	if servePath != "" {
		cfg.Path = servePath
	}
	if cmd.Flags().Changed("redis-telemetry") {
		cfg.RedisTelemetry = serveRedisTelemetry
	}

	log, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks := []telemetry.Sink{telemetry.NewSlogSink(log, slog.LevelDebug)}
	if cfg.RedisTelemetry {
		rs, err := redissink.New(ctx, cfg.Telemetry, log)
		if err != nil {
			return fmt.Errorf("redis telemetry: %w", err)
		}
		defer rs.Close()
		async := telemetry.NewAsyncSink(rs, 1024, log)
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := async.Close(closeCtx); err != nil {
				log.Warn("telemetry.close.fail", slog.String("err", err.Error()), slog.Int64("dropped", async.Dropped()))
			}
		}()
		sinks = append(sinks, async)
	}

	reg, err := demo.New(registry.WithLogger(log))
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	mgrOpts := []sessions.Option{sessions.WithLogger(log)}
	if cfg.IssuedOnly {
		mgrOpts = append(mgrOpts, sessions.WithIssuedOnly())
	}

	h, err := streaminghttp.New(reg,
		streaminghttp.WithLogger(log),
		streaminghttp.WithPath(cfg.Path),
		streaminghttp.WithServerInfo(cfg.ServerName, Version),
		streaminghttp.WithInstructions(cfg.Instructions),
		streaminghttp.WithSessionManager(sessions.NewManager(mgrOpts...)),
		streaminghttp.WithTelemetry(telemetry.NewEmitter(telemetry.Multi(sinks...), telemetry.WithEmitterLogger(log))),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server.listen", slog.String("addr", cfg.Addr), slog.String("path", h.Path()), slog.String("version", Version))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("server.shutdown.start")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server.shutdown.ok")
	return nil
}
