package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"

	"github.com/ggoodman/mcp-runtime-go/internal/logctx"
	"github.com/ggoodman/mcp-runtime-go/telemetry/redissink"
)

// Config is read from the environment; flags override it.
type Config struct {
	Addr            string        `env:"MCP_ADDR,default=:8080"`
	Path            string        `env:"MCP_PATH,default=/mcp"`
	ServerName      string        `env:"MCP_SERVER_NAME,default=mcp-runtime-demo"`
	Instructions    string        `env:"MCP_INSTRUCTIONS"`
	LogLevel        string        `env:"MCP_LOG_LEVEL,default=info"`
	LogFormat       string        `env:"MCP_LOG_FORMAT,default=text"`
	ShutdownTimeout time.Duration `env:"MCP_SHUTDOWN_TIMEOUT,default=10s"`
	IssuedOnly      bool          `env:"MCP_ISSUED_SESSIONS_ONLY,default=false"`

	// RedisTelemetry enables publishing lifecycle events to a Redis stream.
	RedisTelemetry bool `env:"MCP_TELEMETRY_REDIS,default=false"`
	Telemetry      redissink.Config
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	case "text", "":
		h = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	return logctx.Wrap(slog.New(h)), nil
}
