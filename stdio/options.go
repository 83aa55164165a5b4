package stdio

import (
	"io"
	"log/slog"

	"github.com/ggoodman/mcp-runtime-go/internal/engine"
	"github.com/ggoodman/mcp-runtime-go/mcp"
	"github.com/ggoodman/mcp-runtime-go/sessions"
	"github.com/ggoodman/mcp-runtime-go/telemetry"
)

// Option customizes a Handler.
type Option func(*Handler)

// WithIO sets the reader and writer for the handler.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(h *Handler) {
		if r != nil {
			h.r = r
		}
		if w != nil {
			h.w = w
		}
	}
}

// WithLogger overrides the logger. It must not write to the output stream.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.l = l
		}
	}
}

// WithUserProvider overrides how the peer is identified.
func WithUserProvider(up UserProvider) Option {
	return func(h *Handler) {
		if up != nil {
			h.userProvider = up
		}
	}
}

// WithServerInfo sets the name and version reported by initialize.
func WithServerInfo(name, version string) Option {
	return func(h *Handler) {
		h.engOpts = append(h.engOpts, engine.WithServerInfo(mcp.ImplementationInfo{Name: name, Version: version}))
	}
}

// WithInstructions sets the usage instructions reported by initialize.
func WithInstructions(s string) Option {
	return func(h *Handler) { h.engOpts = append(h.engOpts, engine.WithInstructions(s)) }
}

// WithTelemetry routes lifecycle events to em.
func WithTelemetry(em *telemetry.Emitter) Option {
	return func(h *Handler) { h.engOpts = append(h.engOpts, engine.WithTelemetry(em)) }
}

// WithSessionManager replaces the default session manager.
func WithSessionManager(m *sessions.Manager) Option {
	return func(h *Handler) { h.sessions = m }
}
