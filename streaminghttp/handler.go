package streaminghttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elnormous/contenttype"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/ggoodman/mcp-runtime-go/internal/engine"
	"github.com/ggoodman/mcp-runtime-go/internal/jsonrpc"
	"github.com/ggoodman/mcp-runtime-go/internal/logctx"
	"github.com/ggoodman/mcp-runtime-go/mcp"
	"github.com/ggoodman/mcp-runtime-go/registry"
	"github.com/ggoodman/mcp-runtime-go/sessions"
	"github.com/ggoodman/mcp-runtime-go/telemetry"
)

var _ http.Handler = (*Handler)(nil)

// DefaultMaxBodyBytes caps the size of a POSTed JSON-RPC message.
const DefaultMaxBodyBytes = 1_000_000

var jsonMediaType = contenttype.NewMediaType("application/json")

const (
	mcpSessionIDHeader = "Mcp-Session-Id"
	jsonContentType    = "application/json; charset=utf-8"
)

// Connection is what a ConnectionInitFunc derives from a raw HTTP request.
type Connection struct {
	// SessionID is the client supplied session id. Empty means none.
	SessionID string
	// Private seeds the per-request session store visible to handlers.
	Private map[string]any
}

// ConnectionInitFunc maps an incoming request onto a Connection. Returning an
// error rejects the request with 400 before the engine runs.
type ConnectionInitFunc func(r *http.Request) (Connection, error)

// HeaderConnection is the default ConnectionInitFunc. It reads the session id
// from the Mcp-Session-Id header and carries no private data.
func HeaderConnection(r *http.Request) (Connection, error) {
	return Connection{SessionID: strings.TrimSpace(r.Header.Get(mcpSessionIDHeader))}, nil
}

// writeJSONError emits a transport-level rejection as a JSON-RPC error with
// a null id, since the request was never decoded.
func writeJSONError(w http.ResponseWriter, status int, code jsonrpc.ErrorCode, msg string) {
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonrpc.NewErrorResponse(nil, code, msg, nil))
}

// Option configures a Handler.
type Option func(*config)

type config struct {
	logger       *slog.Logger
	path         string
	maxBodyBytes int64
	info         mcp.ImplementationInfo
	instructions string
	emitter      *telemetry.Emitter
	sessions     *sessions.Manager
	connInit     ConnectionInitFunc
}

// WithLogger sets the logger used by the handler and the engine behind it.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithPath sets the route the MCP endpoint is mounted on. Defaults to "/mcp".
func WithPath(path string) Option {
	return func(c *config) { c.path = path }
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(c *config) { c.maxBodyBytes = n }
}

// WithServerInfo sets the name and version reported by initialize.
func WithServerInfo(name, version string) Option {
	return func(c *config) { c.info = mcp.ImplementationInfo{Name: name, Version: version} }
}

// WithInstructions sets the usage instructions reported by initialize.
func WithInstructions(s string) Option {
	return func(c *config) { c.instructions = s }
}

// WithTelemetry routes lifecycle events to em.
func WithTelemetry(em *telemetry.Emitter) Option {
	return func(c *config) { c.emitter = em }
}

// WithSessionManager replaces the default session manager, for example to
// share a level table or to enable sessions.WithIssuedOnly.
func WithSessionManager(m *sessions.Manager) Option {
	return func(c *config) { c.sessions = m }
}

// WithConnectionInit installs a hook that derives the session id and private
// data from each request.
func WithConnectionInit(fn ConnectionInitFunc) Option {
	return func(c *config) { c.connInit = fn }
}

// Handler implements the request/response subset of the MCP streamable HTTP
// transport: one JSON-RPC message per POST, one JSON reply per response.
type Handler struct {
	router   chi.Router
	log      *slog.Logger
	eng      *engine.Engine
	path     string
	maxBody  int64
	connInit ConnectionInitFunc
}

// New constructs a Handler serving reg.
func New(reg *registry.Registry, opts ...Option) (*Handler, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry is required")
	}

	cfg := &config{
		logger:       slog.Default(),
		path:         "/mcp",
		maxBodyBytes: DefaultMaxBodyBytes,
		connInit:     HeaderConnection,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.path == "" || cfg.path[0] != '/' {
		return nil, fmt.Errorf("path must start with '/', got %q", cfg.path)
	}
	if cfg.maxBodyBytes <= 0 {
		return nil, fmt.Errorf("max body bytes must be positive, got %d", cfg.maxBodyBytes)
	}

	log := logctx.Wrap(cfg.logger)
	if cfg.sessions == nil {
		cfg.sessions = sessions.NewManager(sessions.WithLogger(log))
	}

	engOpts := []engine.EngineOption{
		engine.WithLogger(log),
		engine.WithInstructions(cfg.instructions),
		engine.WithTelemetry(cfg.emitter),
	}
	if cfg.info.Name != "" {
		engOpts = append(engOpts, engine.WithServerInfo(cfg.info))
	}

	h := &Handler{
		log:      log,
		eng:      engine.NewEngine(reg, cfg.sessions, engOpts...),
		path:     cfg.path,
		maxBody:  cfg.maxBodyBytes,
		connInit: cfg.connInit,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post(h.path, h.handlePost)
	r.Get(h.path, h.handleMethodNotAllowed)
	r.Delete(h.path, h.handleMethodNotAllowed)
	r.MethodNotAllowed(h.handleMethodNotAllowed)
	h.router = r
	return h, nil
}

// Path is the route the endpoint is served on.
func (h *Handler) Path() string { return h.path }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r.WithContext(logctx.WithRequestData(r.Context(), &logctx.RequestData{
		RequestID:  uuid.NewString(),
		Method:     r.Method,
		UserAgent:  r.UserAgent(),
		RemoteAddr: r.RemoteAddr,
		Path:       r.URL.Path,
	})))
}

// handleMethodNotAllowed rejects GET and DELETE: this transport offers no
// server-initiated stream and no explicit session termination.
func (h *Handler) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.log.InfoContext(r.Context(), "http.method.not_allowed")
	w.Header().Set("Allow", http.MethodPost)
	writeJSONError(w, http.StatusMethodNotAllowed, jsonrpc.ErrorCodeInvalidRequest, "method not allowed")
}

// handlePost reads one JSON-RPC message and hands it to the engine.
func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	h.log.DebugContext(ctx, "http.post.start")

	ctype, err := contenttype.GetMediaType(r)
	if err != nil || !ctype.Matches(jsonMediaType) {
		writeJSONError(w, http.StatusUnsupportedMediaType, jsonrpc.ErrorCodeInvalidRequest, "content-type must be application/json")
		h.log.WarnContext(ctx, "content_type.unsupported")
		return
	}

	conn, err := h.connInit(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, jsonrpc.ErrorCodeInvalidRequest, "connection rejected")
		h.log.WarnContext(ctx, "connection.init.fail", slog.String("err", err.Error()))
		return
	}

	in := engine.Inbound{SessionID: conn.SessionID, Private: conn.Private}
	in.Body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, jsonrpc.ErrorCodeInvalidRequest, fmt.Sprintf("request body exceeds %d bytes", h.maxBody))
			h.log.WarnContext(ctx, "http.post.too_large", slog.Int64("limit", tooLarge.Limit))
			return
		}
		in.DecodeErr = fmt.Errorf("reading request body: %w", err)
	}

	reply := h.eng.Handle(ctx, in)

	if reply.SessionID != "" {
		w.Header().Set(mcpSessionIDHeader, reply.SessionID)
	}
	if len(reply.Body) == 0 {
		w.WriteHeader(reply.Status)
	} else {
		w.Header().Set("Content-Type", jsonContentType)
		w.WriteHeader(reply.Status)
		if _, err := w.Write(reply.Body); err != nil {
			h.log.WarnContext(ctx, "http.post.write.fail", slog.String("err", err.Error()))
		}
	}
	h.log.InfoContext(ctx, "http.post.ok", slog.Int("status", reply.Status), slog.Duration("dur", time.Since(start)))
}
