package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ggoodman/mcp-runtime-go/internal/jsonrpc"
	"github.com/ggoodman/mcp-runtime-go/internal/logctx"
	"github.com/ggoodman/mcp-runtime-go/mcp"
	"github.com/ggoodman/mcp-runtime-go/registry"
	"github.com/ggoodman/mcp-runtime-go/sessions"
	"github.com/ggoodman/mcp-runtime-go/telemetry"
)

// Engine is the protocol state machine of an MCP server. It decodes one
// JSON-RPC envelope at a time, enforces session applicability, routes the
// method to the capability registry and encodes the reply. It keeps no
// per-request state; the session manager's level table is the only state
// shared across requests. Engine is transport-agnostic and safe for
// concurrent use.
type Engine struct {
	reg       *registry.Registry
	sessions  *sessions.Manager
	telemetry *telemetry.Emitter
	log       *slog.Logger

	info         mcp.ImplementationInfo
	instructions string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger for the Engine.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithServerInfo sets the identity reported by initialize.
func WithServerInfo(info mcp.ImplementationInfo) EngineOption {
	return func(e *Engine) { e.info = info }
}

// WithInstructions sets the optional usage instructions reported by initialize.
func WithInstructions(s string) EngineOption {
	return func(e *Engine) { e.instructions = s }
}

// WithTelemetry sets the emitter receiving lifecycle events.
func WithTelemetry(em *telemetry.Emitter) EngineOption {
	return func(e *Engine) {
		if em != nil {
			e.telemetry = em
		}
	}
}

// NewEngine constructs an Engine serving reg with session ids managed by mgr.
func NewEngine(reg *registry.Registry, mgr *sessions.Manager, opts ...EngineOption) *Engine {
	e := &Engine{
		reg:       reg,
		sessions:  mgr,
		telemetry: telemetry.NewEmitter(nil),
		log:       slog.Default(),
		info:      mcp.ImplementationInfo{Name: "mcp-runtime-go", Version: "dev"},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Inbound is one request as received by a transport.
type Inbound struct {
	// Body is the raw JSON-RPC envelope.
	Body []byte
	// DecodeErr reports a failure upstream of the engine, such as an
	// unreadable or oversized body. When set, Body is ignored.
	DecodeErr error
	// SessionID is the client supplied session id, if any.
	SessionID string
	// Private seeds the session handle's key/value store.
	Private map[string]any
}

// Reply is what the transport sends back.
type Reply struct {
	// Status is the HTTP status mapped from the outcome.
	Status int
	// Body is the encoded JSON-RPC response; nil when nothing is sent.
	Body []byte
	// SessionID is set when initialize issued a new session.
	SessionID string
}

// routed is the outcome of one method handler.
type routed struct {
	res       *jsonrpc.Response
	accepted  bool
	sessionID string
}

// Handle runs the request pipeline and never fails: every outcome, including
// internal faults, is expressed as a well-formed Reply.
func (e *Engine) Handle(ctx context.Context, in Inbound) Reply {
	start := time.Now()

	if in.DecodeErr != nil {
		e.log.InfoContext(ctx, "engine.decode.fail", slog.String("err", in.DecodeErr.Error()))
		e.telemetry.Emit(ctx, telemetry.Event{Name: telemetry.EventRequest, Phase: telemetry.PhaseException, Error: in.DecodeErr.Error()})
		return e.encode(ctx, jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeParseError, "parse error", nil), false)
	}

	req, err := jsonrpc.DecodeRequest(in.Body)
	if err != nil {
		var rpcErr *jsonrpc.Error
		if !errors.As(err, &rpcErr) {
			rpcErr = jsonrpc.NewError(jsonrpc.ErrorCodeParseError, "parse error", nil)
		}
		e.log.InfoContext(ctx, "engine.decode.invalid", slog.String("err", rpcErr.Message), slog.Int("code", int(rpcErr.Code)))
		e.telemetry.Emit(ctx, telemetry.Event{Name: telemetry.EventRequest, Phase: telemetry.PhaseException, Error: rpcErr.Message})
		return e.encode(ctx, &jsonrpc.Response{JSONRPCVersion: jsonrpc.ProtocolVersion, Error: rpcErr}, false)
	}

	msgType := "request"
	if req.IsNotification() {
		msgType = "notification"
	}
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: req.Method, ID: req.ID.String(), Type: msgType})
	log := e.log.With(slog.String("method", req.Method))

	span := e.telemetry.Start(ctx, telemetry.Event{
		Name:      telemetry.EventRequest,
		Method:    req.Method,
		SessionID: in.SessionID,
		RequestID: req.ID.String(),
	})

	out := e.route(ctx, req, in)
	reply := e.encode(ctx, out.res, req.IsNotification() || out.accepted)
	if out.accepted && reply.Status == http.StatusOK {
		reply.Status = http.StatusAccepted
	}
	reply.SessionID = out.sessionID

	if out.res != nil && out.res.Error != nil {
		log.InfoContext(ctx, "engine.handle_request.fail",
			slog.Int("code", int(out.res.Error.Code)),
			slog.String("err", out.res.Error.Message),
			slog.Int64("dur_ms", time.Since(start).Milliseconds()),
		)
		span.Fail(ctx, out.res.Error, map[string]any{"status": reply.Status})
	} else {
		log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		span.Stop(ctx, map[string]any{"status": reply.Status})
	}
	return reply
}

// route enforces session applicability and dispatches by method.
func (e *Engine) route(ctx context.Context, req *jsonrpc.Request, in Inbound) routed {
	method := mcp.Method(req.Method)

	switch method {
	case mcp.InitializeMethod:
		return e.handleInitialize(ctx, req, in)
	case mcp.InitializedNotificationMethod:
		return e.handleInitialized(ctx, req, in)
	}

	if err := e.sessions.Validate(in.SessionID); err != nil {
		msg := "Invalid session ID"
		if errors.Is(err, sessions.ErrSessionRequired) {
			msg = "Session ID required"
		}
		e.log.InfoContext(ctx, "engine.session.invalid", slog.String("err", err.Error()))
		return routed{res: jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, msg, nil)}
	}

	sess := e.sessions.Open(in.SessionID, in.Private)
	ctx = sessions.WithSession(ctx, sess)
	ctx = logctx.WithSessionData(ctx, &logctx.SessionData{SessionID: sess.ID()})

	var (
		res *jsonrpc.Response
		err error
	)
	switch method {
	case mcp.PingMethod:
		res, err = jsonrpc.NewResultResponse(req.ID, &mcp.EmptyResult{})
	case mcp.LoggingSetLevelMethod:
		res, err = e.handleSetLoggingLevel(ctx, sess, req)
	case mcp.ToolsListMethod:
		res, err = jsonrpc.NewResultResponse(req.ID, &mcp.ListToolsResult{Tools: e.reg.ListTools()})
	case mcp.ToolsCallMethod:
		res, err = e.handleToolCall(ctx, sess, req)
	case mcp.PromptsListMethod:
		res, err = jsonrpc.NewResultResponse(req.ID, &mcp.ListPromptsResult{Prompts: e.reg.ListPrompts()})
	case mcp.PromptsGetMethod:
		res, err = e.handlePromptsGet(ctx, sess, req)
	case mcp.ResourcesListMethod:
		res, err = jsonrpc.NewResultResponse(req.ID, &mcp.ListResourcesResult{Resources: e.reg.ListResources()})
	case mcp.ResourcesTemplatesListMethod:
		res, err = jsonrpc.NewResultResponse(req.ID, &mcp.ListResourceTemplatesResult{ResourceTemplates: e.reg.ListResourceTemplates()})
	case mcp.ResourcesReadMethod:
		res, err = e.handleResourcesRead(ctx, sess, req)
	case mcp.CompletionCompleteMethod:
		res, err = e.handleCompletionComplete(ctx, sess, req)
	default:
		if strings.HasPrefix(req.Method, mcp.NotificationPrefix) {
			e.log.DebugContext(ctx, "engine.handle_notification.ignored")
			return routed{accepted: true}
		}
		res = jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "Method not found: "+req.Method, nil)
	}
	if err != nil {
		e.log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		res = jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil)
	}
	return routed{res: res}
}

// encode renders res into a Reply. Notifications never carry a body.
func (e *Engine) encode(ctx context.Context, res *jsonrpc.Response, bodiless bool) Reply {
	if res == nil {
		return Reply{Status: http.StatusAccepted}
	}
	status := http.StatusOK
	if res.Error != nil {
		status = res.Error.Code.HTTPStatus()
	}
	if bodiless {
		if res.Error == nil {
			status = http.StatusAccepted
		}
		return Reply{Status: status}
	}

	body, err := json.Marshal(res)
	if err != nil {
		e.log.ErrorContext(ctx, "engine.encode.fail", slog.String("err", err.Error()))
		body, _ = json.Marshal(jsonrpc.NewErrorResponse(res.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil))
		status = http.StatusInternalServerError
	}
	return Reply{Status: status, Body: body}
}
