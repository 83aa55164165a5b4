package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/ggoodman/mcp-runtime-go/internal/jsonrpc"
	"github.com/ggoodman/mcp-runtime-go/internal/logctx"
	"github.com/ggoodman/mcp-runtime-go/mcp"
	"github.com/ggoodman/mcp-runtime-go/registry"
	"github.com/ggoodman/mcp-runtime-go/sessions"
	"github.com/ggoodman/mcp-runtime-go/telemetry"
)

const msgResourceNotFound = "Resource not found"

var errResourceNotFound = errors.New("resource not found")

// decodeParams unmarshals optional params. Absent params leave dst untouched.
func decodeParams(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func (e *Engine) event(name string, sess *sessions.Session, req *jsonrpc.Request, meta map[string]any) telemetry.Event {
	return telemetry.Event{
		Name:      name,
		Method:    req.Method,
		SessionID: sess.ID(),
		RequestID: req.ID.String(),
		Metadata:  meta,
	}
}

func (e *Engine) handleInitialize(ctx context.Context, req *jsonrpc.Request, in Inbound) routed {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method))
	span := e.telemetry.Start(ctx, telemetry.Event{Name: telemetry.EventSessionInit, Method: req.Method, RequestID: req.ID.String()})

	var params mcp.InitializeRequest
	if err := decodeParams(req.Params, &params); err != nil {
		log.InfoContext(ctx, "session.initialize.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		span.Fail(ctx, err, nil)
		return routed{res: jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil)}
	}

	sessionID, err := e.sessions.NewSessionID(ctx)
	if err != nil {
		log.ErrorContext(ctx, "session.initialize.fail", slog.String("err", err.Error()))
		span.Fail(ctx, err, nil)
		return routed{res: jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil)}
	}
	ctx = logctx.WithSessionData(ctx, &logctx.SessionData{SessionID: sessionID})

	res, err := jsonrpc.NewResultResponse(req.ID, &mcp.InitializeResult{
		Capabilities: mcp.ServerCapabilities{
			Completions: &struct{}{},
			Logging:     &struct{}{},
			Prompts:     &mcp.ListChangedCapability{ListChanged: true},
			Resources:   &mcp.ListChangedCapability{ListChanged: true},
			Tools:       &mcp.ListChangedCapability{ListChanged: true},
		},
		ProtocolVersion: mcp.LatestProtocolVersion,
		ServerInfo:      e.info,
		Instructions:    e.instructions,
	})
	if err != nil {
		log.ErrorContext(ctx, "session.initialize.fail", slog.String("err", err.Error()))
		span.Fail(ctx, err, nil)
		return routed{res: jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil)}
	}

	log.InfoContext(ctx, "session.initialize.ok",
		slog.String("client_name", params.ClientInfo.Name),
		slog.String("client_version", params.ClientInfo.Version),
		slog.String("client_protocol_version", params.ProtocolVersion),
		slog.Int64("dur_ms", time.Since(start).Milliseconds()),
	)
	span.Stop(ctx, map[string]any{"session_id": sessionID})
	return routed{res: res, sessionID: sessionID}
}

func (e *Engine) handleInitialized(ctx context.Context, req *jsonrpc.Request, in Inbound) routed {
	span := e.telemetry.Start(ctx, telemetry.Event{Name: telemetry.EventSessionInitialized, Method: req.Method, SessionID: in.SessionID})
	e.log.InfoContext(ctx, "session.initialized.ok", slog.String("method", req.Method))
	span.Stop(ctx, nil)
	return routed{accepted: true}
}

func (e *Engine) handleSetLoggingLevel(ctx context.Context, sess *sessions.Session, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	span := e.telemetry.Start(ctx, e.event(telemetry.EventLogging, sess, req, nil))

	var params mcp.SetLevelRequest
	if err := decodeParams(req.Params, &params); err != nil {
		span.Fail(ctx, err, nil)
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
	}
	if err := e.sessions.SetLogLevel(ctx, sess.ID(), params.Level); err != nil {
		span.Fail(ctx, err, map[string]any{"level": string(params.Level)})
		if errors.Is(err, sessions.ErrInvalidLoggingLevel) {
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "Invalid log level", nil), nil
		}
		return nil, err
	}

	span.Stop(ctx, map[string]any{"level": string(params.Level)})
	return jsonrpc.NewResultResponse(req.ID, &mcp.EmptyResult{})
}

func (e *Engine) handleToolCall(ctx context.Context, sess *sessions.Session, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	log := e.log.With(slog.String("method", req.Method))

	var params mcp.CallToolRequest
	if err := decodeParams(req.Params, &params); err != nil || params.Name == "" {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", "missing or malformed tool name"))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
	}

	meta := map[string]any{"tool": params.Name}
	span := e.telemetry.Start(ctx, e.event(telemetry.EventToolCall, sess, req, meta))

	res, err := e.reg.CallTool(ctx, params.Name, params.Arguments)
	if err == nil {
		span.Stop(ctx, map[string]any{"is_error": res.IsError})
		return jsonrpc.NewResultResponse(req.ID, res)
	}
	span.Fail(ctx, err, nil)

	var (
		notFound   *registry.NotFoundError
		invalid    *registry.InvalidArgumentsError
		failed     *registry.ExecutionFailedError
		unexpected *registry.UnexpectedResultError
	)
	switch {
	case errors.As(err, &notFound):
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, notFound.Error(), nil), nil
	case errors.As(err, &invalid), errors.As(err, &failed):
		// Tool-level failure: a successful JSON-RPC result flagged isError.
		return jsonrpc.NewResultResponse(req.ID, &mcp.CallToolResult{
			Content: []mcp.ContentBlock{mcp.TextContent(err.Error())},
			IsError: true,
		})
	case errors.As(err, &unexpected):
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, unexpected.Error(), nil), nil
	default:
		return nil, err
	}
}

func (e *Engine) handlePromptsGet(ctx context.Context, sess *sessions.Session, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	var params mcp.GetPromptRequest
	if err := decodeParams(req.Params, &params); err != nil || params.Name == "" {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
	}

	span := e.telemetry.Start(ctx, e.event(telemetry.EventPromptGet, sess, req, map[string]any{"prompt": params.Name}))
	res, err := e.reg.GetPrompt(ctx, params.Name, params.Arguments)
	if err != nil {
		span.Fail(ctx, err, nil)
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, err.Error(), nil), nil
	}
	span.Stop(ctx, map[string]any{"messages": len(res.Messages)})
	return jsonrpc.NewResultResponse(req.ID, res)
}

func (e *Engine) handleResourcesRead(ctx context.Context, sess *sessions.Session, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	var params mcp.ReadResourceRequest
	if err := decodeParams(req.Params, &params); err != nil || params.URI == "" {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
	}

	span := e.telemetry.Start(ctx, e.event(telemetry.EventResourceRead, sess, req, map[string]any{"uri": params.URI}))
	name, vars, err := e.reg.ResolveResource(params.URI)
	if err != nil {
		// Unresolved addresses report a zero duration rather than a measured one.
		span.FailWithDuration(ctx, errResourceNotFound, 0, nil)
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, msgResourceNotFound, nil), nil
	}
	ctx = logctx.WithCapabilityData(ctx, &logctx.CapabilityData{Kind: registry.KindResource, Name: name})

	res, err := e.reg.ReadResource(ctx, name, params.URI, vars)
	if err != nil {
		span.Fail(ctx, err, map[string]any{"resource": name})
		var notFound *registry.NotFoundError
		if errors.As(err, &notFound) {
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, msgResourceNotFound, nil), nil
		}
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, err.Error(), nil), nil
	}
	span.Stop(ctx, map[string]any{"resource": name})
	return jsonrpc.NewResultResponse(req.ID, res)
}

func (e *Engine) handleCompletionComplete(ctx context.Context, sess *sessions.Session, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	var params mcp.CompleteRequest
	if err := decodeParams(req.Params, &params); err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
	}

	span := e.telemetry.Start(ctx, e.event(telemetry.EventCompletion, sess, req, map[string]any{"ref_type": params.Ref.Type}))

	var (
		completion mcp.Completion
		err        error
	)
	switch {
	case params.Ref.Type == mcp.RefTypePrompt && params.Ref.Name != "":
		completion, err = e.reg.CompletePrompt(ctx, params.Ref.Name, params.Argument)
	case params.Ref.Type == mcp.RefTypeResource && params.Ref.URI != "":
		name, resolveErr := e.reg.ResolveCompletionRef(params.Ref.URI)
		if resolveErr != nil {
			span.Fail(ctx, errResourceNotFound, nil)
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, msgResourceNotFound, nil), nil
		}
		completion, err = e.reg.CompleteResource(ctx, name, params.Argument)
	default:
		span.Fail(ctx, errors.New("unsupported reference type"), nil)
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "Unsupported reference type", nil), nil
	}
	if err != nil {
		span.Fail(ctx, err, nil)
		var notFound *registry.NotFoundError
		if errors.As(err, &notFound) {
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, notFound.Error(), nil), nil
		}
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, err.Error(), nil), nil
	}

	span.Stop(ctx, map[string]any{"values": len(completion.Values)})
	return jsonrpc.NewResultResponse(req.ID, &mcp.CompleteResult{Completion: completion})
}
