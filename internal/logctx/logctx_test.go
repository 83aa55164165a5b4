package logctx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_AddsContextGroups(t *testing.T) {
	var buf bytes.Buffer
	log := Wrap(slog.New(slog.NewJSONHandler(&buf, nil))).With(slog.String("component", "test"))

	ctx := WithRequestData(context.Background(), &RequestData{RequestID: "r1", Method: "POST", Path: "/mcp"})
	ctx = WithSessionData(ctx, &SessionData{SessionID: "s1"})
	ctx = WithRPCMessage(ctx, &RPCMessage{Method: "tools/call", ID: "7", Type: "request"})
	ctx = WithCapabilityData(ctx, &CapabilityData{Kind: "tool", Name: "echo"})
	log.InfoContext(ctx, "hello")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "test", rec["component"])
	assert.Equal(t, "r1", rec["req"].(map[string]any)["id"])
	assert.Equal(t, "s1", rec["sess"].(map[string]any)["id"])
	assert.Equal(t, "tools/call", rec["rpc"].(map[string]any)["method"])
	assert.Equal(t, map[string]any{"kind": "tool", "name": "echo"}, rec["cap"])

	rd, ok := RequestDataFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "r1", rd.RequestID)
}

func TestHandler_NoContext(t *testing.T) {
	var buf bytes.Buffer
	log := Wrap(slog.New(slog.NewJSONHandler(&buf, nil)))
	log.Info("plain")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.NotContains(t, rec, "req")
	assert.NotContains(t, rec, "sess")
}

func TestWrap_Idempotent(t *testing.T) {
	log := Wrap(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	assert.Same(t, log, Wrap(log))
}
