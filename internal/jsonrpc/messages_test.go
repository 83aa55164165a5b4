package jsonrpc

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantCode ErrorCode
		wantNote bool
	}{
		{name: "request", in: `{"jsonrpc":"2.0","id":1,"method":"ping"}`},
		{name: "string id", in: `{"jsonrpc":"2.0","id":"abc","method":"ping","params":{}}`},
		{name: "notification", in: `{"jsonrpc":"2.0","method":"notifications/initialized"}`, wantNote: true},
		{name: "null params", in: `{"jsonrpc":"2.0","id":1,"method":"ping","params":null}`},
		{name: "empty", in: "  ", wantCode: ErrorCodeParseError},
		{name: "truncated", in: `{"jsonrpc":`, wantCode: ErrorCodeParseError},
		{name: "batch", in: `[]`, wantCode: ErrorCodeInvalidRequest},
		{name: "scalar", in: `42`, wantCode: ErrorCodeInvalidRequest},
		{name: "version", in: `{"jsonrpc":"1.0","id":1,"method":"ping"}`, wantCode: ErrorCodeInvalidRequest},
		{name: "no method", in: `{"jsonrpc":"2.0","id":1}`, wantCode: ErrorCodeInvalidRequest},
		{name: "scalar params", in: `{"jsonrpc":"2.0","id":1,"method":"ping","params":3}`, wantCode: ErrorCodeInvalidRequest},
		{name: "bool id", in: `{"jsonrpc":"2.0","id":true,"method":"ping"}`, wantCode: ErrorCodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := DecodeRequest([]byte(tt.in))
			if tt.wantCode != 0 {
				var rpcErr *Error
				require.True(t, errors.As(err, &rpcErr), "want *Error, got %v", err)
				assert.Equal(t, tt.wantCode, rpcErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNote, req.IsNotification())
		})
	}
}

func TestRequestID(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":7,"method":"x"}`), &req))
	assert.Equal(t, "7", req.ID.String())
	assert.Equal(t, int64(7), req.ID.Value())

	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":"a-1","method":"x"}`), &req))
	assert.Equal(t, "a-1", req.ID.String())

	var nilID *RequestID
	assert.Equal(t, "", nilID.String())
	assert.True(t, nilID.IsNil())
}

func TestResponseEncoding(t *testing.T) {
	res, err := NewResultResponse(NewRequestID(int64(3)), map[string]any{"ok": true})
	require.NoError(t, err)
	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":3,"result":{"ok":true}}`, string(data))

	data, err = json.Marshal(NewErrorResponse(nil, ErrorCodeParseError, "parse error", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"parse error"}}`, string(data))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ErrorCodeParseError.HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, ErrorCodeInvalidRequest.HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, ErrorCodeInvalidParams.HTTPStatus())
	assert.Equal(t, http.StatusNotImplemented, ErrorCodeMethodNotFound.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, ErrorCodeInternalError.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, ErrorCode(-32000).HTTPStatus())
}
