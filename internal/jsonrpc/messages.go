package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ProtocolVersion is the supported JSON-RPC protocol version.
const ProtocolVersion = "2.0"

// Request represents a JSON-RPC request (with an ID) or notification (without ID).
type Request struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Method         string          `json:"method"`
	Params         json.RawMessage `json:"params,omitempty"`
	ID             *RequestID      `json:"id,omitempty"`
}

// IsNotification reports whether the request carries no id.
func (r *Request) IsNotification() bool {
	return r.ID.IsNil()
}

// Response represents a JSON-RPC response. Exactly one of Result and Error is
// set. The id is always emitted; it is null when the request id could not be
// determined.
type Response struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Result         json.RawMessage `json:"result,omitempty"`
	Error          *Error          `json:"error,omitempty"`
	ID             *RequestID      `json:"id"`
}

// NewResultResponse builds a successful JSON-RPC response object.
func NewResultResponse(id *RequestID, result any) (*Response, error) {
	resultBytes, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &Response{
		JSONRPCVersion: ProtocolVersion,
		Result:         resultBytes,
		ID:             id,
	}, nil
}

// NewErrorResponse builds an error JSON-RPC response with the given code.
func NewErrorResponse(id *RequestID, code ErrorCode, message string, data any) *Response {
	return &Response{
		JSONRPCVersion: ProtocolVersion,
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
		ID: id,
	}
}

// DecodeRequest parses a single JSON-RPC request envelope. Failures are
// returned as *Error carrying ErrorCodeParseError for malformed JSON and
// ErrorCodeInvalidRequest for well-formed JSON that is not a request.
func DecodeRequest(data []byte) (*Request, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, NewError(ErrorCodeParseError, "empty request body", nil)
	}
	if !json.Valid(trimmed) {
		return nil, NewError(ErrorCodeParseError, "parse error", nil)
	}
	switch trimmed[0] {
	case '[':
		return nil, NewError(ErrorCodeInvalidRequest, "batch requests are not supported", nil)
	case '{':
	default:
		return nil, NewError(ErrorCodeInvalidRequest, "request must be a JSON object", nil)
	}

	var req Request
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, NewError(ErrorCodeInvalidRequest, "invalid request", err.Error())
	}
	if req.JSONRPCVersion != ProtocolVersion {
		return nil, NewError(ErrorCodeInvalidRequest, fmt.Sprintf("invalid JSON-RPC version: expected %q, got %q", ProtocolVersion, req.JSONRPCVersion), nil)
	}
	if req.Method == "" {
		return nil, NewError(ErrorCodeInvalidRequest, "missing method", nil)
	}
	if len(req.Params) > 0 {
		if p := bytes.TrimSpace(req.Params); p[0] != '{' && p[0] != '[' && !bytes.Equal(p, []byte("null")) {
			return nil, NewError(ErrorCodeInvalidRequest, "params must be an object or array", nil)
		}
	}

	return &req, nil
}
