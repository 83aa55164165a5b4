package registry

import (
	"context"

	"github.com/ggoodman/mcp-runtime-go/mcp"
)

// ToolHandler executes a tool. The result may be a *mcp.CallToolResult, a
// []mcp.ContentBlock, a single mcp.ContentBlock, a string (rendered as one
// text block) or map-shaped content items; any other shape is rejected with
// *UnexpectedResultError. A returned error becomes a tool-level failure.
type ToolHandler interface {
	Call(ctx context.Context, args map[string]any) (any, error)
}

// ToolHandlerFunc adapts a function to ToolHandler.
type ToolHandlerFunc func(ctx context.Context, args map[string]any) (any, error)

func (f ToolHandlerFunc) Call(ctx context.Context, args map[string]any) (any, error) {
	return f(ctx, args)
}

// PromptHandler renders a prompt.
type PromptHandler interface {
	Get(ctx context.Context, args map[string]any) (*mcp.GetPromptResult, error)
}

// PromptHandlerFunc adapts a function to PromptHandler.
type PromptHandlerFunc func(ctx context.Context, args map[string]any) (*mcp.GetPromptResult, error)

func (f PromptHandlerFunc) Get(ctx context.Context, args map[string]any) (*mcp.GetPromptResult, error) {
	return f(ctx, args)
}

// Completer suggests values for a partially typed argument.
type Completer interface {
	Complete(ctx context.Context, arg mcp.CompleteArgument) (mcp.Completion, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, arg mcp.CompleteArgument) (mcp.Completion, error)

func (f CompleterFunc) Complete(ctx context.Context, arg mcp.CompleteArgument) (mcp.Completion, error) {
	return f(ctx, arg)
}

// ReadRequest identifies the resource being read. Vars holds the values bound
// by the URI template and is empty for static resources.
type ReadRequest struct {
	URI  string
	Vars map[string]string
}

// Content is the body of a resource read. Exactly one of Text and Blob may be
// set. MimeType overrides the resource's declared type when non-empty.
type Content struct {
	Text     string
	Blob     []byte
	MimeType string
}

// ResourceReader reads a resource.
type ResourceReader interface {
	Read(ctx context.Context, req ReadRequest) (Content, error)
}

// ReaderFunc adapts a function to ResourceReader.
type ReaderFunc func(ctx context.Context, req ReadRequest) (Content, error)

func (f ReaderFunc) Read(ctx context.Context, req ReadRequest) (Content, error) {
	return f(ctx, req)
}
