package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/iancoleman/strcase"

	"github.com/ggoodman/mcp-runtime-go/mcp"
)

// CallTool validates args against the tool's required fields and runs its
// handler. Errors are *NotFoundError, *InvalidArgumentsError,
// *ExecutionFailedError or *UnexpectedResultError.
func (r *Registry) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	idx, ok := r.toolIndex[name]
	if !ok {
		return nil, &NotFoundError{Kind: KindTool, Name: name}
	}
	def := r.tools[idx].def
	if err := ValidateRequiredArguments(args, def.Fields); err != nil {
		return nil, &InvalidArgumentsError{Kind: KindTool, Name: name, Err: err}
	}
	if args == nil {
		args = map[string]any{}
	}

	out, err := invoke(ctx, r.log, KindTool, name, func(ctx context.Context) (any, error) {
		return def.Handler.Call(ctx, args)
	})
	if err != nil {
		return nil, err
	}

	res, err := toCallToolResult(out)
	if err != nil {
		return nil, &UnexpectedResultError{Kind: KindTool, Name: name, Reason: err.Error()}
	}
	r.checkContentShape(ctx, name, res.Content)
	return res, nil
}

// checkContentShape warns about content items that are not text, image or
// embedded resource blocks. It never fails the call.
func (r *Registry) checkContentShape(ctx context.Context, name string, content []mcp.ContentBlock) {
	for i, c := range content {
		var problem string
		switch c.Type {
		case mcp.ContentTypeText:
		case mcp.ContentTypeImage:
			if c.Data == "" || c.MimeType == "" {
				problem = "image content requires data and mimeType"
			}
		case mcp.ContentTypeResource:
			if c.Resource == nil {
				problem = "resource content requires an embedded resource"
			}
		default:
			problem = fmt.Sprintf("unknown content type %q", c.Type)
		}
		if problem != "" {
			r.log.WarnContext(ctx, "registry.call_tool.content_shape",
				slog.String("tool", name),
				slog.Int("index", i),
				slog.String("problem", problem),
			)
		}
	}
}

func toCallToolResult(v any) (*mcp.CallToolResult, error) {
	switch x := v.(type) {
	case *mcp.CallToolResult:
		if x == nil {
			return nil, fmt.Errorf("nil result")
		}
		res := *x
		if res.Content == nil {
			res.Content = []mcp.ContentBlock{}
		}
		return &res, nil
	case mcp.CallToolResult:
		return toCallToolResult(&x)
	case []mcp.ContentBlock:
		if x == nil {
			x = []mcp.ContentBlock{}
		}
		return &mcp.CallToolResult{Content: x}, nil
	case mcp.ContentBlock:
		return &mcp.CallToolResult{Content: []mcp.ContentBlock{x}}, nil
	case string:
		return &mcp.CallToolResult{Content: []mcp.ContentBlock{mcp.TextContent(x)}}, nil
	case map[string]any:
		block, err := contentFromMap(x)
		if err != nil {
			return nil, err
		}
		return &mcp.CallToolResult{Content: []mcp.ContentBlock{block}}, nil
	case []map[string]any:
		items := make([]any, len(x))
		for i, m := range x {
			items[i] = m
		}
		return toCallToolResult(items)
	case []any:
		content := make([]mcp.ContentBlock, 0, len(x))
		for i, item := range x {
			var block mcp.ContentBlock
			switch it := item.(type) {
			case string:
				block = mcp.TextContent(it)
			case mcp.ContentBlock:
				block = it
			case map[string]any:
				b, err := contentFromMap(it)
				if err != nil {
					return nil, fmt.Errorf("item %d: %w", i, err)
				}
				block = b
			default:
				return nil, fmt.Errorf("item %d has type %T", i, item)
			}
			content = append(content, block)
		}
		return &mcp.CallToolResult{Content: content}, nil
	case nil:
		return nil, fmt.Errorf("nil result")
	default:
		return nil, fmt.Errorf("type %T", v)
	}
}

// contentFromMap decodes a loosely keyed content item. Keys are normalized
// to lowerCamel so snake_case producers ("mime_type") decode cleanly.
func contentFromMap(m map[string]any) (mcp.ContentBlock, error) {
	var block mcp.ContentBlock
	data, err := json.Marshal(camelKeys(m))
	if err != nil {
		return block, fmt.Errorf("encode content item: %w", err)
	}
	if err := json.Unmarshal(data, &block); err != nil {
		return block, fmt.Errorf("decode content item: %w", err)
	}
	if block.Type == "" {
		return block, fmt.Errorf("content item has no type")
	}
	return block, nil
}

func camelKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = camelKeys(nested)
		}
		out[strcase.ToLowerCamel(k)] = v
	}
	return out
}
