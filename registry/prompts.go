package registry

import (
	"context"

	"github.com/ggoodman/mcp-runtime-go/mcp"
)

// GetPrompt validates args against the prompt's required arguments and
// renders it. The prompt's declared description fills in when the handler
// leaves it empty.
func (r *Registry) GetPrompt(ctx context.Context, name string, args map[string]any) (*mcp.GetPromptResult, error) {
	idx, ok := r.promptIndex[name]
	if !ok {
		return nil, &NotFoundError{Kind: KindPrompt, Name: name}
	}
	def := r.prompts[idx].def
	if err := ValidateRequiredArguments(args, def.Arguments); err != nil {
		return nil, &InvalidArgumentsError{Kind: KindPrompt, Name: name, Err: err}
	}
	if args == nil {
		args = map[string]any{}
	}

	res, err := invoke(ctx, r.log, KindPrompt, name, func(ctx context.Context) (*mcp.GetPromptResult, error) {
		return def.Handler.Get(ctx, args)
	})
	if err != nil {
		return nil, err
	}
	var out mcp.GetPromptResult
	if res != nil {
		out = *res
	}
	if out.Description == "" {
		out.Description = def.Description
	}
	if out.Messages == nil {
		out.Messages = []mcp.PromptMessage{}
	}
	return &out, nil
}

// CompletePrompt suggests values for one argument of a prompt. A prompt
// without a Completer yields no values.
func (r *Registry) CompletePrompt(ctx context.Context, name string, arg mcp.CompleteArgument) (mcp.Completion, error) {
	idx, ok := r.promptIndex[name]
	if !ok {
		return mcp.Completion{}, &NotFoundError{Kind: KindPrompt, Name: name}
	}
	return r.complete(ctx, KindPrompt, name, r.prompts[idx].def.Completer, arg)
}

func (r *Registry) complete(ctx context.Context, kind, name string, c Completer, arg mcp.CompleteArgument) (mcp.Completion, error) {
	if c == nil {
		return mcp.Completion{Values: []string{}}, nil
	}
	res, err := invoke(ctx, r.log, kind, name, func(ctx context.Context) (mcp.Completion, error) {
		return c.Complete(ctx, arg)
	})
	if err != nil {
		return mcp.Completion{}, err
	}
	return capCompletion(res), nil
}

func capCompletion(c mcp.Completion) mcp.Completion {
	if c.Values == nil {
		c.Values = []string{}
	}
	if len(c.Values) > mcp.MaxCompletionValues {
		if c.Total == 0 {
			c.Total = len(c.Values)
		}
		c.Values = c.Values[:mcp.MaxCompletionValues]
		c.HasMore = true
	}
	return c
}
