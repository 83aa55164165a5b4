package registry

import (
	"context"
	"encoding/base64"
	"maps"

	"github.com/ggoodman/mcp-runtime-go/mcp"
)

// ResolveResource maps a URI onto a registered resource. Static URIs match
// exactly and win; otherwise templates are tried in registration order and
// the first match supplies the bound variables.
func (r *Registry) ResolveResource(uri string) (string, map[string]string, error) {
	if idx, ok := r.staticURIs[uri]; ok {
		return r.resources[idx].def.Name, map[string]string{}, nil
	}
	for _, idx := range r.templated {
		e := r.resources[idx]
		if vars, ok := e.template.Match(uri); ok {
			return e.def.Name, vars, nil
		}
	}
	return "", nil, &NotFoundError{Kind: KindResource, Name: uri}
}

// ResolveCompletionRef maps a completion reference URI onto a resource name.
// Completion refs address a templated resource by its raw template string,
// so that is checked first before falling back to ResolveResource.
func (r *Registry) ResolveCompletionRef(uri string) (string, error) {
	for _, idx := range r.templated {
		if e := r.resources[idx]; e.def.URI == uri {
			return e.def.Name, nil
		}
	}
	name, _, err := r.ResolveResource(uri)
	return name, err
}

// ReadResource runs the named resource's reader for uri. Content carrying
// both text and blob is rejected with *UnexpectedResultError.
func (r *Registry) ReadResource(ctx context.Context, name, uri string, vars map[string]string) (*mcp.ReadResourceResult, error) {
	idx, ok := r.resourceIndex[name]
	if !ok {
		return nil, &NotFoundError{Kind: KindResource, Name: name}
	}
	def := r.resources[idx].def
	req := ReadRequest{URI: uri, Vars: maps.Clone(vars)}
	if req.Vars == nil {
		req.Vars = map[string]string{}
	}

	content, err := invoke(ctx, r.log, KindResource, name, func(ctx context.Context) (Content, error) {
		return def.Reader.Read(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	if content.Text != "" && len(content.Blob) > 0 {
		return nil, &UnexpectedResultError{Kind: KindResource, Name: name, Reason: "content has both text and blob"}
	}

	out := mcp.ResourceContents{
		Name:     def.Name,
		URI:      uri,
		MimeType: def.MimeType,
		Text:     content.Text,
		Title:    def.Title,
	}
	if content.MimeType != "" {
		out.MimeType = content.MimeType
	}
	if len(content.Blob) > 0 {
		out.Blob = base64.StdEncoding.EncodeToString(content.Blob)
	}
	return &mcp.ReadResourceResult{Contents: []mcp.ResourceContents{out}}, nil
}

// CompleteResource suggests values for one variable of the named resource.
// A resource without a Completer yields no values.
func (r *Registry) CompleteResource(ctx context.Context, name string, arg mcp.CompleteArgument) (mcp.Completion, error) {
	idx, ok := r.resourceIndex[name]
	if !ok {
		return mcp.Completion{}, &NotFoundError{Kind: KindResource, Name: name}
	}
	return r.complete(ctx, KindResource, name, r.resources[idx].def.Completer, arg)
}
