package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/ggoodman/mcp-runtime-go/mcp"
	"github.com/ggoodman/mcp-runtime-go/schema"
	"github.com/ggoodman/mcp-runtime-go/uritemplate"
)

// UIResourceMetaKey is the _meta key that links a tool to the resource
// rendering its interactive UI.
const UIResourceMetaKey = "ui/resourceUri"

// Tool declares a callable tool.
type Tool struct {
	Name          string
	Title         string
	Description   string
	Fields        []schema.Field
	Annotations   mcp.ToolAnnotations
	// UIResourceURI optionally links the tool to a ui:// resource.
	UIResourceURI string
	Meta          map[string]any
	Handler       ToolHandler
}

// Argument declares one prompt argument.
type Argument struct {
	Name        string
	Description string
	Required    bool
}

func (a Argument) ArgName() string  { return a.Name }
func (a Argument) IsRequired() bool { return a.Required }

// Prompt declares a parameterized prompt. Completer is optional.
type Prompt struct {
	Name        string
	Description string
	Arguments   []Argument
	Handler     PromptHandler
	Completer   Completer
}

// Resource declares a static or templated resource. URI may be a template;
// whether the resource is templated is derived from it. Completer is
// optional.
type Resource struct {
	Name        string
	URI         string
	Description string
	MimeType    string
	Title       string
	Reader      ResourceReader
	Completer   Completer
}

type toolEntry struct {
	def     Tool
	listing mcp.Tool
}

type promptEntry struct {
	def     Prompt
	listing mcp.Prompt
}

type resourceEntry struct {
	def      Resource
	template *uritemplate.Template
}

// Registry is the immutable capability set. It is safe for concurrent use.
type Registry struct {
	log *slog.Logger

	tools     []toolEntry
	toolIndex map[string]int

	prompts     []promptEntry
	promptIndex map[string]int

	resources     []resourceEntry
	resourceIndex map[string]int
	staticURIs    map[string]int
	templated     []int
}

// Option configures a Registry at build time.
type Option func(*Registry)

// WithLogger sets the logger used for invocation records.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// Builder collects definitions for Build. It is not safe for concurrent use.
type Builder struct {
	tools     []Tool
	prompts   []Prompt
	resources []Resource
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Tool adds a tool definition.
func (b *Builder) Tool(t Tool) *Builder {
	b.tools = append(b.tools, t)
	return b
}

// Prompt adds a prompt definition.
func (b *Builder) Prompt(p Prompt) *Builder {
	b.prompts = append(b.prompts, p)
	return b
}

// Resource adds a resource definition.
func (b *Builder) Resource(r Resource) *Builder {
	b.resources = append(b.resources, r)
	return b
}

// Build validates every definition and returns the registry, or all
// problems joined into one error.
func (b *Builder) Build(opts ...Option) (*Registry, error) {
	r := &Registry{
		log:           slog.Default(),
		toolIndex:     make(map[string]int, len(b.tools)),
		promptIndex:   make(map[string]int, len(b.prompts)),
		resourceIndex: make(map[string]int, len(b.resources)),
		staticURIs:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}

	var errs []error
	for _, t := range b.tools {
		errs = append(errs, r.addTool(t)...)
	}
	for _, p := range b.prompts {
		errs = append(errs, r.addPrompt(p)...)
	}
	for _, res := range b.resources {
		errs = append(errs, r.addResource(res)...)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	return r, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild(opts ...Option) *Registry {
	r, err := b.Build(opts...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) addTool(t Tool) []error {
	var errs []error
	if t.Name == "" {
		return []error{fmt.Errorf("%s: %w", KindTool, ErrEmptyName)}
	}
	if _, dup := r.toolIndex[t.Name]; dup {
		errs = append(errs, fmt.Errorf("%s %q: %w", KindTool, t.Name, ErrDuplicateName))
	}
	if t.Handler == nil {
		errs = append(errs, fmt.Errorf("%s %q: %w", KindTool, t.Name, ErrMissingHandler))
	}
	if err := schema.Validate(t.Fields); err != nil {
		errs = append(errs, fmt.Errorf("%s %q: %w: %w", KindTool, t.Name, ErrInvalidDefinition, err))
	}
	if len(errs) > 0 {
		return errs
	}

	listing := mcp.Tool{
		Name:        t.Name,
		Title:       t.Title,
		Description: t.Description,
		InputSchema: schema.FormatSchema(t.Fields),
		Annotations: t.Annotations,
	}
	if len(t.Meta) > 0 || t.UIResourceURI != "" {
		listing.Meta = maps.Clone(t.Meta)
		if listing.Meta == nil {
			listing.Meta = make(map[string]any, 1)
		}
		if t.UIResourceURI != "" {
			listing.Meta[UIResourceMetaKey] = t.UIResourceURI
		}
	}
	r.toolIndex[t.Name] = len(r.tools)
	r.tools = append(r.tools, toolEntry{def: t, listing: listing})
	return nil
}

func (r *Registry) addPrompt(p Prompt) []error {
	var errs []error
	if p.Name == "" {
		return []error{fmt.Errorf("%s: %w", KindPrompt, ErrEmptyName)}
	}
	if _, dup := r.promptIndex[p.Name]; dup {
		errs = append(errs, fmt.Errorf("%s %q: %w", KindPrompt, p.Name, ErrDuplicateName))
	}
	if p.Handler == nil {
		errs = append(errs, fmt.Errorf("%s %q: %w", KindPrompt, p.Name, ErrMissingHandler))
	}
	seen := make(map[string]struct{}, len(p.Arguments))
	args := make([]mcp.PromptArgument, 0, len(p.Arguments))
	for _, a := range p.Arguments {
		if a.Name == "" {
			errs = append(errs, fmt.Errorf("%s %q: %w: argument name is required", KindPrompt, p.Name, ErrInvalidDefinition))
			continue
		}
		if _, dup := seen[a.Name]; dup {
			errs = append(errs, fmt.Errorf("%s %q: %w: duplicate argument %q", KindPrompt, p.Name, ErrInvalidDefinition, a.Name))
			continue
		}
		seen[a.Name] = struct{}{}
		args = append(args, mcp.PromptArgument{Name: a.Name, Description: a.Description, Required: a.Required})
	}
	if len(errs) > 0 {
		return errs
	}

	r.promptIndex[p.Name] = len(r.prompts)
	r.prompts = append(r.prompts, promptEntry{
		def:     p,
		listing: mcp.Prompt{Name: p.Name, Description: p.Description, Arguments: args},
	})
	return nil
}

func (r *Registry) addResource(res Resource) []error {
	var errs []error
	if res.Name == "" {
		return []error{fmt.Errorf("%s: %w", KindResource, ErrEmptyName)}
	}
	if _, dup := r.resourceIndex[res.Name]; dup {
		errs = append(errs, fmt.Errorf("%s %q: %w", KindResource, res.Name, ErrDuplicateName))
	}
	if res.Reader == nil {
		errs = append(errs, fmt.Errorf("%s %q: %w", KindResource, res.Name, ErrMissingHandler))
	}
	tpl, err := uritemplate.Parse(res.URI)
	switch {
	case res.URI == "":
		errs = append(errs, fmt.Errorf("%s %q: %w: uri is required", KindResource, res.Name, ErrInvalidDefinition))
	case err != nil:
		errs = append(errs, fmt.Errorf("%s %q: %w: %w", KindResource, res.Name, ErrInvalidDefinition, err))
	case !tpl.IsTemplated():
		if _, dup := r.staticURIs[res.URI]; dup {
			errs = append(errs, fmt.Errorf("%s %q: %w: uri %q already registered", KindResource, res.Name, ErrInvalidDefinition, res.URI))
		}
	}
	if len(errs) > 0 {
		return errs
	}

	idx := len(r.resources)
	r.resourceIndex[res.Name] = idx
	r.resources = append(r.resources, resourceEntry{def: res, template: tpl})
	if tpl.IsTemplated() {
		r.templated = append(r.templated, idx)
	} else {
		r.staticURIs[res.URI] = idx
	}
	return nil
}

// ListTools renders the tools in registration order.
func (r *Registry) ListTools() []mcp.Tool {
	out := make([]mcp.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.listing)
	}
	return out
}

// ListPrompts renders the prompts in registration order.
func (r *Registry) ListPrompts() []mcp.Prompt {
	out := make([]mcp.Prompt, 0, len(r.prompts))
	for _, p := range r.prompts {
		out = append(out, p.listing)
	}
	return out
}

// ListResources renders the static resources in registration order.
func (r *Registry) ListResources() []mcp.Resource {
	out := make([]mcp.Resource, 0, len(r.staticURIs))
	for _, e := range r.resources {
		if e.template.IsTemplated() {
			continue
		}
		out = append(out, mcp.Resource{
			Name:        e.def.Name,
			URI:         e.def.URI,
			Description: e.def.Description,
			MimeType:    e.def.MimeType,
			Title:       e.def.Title,
		})
	}
	return out
}

// ListResourceTemplates renders the templated resources in registration order.
func (r *Registry) ListResourceTemplates() []mcp.ResourceTemplate {
	out := make([]mcp.ResourceTemplate, 0, len(r.templated))
	for _, idx := range r.templated {
		e := r.resources[idx]
		out = append(out, mcp.ResourceTemplate{
			Name:        e.def.Name,
			URITemplate: e.def.URI,
			Description: e.def.Description,
			MimeType:    e.def.MimeType,
			Title:       e.def.Title,
		})
	}
	return out
}
