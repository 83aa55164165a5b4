// Package registry holds the immutable set of tools, prompts and resources a
// server exposes, renders them into protocol listings and invokes their
// handlers safely.
//
// # Building
//
// Definitions are assembled with a Builder before serving starts. Build runs
// every check eagerly (empty or duplicate names, missing handlers, malformed
// field sets and URI templates) and returns all problems at once:
//
//	reg, err := registry.NewBuilder().
//	    Tool(registry.Tool{
//	        Name:    "echo",
//	        Fields:  []schema.Field{{Name: "message", Type: schema.TypeString, Required: true}},
//	        Handler: registry.ToolHandlerFunc(echo),
//	    }).
//	    Resource(registry.Resource{Name: "user", URI: "https://x/users/{id}", Reader: users}).
//	    Build()
//
// # Invocation
//
// CallTool, GetPrompt, CompletePrompt, ReadResource and CompleteResource
// never let a handler fault escape. Lookups that fail return *NotFoundError,
// missing required arguments return *InvalidArgumentsError before the handler
// runs, and handler errors or panics become *ExecutionFailedError.
//
// Handlers find the calling session with sessions.FromContext.
//
// # Resources
//
// A resource whose URI parses to a template with variables is listed under
// resources/templates/list; every other resource is static. ResolveResource
// maps a concrete URI onto a resource name, trying static URIs first and then
// templates in registration order. ResolveCompletionRef additionally accepts
// a templated resource's raw template string, as completion refs carry it.
package registry
