// Package streaminghttp serves an MCP capability registry over HTTP.
//
// Each POST carries exactly one JSON-RPC 2.0 message and receives at most
// one JSON reply. There is no server-initiated stream: GET and DELETE are
// answered with 405 and an Allow header, which streamable HTTP clients treat
// as "no standalone stream offered".
//
// # Sessions
//
// initialize issues a session id in the Mcp-Session-Id response header.
// Every later request must echo it. A ConnectionInitFunc installed with
// WithConnectionInit may derive the id from elsewhere and seed private data
// that tool, prompt and resource handlers read through sessions.FromContext.
//
// # Limits
//
// Bodies are capped at DefaultMaxBodyBytes (413 beyond it) and must be
// declared as application/json (415 otherwise).
//
// Example:
//
//	reg := registry.NewBuilder().Tool(...).MustBuild()
//	h, err := streaminghttp.New(reg, streaminghttp.WithServerInfo("demo", "1.0.0"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":8080", h)
package streaminghttp
