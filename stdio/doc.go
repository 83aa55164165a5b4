// Package stdio implements a single-connection MCP transport over
// stdin/stdout. It is intended for embedding servers as subprocesses and
// for local development, where piping JSON to a child process is simpler
// than running an HTTP server.
//
// Characteristics
//
//	Connection model : 1 process <-> 1 client
//	Identity         : OS user, exposed to handlers as session data
//	Sessions         : the id issued by initialize is implicit thereafter
//	Framing          : one JSON-RPC message per line
//
// Replies are written for requests only; notifications and rejected
// notifications produce no output.
//
// Example:
//
//	reg := registry.NewBuilder().Tool(...).MustBuild()
//	h := stdio.NewHandler(reg, stdio.WithServerInfo("my-stdio-server", "0.1.0"))
//	if err := h.Serve(context.Background()); err != nil { log.Fatal(err) }
package stdio
