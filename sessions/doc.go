// Package sessions issues and validates MCP session ids and tracks the small
// amount of mutable per-session state the runtime keeps: the log level a
// client selects with logging/setLevel.
//
// # Identifiers
//
// A session id is 16 bytes from crypto/rand encoded as URL-safe base64
// without padding, so every id is 22 characters long. Ids are opaque to
// clients and carried in the Mcp-Session-Id header.
//
// # Validation
//
// By default Validate is a format check: any well-formed id is accepted,
// whether or not this process issued it. Servers that want membership
// semantics opt in with WithIssuedOnly, which keeps the issued set in memory.
//
// # Log Levels
//
// Levels live in a LevelStore owned by the Manager. Each Manager gets its own
// LevelTable unless one is injected with WithLevelStore, so independent
// server instances in one process never share state.
//
// # Handler View
//
// Capability handlers receive a *Session for the request in flight. It
// exposes the id, a private key/value store populated by the transport's
// connection-init hook, and the session's current log level.
package sessions
