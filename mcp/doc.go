// Package mcp contains protocol data types and constants shared by the
// registry, the request engine and the HTTP transport. It mirrors the wire
// representation of the Model Context Protocol (revision 2025-06-18) while
// keeping the surface Go-friendly: exported structs with json tags, string
// constants for method names and enumerations, and a few validation helpers.
//
// The package is free of transport logic. Higher-level packages construct
// results using these concrete types and hand them to the engine for
// JSON-RPC serialization.
//
// # Method Names
//
// JSON-RPC method and notification names are enumerated as Method constants
// (e.g. ToolsListMethod). Using the constants avoids typographical mistakes.
//
// # Capabilities
//
// ServerCapabilities is advertised in the initialize result. The runtime
// always advertises completions, logging, prompts, resources and tools, the
// latter three with listChanged set.
//
// # Tool Results
//
// Tool-level failures are not protocol errors. They are reported as a
// successful JSON-RPC result whose CallToolResult has IsError set:
//
//	res := &mcp.CallToolResult{
//	    Content: []mcp.ContentBlock{mcp.TextContent("disk full")},
//	    IsError: true,
//	}
//
// # Logging Levels
//
// LoggingLevel values mirror syslog severities. Use IsValidLoggingLevel to
// validate user-provided values.
package mcp
