// Package mcp serves tools and resources over the Model Context Protocol.
//
// A Server holds tools and read-only resources. It speaks JSON-RPC 2.0 over
// stdio (one message per line) or HTTP POST, and exposes the same operations
// as a Connect service whose payloads are google.protobuf.Struct values:
//
//	/mcp.v1.ToolService/ListTools
//	/mcp.v1.ToolService/CallTool
//	/mcp.v1.ToolService/ReadResource
//
// Bridge registers the tools of a server, local or remote, into a
// tools.Registry so agents can call them.
package mcp
