// Package mcp serves the memory bank tools over the Model Context Protocol.
//
// Messages are JSON-RPC 2.0 objects, one per line, on a single byte stream
// (normally stdin/stdout). The server answers initialize, ping, tools/list
// and tools/call; tools/call results are the router's envelopes unchanged.
// Tool failures are reported inside the envelope, never as JSON-RPC errors.
package mcp
