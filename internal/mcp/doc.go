// Package mcp exposes the stack scanner to MCP (Model Context Protocol)
// clients.
//
// An agent can scan a photo on disk, look at the pending batch, and save or
// discard it, the same actions the web page offers a person.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - scan_stack: Read the codes in a photo and replace the batch
//   - preview_batch: List the pending (code, link) records
//   - save_batch: Append the batch to the collection and clear it
//   - clear_batch: Discard the batch
//   - ocr_info: Report the OCR backend and whether it works
//
// # Session
//
// The process has exactly one session. It lives as long as the server and
// is never shared with the web surface.
//
// # Image Caching
//
// Photos are cached by path, so scanning the same file twice does not decode
// it again. Pass "reload": true to scan_stack after the file changed.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000
//   - message: the user-facing message, e.g. "Could not connect to Google Sheet..."
//   - data: {"error_kind": "...", "detail": "<Go error string>"}
//
// # Usage
//
//	srv := mcp.New(svc, engine, logger)
//	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
package mcp
