package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/stack-scanner/internal/links"
	"github.com/ironsheep/stack-scanner/internal/scanner"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "scan_stack").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

var errInvalidArgs = errors.New("invalid arguments")

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000
// and the error kind in data.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if errors.Is(err, errInvalidArgs) {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if err != nil {
		s.log.Warn().Err(err).Str("tool", params.Name).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, scanner.Message(err), map[string]interface{}{
			"error_kind": scanner.Kind(err),
			"detail":     err.Error(),
		})
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "scan_stack":
		return s.handleScanStack(ctx, args)
	case "preview_batch":
		return s.handlePreviewBatch()
	case "save_batch":
		return s.handleSaveBatch(ctx)
	case "clear_batch":
		return s.handleClearBatch()
	case "ocr_info":
		return s.engine.Info(), nil
	default:
		return nil, fmt.Errorf("%w: unknown tool: %s", errInvalidArgs, name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// ScanStackResult is returned by scan_stack.
type ScanStackResult struct {
	Path      string         `json:"path"`
	Message   string         `json:"message"`
	Records   []links.Record `json:"records"`
	NoCodes   bool           `json:"no_codes"`
	Warning   string         `json:"warning,omitempty"`
	BatchSize int            `json:"batch_size"`
}

func (s *Server) handleScanStack(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var p struct {
		Path   string `json:"path"`
		Reload bool   `json:"reload"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	if p.Path == "" {
		return nil, fmt.Errorf("%w: path is required", errInvalidArgs)
	}

	if p.Reload {
		s.cache.Evict(p.Path)
	}
	photo, err := s.cache.Load(p.Path)
	if err != nil {
		return nil, err
	}

	res, err := s.svc.Scan(ctx, s.sess, photo, p.Path)
	if err != nil {
		return nil, err
	}

	return &ScanStackResult{
		Path:      p.Path,
		Message:   res.Message(),
		Records:   res.Records,
		NoCodes:   res.NoCodes,
		Warning:   res.Warning,
		BatchSize: res.BatchSize,
	}, nil
}

// BatchResult is returned by preview_batch.
type BatchResult struct {
	Records []links.Record `json:"records"`
	Count   int            `json:"count"`
}

func (s *Server) handlePreviewBatch() (interface{}, error) {
	records := s.sess.Records()
	return &BatchResult{Records: records, Count: len(records)}, nil
}

// SaveBatchResult is returned by save_batch.
type SaveBatchResult struct {
	Saved      int    `json:"saved"`
	LinkErrors int    `json:"link_errors"`
	Message    string `json:"message"`
}

func (s *Server) handleSaveBatch(ctx context.Context) (interface{}, error) {
	res, err := s.svc.Save(ctx, s.sess)
	if err != nil {
		return nil, err
	}
	return &SaveBatchResult{Saved: res.Saved, LinkErrors: res.LinkErrors, Message: res.Message()}, nil
}

func (s *Server) handleClearBatch() (interface{}, error) {
	return map[string]int{"discarded": s.svc.Clear(s.sess)}, nil
}
