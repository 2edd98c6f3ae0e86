package mcp

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func noArgs() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func scanStackDescription(merge bool) string {
	batch := "Replaces the pending batch with the codes found"
	if merge {
		batch = "Adds the codes found to the pending batch, skipping codes already in it,"
	}
	return "Read the product codes printed on a photo of a stack of toy car cards. " + batch +
		" and returns each code with its collecthw.com lookup link. A photo with no codes leaves the batch unchanged."
}

// GetToolDefinitions returns all available tools. merge selects how
// scan_stack describes its effect on the pending batch.
func GetToolDefinitions(merge bool) []Tool {
	return []Tool{
		{
			Name:        "scan_stack",
			Description: scanStackDescription(merge),
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the photo (JPEG, PNG, GIF, BMP, TIFF or WebP)",
					},
					"reload": map[string]interface{}{
						"type":        "boolean",
						"description": "Decode the file again even if it was scanned before. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "preview_batch",
			Description: "List the (code, link) records waiting to be saved.",
			InputSchema: noArgs(),
		},
		{
			Name:        "save_batch",
			Description: "Append every pending record to the collection sheet with status Unverified, then clear the batch. On failure the batch is kept.",
			InputSchema: noArgs(),
		},
		{
			Name:        "clear_batch",
			Description: "Discard the pending records without saving them.",
			InputSchema: noArgs(),
		},
		{
			Name:        "ocr_info",
			Description: "Report which OCR backend is in use, its version, and whether it is working.",
			InputSchema: noArgs(),
		},
	}
}
