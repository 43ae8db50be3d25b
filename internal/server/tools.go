package server

import "github.com/ironsheep/viewfinder/internal/imaging"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// defaultFormat is used when a call names no pixel format.
const defaultFormat = imaging.RGB888

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func formatProperty() map[string]interface{} {
	names := make([]string, 0, len(imaging.Formats()))
	for _, f := range imaging.Formats() {
		names = append(names, f.String())
	}
	return map[string]interface{}{
		"type":        "string",
		"enum":        names,
		"description": "Pixel format to hold the frame in. Default " + defaultFormat.String(),
		"default":     defaultFormat.String(),
	}
}

func intProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "frame_formats",
			Description: "List the supported pixel formats with their bit depth and bytes per pixel.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "frame_load",
			Description: "Load an image file into a frame of the given pixel format and return its geometry.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"format": formatProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Region Operations
		{
			Name:        "frame_crop",
			Description: "Crop the region [left,right) x [top,bottom) out of a frame and return the result as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"format": formatProperty(),
					"left":   intProperty("Left edge X coordinate (0-based, inclusive)"),
					"top":    intProperty("Top edge Y coordinate (0-based, inclusive)"),
					"right":  intProperty("Right edge X coordinate (exclusive)"),
					"bottom": intProperty("Bottom edge Y coordinate (exclusive)"),
					"in_place": map[string]interface{}{
						"type":        "boolean",
						"description": "Crop within the frame's own buffer instead of a separate one. Default false",
						"default":     false,
					},
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to also save the cropped frame to",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor for the returned preview. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "left", "top", "right", "bottom"},
			},
		},
		{
			Name:        "frame_crop_region",
			Description: "Crop a named region of the frame (top-left, top-right, bottom-left, bottom-right, top-half, bottom-half, left-half, right-half, center, full).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"format": formatProperty(),
					"region": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"top-left", "top-right", "bottom-left", "bottom-right", "top-half", "bottom-half", "left-half", "right-half", "center", "full"},
						"description": "Named region to extract",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor for the returned preview. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "region"},
			},
		},

		// Color Operations
		{
			Name:        "frame_sample_pixel",
			Description: "Get the color stored at a pixel of the frame, as hex, RGB, RGBA, HSL and raw bytes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"format": formatProperty(),
					"x":      intProperty("X coordinate (0-based, from left)"),
					"y":      intProperty("Y coordinate (0-based, from top)"),
				},
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "frame_sample_pixels",
			Description: "Sample several labeled pixels of the frame in one call.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"format": formatProperty(),
					"points": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":     map[string]interface{}{"type": "integer"},
								"y":     map[string]interface{}{"type": "integer"},
								"label": map[string]interface{}{"type": "string"},
							},
							"required": []string{"x", "y"},
						},
						"description": "Points to sample",
					},
				},
				"required": []string{"path", "points"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
