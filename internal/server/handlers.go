package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"log"

	dimaging "github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/ironsheep/viewfinder/internal/imaging"
)

// errInvalidParams marks argument errors, reported as JSON-RPC -32602 rather
// than as tool failures.
var errInvalidParams = errors.New("invalid params")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "frame_load", "frame_crop").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Argument errors return -32602; tool execution errors return -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		if s.debug {
			log.Printf("Tool %s failed: %v", params.Name, err)
		}
		if errors.Is(err, errInvalidParams) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "frame_formats":
		return s.handleFrameFormats(args)
	case "frame_load":
		return s.handleFrameLoad(args)

	// Region Operations
	case "frame_crop":
		return s.handleFrameCrop(args)
	case "frame_crop_region":
		return s.handleFrameCropRegion(args)

	// Color Operations
	case "frame_sample_pixel":
		return s.handleFrameSamplePixel(args)
	case "frame_sample_pixels":
		return s.handleFrameSamplePixels(args)

	default:
		return nil, errors.Wrapf(errInvalidParams, "unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Absent arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return errors.Wrap(errInvalidParams, err.Error())
	}
	return nil
}

// frameArgs names a frame: an image file held in a pixel format.
type frameArgs struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

func (a frameArgs) format() (imaging.Format, error) {
	if a.Format == "" {
		return defaultFormat, nil
	}
	f, err := imaging.ParseFormat(a.Format)
	if err != nil {
		return 0, errors.Wrap(errInvalidParams, err.Error())
	}
	return f, nil
}

func (s *Server) loadFrame(a frameArgs) (*imaging.Image, error) {
	if a.Path == "" {
		return nil, errors.Wrap(errInvalidParams, "path is required")
	}
	f, err := a.format()
	if err != nil {
		return nil, err
	}
	return s.cache.Load(a.Path, f)
}

// === Frame Information Handlers ===

// FormatInfo describes one supported pixel format.
type FormatInfo struct {
	Name          string `json:"name"`
	Depth         int    `json:"depth"`
	BytesPerPixel int    `json:"bytes_per_pixel"`
}

func (s *Server) handleFrameFormats(args json.RawMessage) (interface{}, error) {
	var formats []FormatInfo
	for _, f := range imaging.Formats() {
		formats = append(formats, FormatInfo{
			Name:          f.String(),
			Depth:         f.Depth(),
			BytesPerPixel: f.BytesPerPixel(),
		})
	}
	return map[string]interface{}{"formats": formats}, nil
}

func (s *Server) handleFrameLoad(args json.RawMessage) (interface{}, error) {
	var a frameArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.Wrap(errInvalidParams, "path is required")
	}
	f, err := a.format()
	if err != nil {
		return nil, err
	}
	return imaging.LoadFrameInfo(s.cache, a.Path, f)
}

// === Region Operation Handlers ===

// CropResult contains the cropped frame and a PNG preview of it.
type CropResult struct {
	imaging.FrameInfo
	Region       imaging.Rect `json:"region"`
	InPlace      bool         `json:"in_place"`
	FlushedBytes int          `json:"flushed_bytes"`
	Output       string       `json:"output,omitempty"`
	ImageBase64  string       `json:"image_base64,omitempty"`
	MimeType     string       `json:"mime_type,omitempty"`
	PreviewSize  [2]int       `json:"preview_size"`
}

type frameCropArgs struct {
	frameArgs
	Left    *int    `json:"left"`
	Top     *int    `json:"top"`
	Right   *int    `json:"right"`
	Bottom  *int    `json:"bottom"`
	InPlace bool    `json:"in_place"`
	Output  string  `json:"output"`
	Scale   float64 `json:"scale"`
}

func (s *Server) handleFrameCrop(args json.RawMessage) (interface{}, error) {
	var a frameCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Left == nil || a.Top == nil || a.Right == nil || a.Bottom == nil {
		return nil, errors.Wrap(errInvalidParams, "left, top, right and bottom are required")
	}
	m, err := s.loadFrame(a.frameArgs)
	if err != nil {
		return nil, err
	}
	r := imaging.Rect{Left: *a.Left, Top: *a.Top, Right: *a.Right, Bottom: *a.Bottom}
	return cropFrame(m, r, a.InPlace, a.Output, a.Scale)
}

type frameCropRegionArgs struct {
	frameArgs
	Region string  `json:"region"`
	Scale  float64 `json:"scale"`
}

func (s *Server) handleFrameCropRegion(args json.RawMessage) (interface{}, error) {
	var a frameCropRegionArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	m, err := s.loadFrame(a.frameArgs)
	if err != nil {
		return nil, err
	}
	r, err := imaging.NamedRect(m.Width, m.Height, a.Region)
	if err != nil {
		return nil, errors.Wrap(errInvalidParams, err.Error())
	}
	return cropFrame(m, r, false, "", a.Scale)
}

// cropFrame crops r out of m, which the caller owns. The cache controller
// records the range the crop publishes.
func cropFrame(m *imaging.Image, r imaging.Rect, inPlace bool, output string, scale float64) (*CropResult, error) {
	var flushed int
	cropper := imaging.NewCropper(imaging.CacheFunc(func(b []byte) error {
		flushed = len(b)
		return nil
	}))

	if !r.In(m.Width, m.Height) {
		return nil, errors.Wrapf(imaging.ErrOutOfRange, "crop %s of %dx%d frame", r, m.Width, m.Height)
	}

	out := &imaging.Image{Pitch: r.Dx(), Width: r.Dx(), Height: r.Dy(), Format: m.Format}
	if inPlace {
		out.Data = m.Data
	} else {
		out.Data = make([]byte, r.Dx()*r.Dy()*m.Format.BytesPerPixel())
		if len(out.Data) == 0 {
			// Crop rejects empty buffers; a zero-area crop still needs a target.
			out.Data = make([]byte, 1)
		}
	}
	if err := cropper.CropImage(m, out, r); err != nil {
		return nil, err
	}
	out.Data = out.Data[:out.Size()]

	result := &CropResult{
		FrameInfo:    out.Info(),
		Region:       r,
		InPlace:      inPlace,
		FlushedBytes: flushed,
	}

	if output != "" {
		if err := imaging.SaveFrame(out, output); err != nil {
			return nil, err
		}
		result.Output = output
	}

	if r.Empty() {
		return result, nil
	}
	if err := encodePreview(result, out, scale); err != nil {
		return nil, err
	}
	return result, nil
}

func encodePreview(result *CropResult, m *imaging.Image, scale float64) error {
	rgba, err := imaging.ToNRGBA(m)
	if err != nil {
		return err
	}

	preview := rgba
	if scale != 1.0 && scale > 0 {
		newWidth := max(1, int(float64(m.Width)*scale))
		newHeight := max(1, int(float64(m.Height)*scale))
		preview = dimaging.Resize(rgba, newWidth, newHeight, dimaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := dimaging.Encode(&buf, preview, dimaging.PNG); err != nil {
		return errors.Wrap(err, "failed to encode cropped frame")
	}

	result.ImageBase64 = base64.StdEncoding.EncodeToString(buf.Bytes())
	result.MimeType = "image/png"
	result.PreviewSize = [2]int{preview.Bounds().Dx(), preview.Bounds().Dy()}
	return nil
}

// === Color Operation Handlers ===

type frameSamplePixelArgs struct {
	frameArgs
	X int `json:"x"`
	Y int `json:"y"`
}

func (s *Server) handleFrameSamplePixel(args json.RawMessage) (interface{}, error) {
	var a frameSamplePixelArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	m, err := s.loadFrame(a.frameArgs)
	if err != nil {
		return nil, err
	}
	return imaging.SamplePixel(m, a.X, a.Y)
}

type frameSamplePixelsArgs struct {
	frameArgs
	Points []imaging.LabeledPoint `json:"points"`
}

func (s *Server) handleFrameSamplePixels(args json.RawMessage) (interface{}, error) {
	var a frameSamplePixelsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	m, err := s.loadFrame(a.frameArgs)
	if err != nil {
		return nil, err
	}
	samples, err := imaging.SamplePixels(m, a.Points)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"samples": samples}, nil
}
