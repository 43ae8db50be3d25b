package imaging

import (
	"encoding/hex"
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// RGBAColor represents an RGBA color with 8-bit components including alpha.
//
// The alpha component represents opacity:
//   - 0 = fully transparent
//   - 255 = fully opaque
type RGBAColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// ColorResult contains a pixel value in several representations.
//
// Raw is the pixel's bytes as stored in the frame, hex encoded in memory
// order, so "3412" for an RGB565 word 0x1234.
type ColorResult struct {
	Hex    string    `json:"hex"` // "#RRGGBB" (no alpha)
	RGB    RGBColor  `json:"rgb"`
	RGBA   RGBAColor `json:"rgba"`
	HSL    HSLColor  `json:"hsl"`
	Raw    string    `json:"raw"`
	Format Format    `json:"format"`
}

// SamplePixel decodes the pixel at (x, y) of a frame.
//
// Coordinates are 0-based with origin at top-left; valid ranges are
// [0, Width) and [0, Height). The frame's format decides how the stored bytes
// expand to 8-bit channels (a 5-bit channel of 31 reads as 255).
func SamplePixel(m *Image, x, y int) (*ColorResult, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return nil, errors.Wrapf(ErrOutOfRange, "coordinates (%d,%d) outside %dx%d frame", x, y, m.Width, m.Height)
	}

	c := m.At(x, y)
	cf := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	h, s, l := cf.Hsl()
	if math.IsNaN(h) {
		h = 0
	}

	return &ColorResult{
		Hex:    strings.ToUpper(cf.Hex()),
		RGB:    RGBColor{R: c.R, G: c.G, B: c.B},
		RGBA:   RGBAColor{R: c.R, G: c.G, B: c.B, A: c.A},
		HSL:    HSLColor{H: int(h), S: int(math.Round(s * 100)), L: int(math.Round(l * 100))},
		Raw:    hex.EncodeToString(m.Pixel(x, y)),
		Format: m.Format,
	}, nil
}

// LabeledPoint represents a pixel coordinate with an optional descriptive label.
type LabeledPoint struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Label string `json:"label,omitempty"`
}

// LabeledColorResult combines a color sample with its location and optional label.
type LabeledColorResult struct {
	Label string      `json:"label,omitempty"`
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Color ColorResult `json:"color"`
}

// SamplePixels samples several points in input order. Any out-of-bounds point
// fails the whole call; no partial results are returned.
func SamplePixels(m *Image, points []LabeledPoint) ([]LabeledColorResult, error) {
	results := make([]LabeledColorResult, 0, len(points))
	for _, p := range points {
		c, err := SamplePixel(m, p.X, p.Y)
		if err != nil {
			return nil, errors.Wrapf(err, "sample point (%d,%d)", p.X, p.Y)
		}
		results = append(results, LabeledColorResult{Label: p.Label, X: p.X, Y: p.Y, Color: *c})
	}
	return results, nil
}
