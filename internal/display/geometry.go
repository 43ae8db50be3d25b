// Package display maps a display framebuffer (a /dev/fb device or a plain
// file standing in for one) into memory and exposes it as an imaging.Image
// together with the cache controller that publishes writes to it.
package display

import (
	"github.com/pkg/errors"

	"github.com/ironsheep/viewfinder/internal/imaging"
)

// Geometry is the layout of a framebuffer. A zero Pitch means Width.
type Geometry struct {
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Pitch  int            `json:"pitch,omitempty"`
	Format imaging.Format `json:"format"`
}

func (g Geometry) pitch() int {
	if g.Pitch == 0 {
		return g.Width
	}
	return g.Pitch
}

// Size returns the number of bytes the framebuffer spans.
func (g Geometry) Size() int {
	return g.pitch() * g.Height * g.Format.BytesPerPixel()
}

// Validate checks that g describes a non-empty, supported layout.
func (g Geometry) Validate() error {
	if !g.Format.Valid() {
		return errors.Wrapf(imaging.ErrUnsupportedFormat, "display format %s", g.Format)
	}
	if g.Width <= 0 || g.Height <= 0 {
		return errors.Errorf("display size %dx%d must be positive", g.Width, g.Height)
	}
	if g.pitch() < g.Width {
		return errors.Errorf("display pitch %d smaller than width %d", g.Pitch, g.Width)
	}
	return nil
}
