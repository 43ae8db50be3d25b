//go:build !linux && !darwin

package display

import (
	"log"

	"github.com/pkg/errors"

	"github.com/ironsheep/viewfinder/internal/imaging"
)

// Framebuffer is unavailable on this platform.
type Framebuffer struct{}

// Open always fails: mapping framebuffers needs mmap.
func Open(path string, g Geometry, logger *log.Logger) (*Framebuffer, error) {
	return nil, errors.New("framebuffer mapping not supported on this platform")
}

// Image returns nil; no framebuffer is ever mapped here.
func (fb *Framebuffer) Image() *imaging.Image { return nil }

// Cache returns a controller that does nothing.
func (fb *Framebuffer) Cache() imaging.CacheController { return imaging.NopCache{} }

// Clear is a no-op.
func (fb *Framebuffer) Clear() error { return nil }

// Close is a no-op.
func (fb *Framebuffer) Close() error { return nil }
