//go:build linux || darwin

package display

import (
	"log"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/ironsheep/viewfinder/internal/dcache"
	"github.com/ironsheep/viewfinder/internal/imaging"
)

// Framebuffer is a mapped display buffer.
type Framebuffer struct {
	file  *os.File
	mem   []byte
	img   *imaging.Image
	cache *dcache.Msync
}

// Open maps path with geometry g. Regular files shorter than the geometry
// are extended; device files must already be large enough.
func Open(path string, g Geometry, logger *log.Logger) (*Framebuffer, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open framebuffer")
	}

	size := g.Size()
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "failed to stat framebuffer")
	}
	if stat.Mode().IsRegular() && stat.Size() < int64(size) {
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			return nil, errors.Wrap(err, "failed to size framebuffer file")
		}
	}

	mem, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "failed to map %d bytes of %s", size, path)
	}

	return &Framebuffer{
		file: f,
		mem:  mem,
		img: &imaging.Image{
			Data:   mem,
			Pitch:  g.pitch(),
			Width:  g.Width,
			Height: g.Height,
			Format: g.Format,
		},
		cache: dcache.NewMsync(mem, logger),
	}, nil
}

// Image returns the descriptor over the mapped memory. It is invalid after
// Close.
func (fb *Framebuffer) Image() *imaging.Image {
	return fb.img
}

// Cache returns the controller that publishes writes to the display.
func (fb *Framebuffer) Cache() imaging.CacheController {
	return fb.cache
}

// Clear zeroes the framebuffer and publishes it.
func (fb *Framebuffer) Clear() error {
	clear(fb.mem)
	return fb.cache.FlushInvalidate(fb.mem)
}

// Close unmaps the framebuffer and closes the file.
func (fb *Framebuffer) Close() error {
	if fb.mem != nil {
		if err := unix.Munmap(fb.mem); err != nil {
			fb.file.Close()
			return errors.Wrap(err, "munmap")
		}
		fb.mem = nil
		fb.img.Data = nil
	}
	return fb.file.Close()
}
