package imaging

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// Image describes a frame held in a flat, row-major byte buffer.
//
// Image borrows Data; nothing in this package frees or reallocates it. Pitch is
// the number of pixels allocated per row and may exceed Width when rows carry
// padding. A well-formed Image satisfies:
//
//	Pitch >= Width
//	len(Data) >= Pitch * Height * Format.BytesPerPixel()
//
// Use Validate to check those invariants for descriptors built by hand.
type Image struct {
	Data   []byte
	Pitch  int
	Width  int
	Height int
	Format Format
}

// NewImage allocates a zeroed frame of the given geometry.
//
// A pitch of 0 means a dense frame (pitch == width).
func NewImage(pitch, width, height int, format Format) (*Image, error) {
	if pitch == 0 {
		pitch = width
	}
	img := &Image{
		Pitch:  pitch,
		Width:  width,
		Height: height,
		Format: format,
	}
	if err := img.checkGeometry(); err != nil {
		return nil, err
	}
	img.Data = make([]byte, img.Size())
	return img, nil
}

// Wrap builds a dense descriptor over an existing buffer and validates it.
func Wrap(data []byte, width, height int, format Format) (*Image, error) {
	img := &Image{
		Data:   data,
		Pitch:  width,
		Width:  width,
		Height: height,
		Format: format,
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}

func (m *Image) checkGeometry() error {
	if !m.Format.Valid() {
		return errors.Wrapf(ErrUnsupportedFormat, "image format %s", m.Format)
	}
	if m.Width < 0 || m.Height < 0 {
		return errors.Wrapf(ErrInvalidBuffer, "negative dimensions %dx%d", m.Width, m.Height)
	}
	if m.Pitch < m.Width {
		return errors.Wrapf(ErrInvalidBuffer, "pitch %d smaller than width %d", m.Pitch, m.Width)
	}
	if !fits(math.MaxInt, m.Pitch, m.Height, m.Format.BytesPerPixel()) {
		return errors.Wrapf(ErrInvalidBuffer, "%dx%d %s with pitch %d overflows", m.Width, m.Height, m.Format, m.Pitch)
	}
	return nil
}

// fits reports whether the product of the non-negative dims is at most n,
// without overflowing.
func fits(n int, dims ...int) bool {
	for _, d := range dims {
		if d == 0 {
			return true
		}
	}
	p := 1
	for _, d := range dims {
		if d > n/p {
			return false
		}
		p *= d
	}
	return true
}

// Validate checks the descriptor invariants.
func (m *Image) Validate() error {
	if m == nil {
		return errors.Wrap(ErrInvalidBuffer, "nil image")
	}
	if err := m.checkGeometry(); err != nil {
		return err
	}
	if len(m.Data) < m.Size() {
		return errors.Wrapf(ErrInvalidBuffer, "buffer holds %d bytes, %dx%d %s with pitch %d needs %d",
			len(m.Data), m.Width, m.Height, m.Format, m.Pitch, m.Size())
	}
	return nil
}

// Size returns the number of bytes the frame occupies: Pitch*Height*bpp.
func (m *Image) Size() int {
	return m.Pitch * m.Height * m.Format.BytesPerPixel()
}

// RowBytes returns the byte stride between the starts of consecutive rows.
func (m *Image) RowBytes() int {
	return m.Pitch * m.Format.BytesPerPixel()
}

// Bounds returns the logical pixel rectangle (0,0)-(Width,Height).
func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// Offset returns the byte offset of pixel (x, y) in Data.
// The caller is responsible for passing in-bounds coordinates.
func (m *Image) Offset(x, y int) int {
	return (y*m.Pitch + x) * m.Format.BytesPerPixel()
}

// Pixel returns the raw bytes of pixel (x, y), aliasing Data.
func (m *Image) Pixel(x, y int) []byte {
	off := m.Offset(x, y)
	return m.Data[off : off+m.Format.BytesPerPixel() : off+m.Format.BytesPerPixel()]
}

// Rect returns the full-frame crop rectangle.
func (m *Image) Rect() Rect {
	return Rect{Left: 0, Top: 0, Right: m.Width, Bottom: m.Height}
}
