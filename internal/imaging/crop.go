package imaging

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidBuffer reports a missing or undersized buffer, or a
	// descriptor whose geometry cannot describe its buffer.
	ErrInvalidBuffer = errors.New("invalid buffer")
	// ErrOutOfRange reports a crop rectangle that exceeds or inverts the
	// image bounds.
	ErrOutOfRange = errors.New("crop rectangle out of range")
	// ErrSizeMismatch reports an output descriptor whose dimensions differ
	// from the requested rectangle.
	ErrSizeMismatch = errors.New("output size mismatch")
	// ErrFormatMismatch reports an output descriptor whose format differs
	// from the input format.
	ErrFormatMismatch = errors.New("output format mismatch")
	// ErrUnsupportedFormat reports a Format value outside the supported set.
	ErrUnsupportedFormat = errors.New("unsupported color format")
)

// Rect is a crop rectangle in pixel coordinates.
//
// The region is half-open: [Left, Right) x [Top, Bottom). Right == Left or
// Bottom == Top describes an empty region, which is a valid crop.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Dx returns the width of the rectangle.
func (r Rect) Dx() int { return r.Right - r.Left }

// Dy returns the height of the rectangle.
func (r Rect) Dy() int { return r.Bottom - r.Top }

// Empty reports whether the rectangle contains no pixels.
func (r Rect) Empty() bool { return r.Dx() <= 0 || r.Dy() <= 0 }

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.Left, r.Top, r.Right, r.Bottom)
}

// In reports whether r is a valid crop of a width x height frame:
// 0 <= Left <= Right <= width and 0 <= Top <= Bottom <= height.
func (r Rect) In(width, height int) bool {
	return r.Left >= 0 && r.Top >= 0 &&
		r.Left <= r.Right && r.Right <= width &&
		r.Top <= r.Bottom && r.Bottom <= height
}

// CenterRect returns a w x h window centered in a width x height frame.
// Odd leftover margins put the extra pixel on the right and bottom.
func CenterRect(width, height, w, h int) (Rect, error) {
	if w < 0 || h < 0 || w > width || h > height {
		return Rect{}, errors.Wrapf(ErrOutOfRange, "window %dx%d does not fit in %dx%d", w, h, width, height)
	}
	left := (width - w) / 2
	top := (height - h) / 2
	return Rect{Left: left, Top: top, Right: left + w, Bottom: top + h}, nil
}

// NamedRect returns a named region of a width x height frame: top-left,
// top-right, bottom-left, bottom-right, top-half, bottom-half, left-half,
// right-half, center (the middle 50%) or full.
func NamedRect(width, height int, name string) (Rect, error) {
	midX := width / 2
	midY := height / 2

	switch name {
	case "top-left":
		return Rect{0, 0, midX, midY}, nil
	case "top-right":
		return Rect{midX, 0, width, midY}, nil
	case "bottom-left":
		return Rect{0, midY, midX, height}, nil
	case "bottom-right":
		return Rect{midX, midY, width, height}, nil
	case "top-half":
		return Rect{0, 0, width, midY}, nil
	case "bottom-half":
		return Rect{0, midY, width, height}, nil
	case "left-half":
		return Rect{0, 0, midX, height}, nil
	case "right-half":
		return Rect{midX, 0, width, height}, nil
	case "center":
		qW := width / 4
		qH := height / 4
		return Rect{qW, qH, width - qW, height - qH}, nil
	case "full":
		return Rect{0, 0, width, height}, nil
	default:
		return Rect{}, errors.Errorf("unknown region: %s", name)
	}
}

// Cropper extracts rectangular regions from frame buffers and signals cache
// maintenance over every range it writes.
//
// A Cropper holds no per-call state and may be shared, but each call needs
// exclusive access to its output buffer for its duration.
type Cropper struct {
	cache CacheController
}

// NewCropper returns a Cropper that signals cc after each successful write.
// A nil cc selects NopCache for hosts without a data cache to maintain.
func NewCropper(cc CacheController) *Cropper {
	if cc == nil {
		cc = NopCache{}
	}
	return &Cropper{cache: cc}
}

// Crop copies the region r of the frame held in in to out.
//
// Parameters:
//   - in: source frame, Pitch*height pixels of format.
//   - out: destination. Rows are written densely, so the result has pitch
//     r.Dx(). out may be in itself for an in-place crop; the result is then
//     compacted into the top-left of the buffer.
//   - pitch, width, height: source geometry in pixels.
//   - format: pixel encoding of both buffers.
//   - r: the region to keep, [Left,Right) x [Top,Bottom).
//
// Validation happens before any byte is written:
//   - ErrInvalidBuffer: in or out is empty, pitch < width, or a buffer is
//     too small for the geometry.
//   - ErrUnsupportedFormat: format is not a supported value.
//   - ErrOutOfRange: r inverts or exceeds the frame bounds.
//
// When in and out are different slices they must not partially overlap;
// aliasing the exact same buffer is the supported in-place case.
//
// After the rows are written the cache controller is called once over
// out[:r.Dx()*r.Dy()*bpp]. An empty r is a successful no-op that still
// signals an empty range. A controller error is returned wrapped, after the
// output has been written.
func (c *Cropper) Crop(in, out []byte, pitch, width, height int, format Format, r Rect) error {
	if len(in) == 0 || len(out) == 0 {
		return errors.Wrapf(ErrInvalidBuffer, "input %d bytes, output %d bytes", len(in), len(out))
	}
	if !format.Valid() {
		return errors.Wrapf(ErrUnsupportedFormat, "crop format %s", format)
	}
	if !r.In(width, height) {
		return errors.Wrapf(ErrOutOfRange, "crop %s of %dx%d frame", r, width, height)
	}
	if pitch < width {
		return errors.Wrapf(ErrInvalidBuffer, "pitch %d smaller than width %d", pitch, width)
	}

	bpp := format.Depth() / 8
	if !fits(len(in), pitch, height, bpp) {
		return errors.Wrapf(ErrInvalidBuffer, "input holds %d bytes, too few for %d rows of pitch %d",
			len(in), height, pitch)
	}
	newWidth, newHeight := r.Dx(), r.Dy()
	if !fits(len(out), newWidth, newHeight, bpp) {
		return errors.Wrapf(ErrInvalidBuffer, "output holds %d bytes, too few for %dx%d crop",
			len(out), newWidth, newHeight)
	}
	size := newWidth * newHeight * bpp

	if r.Left == 0 && r.Top == 0 && r.Right == width && r.Bottom == height && pitch == width {
		// Full frame: a copy, or nothing at all when cropping in place.
		if &in[0] != &out[0] {
			copy(out[:size], in[:size])
		}
		return c.flush(out[:size])
	}

	srcStride := pitch * bpp
	rowBytes := newWidth * bpp
	src := r.Top*srcStride + r.Left*bpp
	dst := 0
	for i := 0; i < newHeight; i++ {
		// copy has memmove semantics, so in-place rows may overlap.
		copy(out[dst:dst+rowBytes], in[src:src+rowBytes])
		src += srcStride
		dst += rowBytes
	}

	return c.flush(out[:size])
}

// CropImage crops r from in into out.
//
// out must already describe the result: its Width and Height must equal
// r.Dx() and r.Dy() (else ErrSizeMismatch) and its Format must equal
// in.Format (else ErrFormatMismatch). Both checks run before any byte moves;
// the copy itself is Crop with in's geometry. The output is written densely,
// so out.Pitch should equal out.Width for the descriptor to read back.
func (c *Cropper) CropImage(in, out *Image, r Rect) error {
	if in == nil || out == nil {
		return errors.Wrap(ErrInvalidBuffer, "nil image descriptor")
	}
	if out.Width != r.Dx() || out.Height != r.Dy() {
		return errors.Wrapf(ErrSizeMismatch, "crop %s is %dx%d, output is %dx%d",
			r, r.Dx(), r.Dy(), out.Width, out.Height)
	}
	if out.Format != in.Format {
		return errors.Wrapf(ErrFormatMismatch, "input %s, output %s", in.Format, out.Format)
	}
	return c.Crop(in.Data, out.Data, in.Pitch, in.Width, in.Height, in.Format, r)
}

func (c *Cropper) flush(b []byte) error {
	if err := c.cache.FlushInvalidate(b); err != nil {
		return errors.Wrap(err, "cache flush")
	}
	return nil
}
