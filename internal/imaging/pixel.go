package imaging

import (
	"encoding/binary"
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// At decodes pixel (x, y) into non-premultiplied RGBA. Formats without an
// alpha channel decode as opaque; Alpha8 decodes as white with that alpha.
func (m *Image) At(x, y int) color.NRGBA {
	return decodePixel(m.Format, m.Pixel(x, y))
}

// Set encodes c into pixel (x, y).
func (m *Image) Set(x, y int, c color.Color) {
	encodePixel(m.Format, m.Pixel(x, y), color.NRGBAModel.Convert(c).(color.NRGBA))
}

func decodePixel(f Format, p []byte) color.NRGBA {
	switch f {
	case Alpha8:
		return color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: p[0]}
	case I400:
		return color.NRGBA{R: p[0], G: p[0], B: p[0], A: 0xff}
	case RGB565:
		w := binary.LittleEndian.Uint16(p)
		return color.NRGBA{R: expand5(w >> 11), G: expand6(w >> 5), B: expand5(w), A: 0xff}
	case ARGB1555:
		w := binary.LittleEndian.Uint16(p)
		return color.NRGBA{R: expand5(w >> 10), G: expand5(w >> 5), B: expand5(w), A: expand1(w >> 15)}
	case ARGB4444:
		w := binary.LittleEndian.Uint16(p)
		return color.NRGBA{R: expand4(w >> 8), G: expand4(w >> 4), B: expand4(w), A: expand4(w >> 12)}
	case RGBA5551:
		w := binary.LittleEndian.Uint16(p)
		return color.NRGBA{R: expand5(w >> 11), G: expand5(w >> 6), B: expand5(w >> 1), A: expand1(w)}
	case RGBA4444:
		w := binary.LittleEndian.Uint16(p)
		return color.NRGBA{R: expand4(w >> 12), G: expand4(w >> 8), B: expand4(w >> 4), A: expand4(w)}
	case RGB888:
		return color.NRGBA{R: p[0], G: p[1], B: p[2], A: 0xff}
	case BGR888:
		return color.NRGBA{R: p[2], G: p[1], B: p[0], A: 0xff}
	case ARGB8888:
		return color.NRGBA{R: p[2], G: p[1], B: p[0], A: p[3]}
	case RGBA8888:
		return color.NRGBA{R: p[3], G: p[2], B: p[1], A: p[0]}
	}
	return color.NRGBA{}
}

func encodePixel(f Format, p []byte, c color.NRGBA) {
	r, g, b, a := uint16(c.R), uint16(c.G), uint16(c.B), uint16(c.A)
	switch f {
	case Alpha8:
		p[0] = c.A
	case I400:
		p[0] = color.GrayModel.Convert(c).(color.Gray).Y
	case RGB565:
		binary.LittleEndian.PutUint16(p, r>>3<<11|g>>2<<5|b>>3)
	case ARGB1555:
		binary.LittleEndian.PutUint16(p, a>>7<<15|r>>3<<10|g>>3<<5|b>>3)
	case ARGB4444:
		binary.LittleEndian.PutUint16(p, a>>4<<12|r>>4<<8|g>>4<<4|b>>4)
	case RGBA5551:
		binary.LittleEndian.PutUint16(p, r>>3<<11|g>>3<<6|b>>3<<1|a>>7)
	case RGBA4444:
		binary.LittleEndian.PutUint16(p, r>>4<<12|g>>4<<8|b>>4<<4|a>>4)
	case RGB888:
		p[0], p[1], p[2] = c.R, c.G, c.B
	case BGR888:
		p[0], p[1], p[2] = c.B, c.G, c.R
	case ARGB8888:
		p[0], p[1], p[2], p[3] = c.B, c.G, c.R, c.A
	case RGBA8888:
		p[0], p[1], p[2], p[3] = c.A, c.B, c.G, c.R
	}
}

func expand1(v uint16) uint8 {
	if v&0x1 != 0 {
		return 0xff
	}
	return 0
}

func expand4(v uint16) uint8 {
	v &= 0xf
	return uint8(v<<4 | v)
}

func expand5(v uint16) uint8 {
	v &= 0x1f
	return uint8(v<<3 | v>>2)
}

func expand6(v uint16) uint8 {
	v &= 0x3f
	return uint8(v<<2 | v>>4)
}

// ToNRGBA decodes a frame into a standard library image so it can be encoded
// to PNG or handed to image libraries.
func ToNRGBA(m *Image) (*image.NRGBA, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	dst := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < m.Width; x++ {
			c := m.At(x, y)
			i := x * 4
			row[i], row[i+1], row[i+2], row[i+3] = c.R, c.G, c.B, c.A
		}
	}
	return dst, nil
}

// FromImage encodes src into a newly allocated frame of the given format.
// A pitch of 0 means a dense frame.
func FromImage(src image.Image, pitch int, format Format) (*Image, error) {
	b := src.Bounds()
	m, err := NewImage(pitch, b.Dx(), b.Dy(), format)
	if err != nil {
		return nil, err
	}
	if err := EncodeInto(m, src); err != nil {
		return nil, err
	}
	return m, nil
}

// EncodeInto writes src into an existing frame. src must have the frame's
// dimensions; its bounds need not start at the origin.
func EncodeInto(dst *Image, src image.Image) error {
	if err := dst.Validate(); err != nil {
		return err
	}
	b := src.Bounds()
	if b.Dx() != dst.Width || b.Dy() != dst.Height {
		return errors.Wrapf(ErrSizeMismatch, "source is %dx%d, frame is %dx%d",
			b.Dx(), b.Dy(), dst.Width, dst.Height)
	}
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			dst.Set(x, y, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return nil
}
