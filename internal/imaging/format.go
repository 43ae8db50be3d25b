package imaging

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Format identifies the pixel encoding of a frame buffer.
//
// Only packed, byte-aligned encodings are members of the set. Multi-byte
// pixels are stored as little-endian words; the channel named first in the
// format name occupies the most significant bits of the word. RGB888 and
// BGR888 are stored as three bytes in the order of their name.
type Format uint8

const (
	Alpha8 Format = iota
	I400
	RGB565
	ARGB1555
	ARGB4444
	RGBA5551
	RGBA4444
	RGB888
	BGR888
	ARGB8888
	RGBA8888

	formatCount
)

// formatNames is indexed by Format.
var formatNames = [formatCount]string{
	Alpha8:   "alpha8",
	I400:     "i400",
	RGB565:   "rgb565",
	ARGB1555: "argb1555",
	ARGB4444: "argb4444",
	RGBA5551: "rgba5551",
	RGBA4444: "rgba4444",
	RGB888:   "rgb888",
	BGR888:   "bgr888",
	ARGB8888: "argb8888",
	RGBA8888: "rgba8888",
}

// formatDepths holds bits per pixel, indexed by Format.
var formatDepths = [formatCount]int{
	Alpha8:   8,
	I400:     8,
	RGB565:   16,
	ARGB1555: 16,
	ARGB4444: 16,
	RGBA5551: 16,
	RGBA4444: 16,
	RGB888:   24,
	BGR888:   24,
	ARGB8888: 32,
	RGBA8888: 32,
}

// Formats returns every supported format in declaration order.
func Formats() []Format {
	out := make([]Format, 0, formatCount)
	for f := Format(0); f < formatCount; f++ {
		out = append(out, f)
	}
	return out
}

// Valid reports whether f is a member of the supported set.
func (f Format) Valid() bool {
	return f < formatCount
}

// Depth returns the number of bits per pixel, or 0 for an invalid format.
func (f Format) Depth() int {
	if !f.Valid() {
		return 0
	}
	return formatDepths[f]
}

// BytesPerPixel returns Depth()/8.
func (f Format) BytesPerPixel() int {
	return f.Depth() / 8
}

func (f Format) String() string {
	if !f.Valid() {
		return "format(" + strconv.Itoa(int(f)) + ")"
	}
	return formatNames[f]
}

// MarshalText implements encoding.TextMarshaler so formats read naturally in
// JSON configuration and tool results.
func (f Format) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "cannot marshal %s", f)
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseFormat converts a case-insensitive format name ("rgb565", "RGB888")
// into a Format.
func ParseFormat(name string) (Format, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for f, fn := range formatNames {
		if fn == n {
			return Format(f), nil
		}
	}
	return 0, errors.Wrapf(ErrUnsupportedFormat, "unknown format %q", name)
}
