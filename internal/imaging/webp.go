//go:build cgo

package imaging

import (
	"image"
	"os"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
)

func init() {
	fileFormats[".webp"] = "webp"
	decoders[".webp"] = decodeWebP
	encoders[".webp"] = encodeWebP
}

func decodeWebP(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := webp.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode webp %s", path)
	}
	return img, nil
}

// encodeWebP writes lossless WebP so saved frames read back bit-exact.
func encodeWebP(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := webp.Encode(f, img, &webp.Options{Lossless: true}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
