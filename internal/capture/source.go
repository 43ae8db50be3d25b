// Package capture supplies camera frames to the viewfinder pipeline.
//
// A Source fills a caller-owned frame; the frame's geometry and format are
// the camera's. Frames handed to the pipeline are plain heap memory, so no
// cache maintenance is needed before reading them.
package capture

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sort"

	"github.com/anthonynsimon/bild/transform"
	"github.com/pkg/errors"

	fimg "github.com/ironsheep/viewfinder/internal/imaging"
)

// Source captures one frame into dst.
type Source interface {
	Capture(ctx context.Context, dst *fimg.Image) error
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, dst *fimg.Image) error

// Capture calls f(ctx, dst).
func (f SourceFunc) Capture(ctx context.Context, dst *fimg.Image) error {
	return f(ctx, dst)
}

// FileSource replays still images from disk as camera frames, cycling
// through them in name order. Each still is resized to the frame geometry
// and encoded into the frame format.
type FileSource struct {
	paths  []string
	next   int
	filter transform.ResampleFilter
	fitted map[fitKey]*image.RGBA
}

type fitKey struct {
	path          string
	width, height int
}

// NewFileSource collects the image files under dir (not recursive).
func NewFileSource(dir string) (*FileSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read capture directory")
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !fimg.IsFrameFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, errors.Errorf("no images in %s", dir)
	}
	sort.Strings(paths)

	return NewFileSourceFromPaths(paths...)
}

// NewFileSourceFromPaths replays the given files in order.
func NewFileSourceFromPaths(paths ...string) (*FileSource, error) {
	if len(paths) == 0 {
		return nil, errors.New("no capture files")
	}
	return &FileSource{
		paths:  paths,
		filter: transform.Linear,
		fitted: make(map[fitKey]*image.RGBA),
	}, nil
}

// Len returns the number of stills in the rotation.
func (s *FileSource) Len() int {
	return len(s.paths)
}

// Capture writes the next still into dst.
func (s *FileSource) Capture(ctx context.Context, dst *fimg.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := dst.Validate(); err != nil {
		return err
	}

	path := s.paths[s.next]
	s.next = (s.next + 1) % len(s.paths)

	key := fitKey{path: path, width: dst.Width, height: dst.Height}
	img, ok := s.fitted[key]
	if !ok {
		src, err := fimg.OpenStill(path)
		if err != nil {
			return errors.Wrapf(err, "capture %s", path)
		}
		img = transform.Resize(src, dst.Width, dst.Height, s.filter)
		s.fitted[key] = img
	}

	return fimg.EncodeInto(dst, img)
}
