package imaging

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// fileFormats maps the extensions LoadFrame decodes to container names.
var fileFormats = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".gif":  "gif",
	".bmp":  "bmp",
	".tif":  "tiff",
	".tiff": "tiff",
}

// decoders and encoders hold extension-specific codecs for containers
// disintegration/imaging does not cover.
var (
	decoders = map[string]func(path string) (image.Image, error){}
	encoders = map[string]func(img image.Image, path string) error{}
)

// IsFrameFile reports whether path has an extension LoadFrame can decode.
func IsFrameFile(path string) bool {
	_, ok := fileFormats[strings.ToLower(filepath.Ext(path))]
	return ok
}

// OpenStill decodes an image file. EXIF orientation is applied so camera
// stills load upright.
func OpenStill(path string) (image.Image, error) {
	if dec, ok := decoders[strings.ToLower(filepath.Ext(path))]; ok {
		return dec(path)
	}
	return imaging.Open(path, imaging.AutoOrientation(true))
}

// LoadFrame decodes an image file (PNG, JPEG, GIF, BMP or TIFF, plus WebP in
// cgo builds) into a dense frame of the given format.
func LoadFrame(path string, format Format) (*Image, error) {
	if !format.Valid() {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "load %s", path)
	}
	src, err := OpenStill(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image")
	}
	return FromImage(src, 0, format)
}

// SaveFrame writes a frame to disk. The encoder is chosen from the file
// extension (.png, .jpg, .gif, .bmp, .tif, and lossless .webp in cgo builds).
func SaveFrame(m *Image, path string) error {
	img, err := ToNRGBA(m)
	if err != nil {
		return err
	}
	save := func(img image.Image, path string) error { return imaging.Save(img, path) }
	if enc, ok := encoders[strings.ToLower(filepath.Ext(path))]; ok {
		save = enc
	}
	if err := save(img, path); err != nil {
		return errors.Wrapf(err, "failed to save %s", path)
	}
	return nil
}

// FrameCache provides thread-safe caching of decoded frames to avoid
// redundant disk reads and conversions.
//
// Frames are keyed by path and format. Callers receive a private copy of the
// cached frame, so cropping it in place never disturbs the cache.
type FrameCache struct {
	mu     sync.RWMutex
	frames map[frameKey]*Image
}

type frameKey struct {
	path   string
	format Format
}

// NewFrameCache creates an empty cache.
func NewFrameCache() *FrameCache {
	return &FrameCache{
		frames: make(map[frameKey]*Image),
	}
}

// Load returns a copy of the frame for path in format, decoding the file on
// first use.
func (c *FrameCache) Load(path string, format Format) (*Image, error) {
	key := frameKey{path: path, format: format}

	c.mu.RLock()
	m, ok := c.frames[key]
	c.mu.RUnlock()
	if ok {
		return m.clone(), nil
	}

	m, err := LoadFrame(path, format)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.frames[key] = m
	c.mu.Unlock()

	return m.clone(), nil
}

// Len returns the number of cached frames.
func (c *FrameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.frames)
}

// Clear removes all frames from the cache.
func (c *FrameCache) Clear() {
	c.mu.Lock()
	c.frames = make(map[frameKey]*Image)
	c.mu.Unlock()
}

// Evict removes every format cached for path. Unknown paths are ignored.
func (c *FrameCache) Evict(path string) {
	c.mu.Lock()
	for k := range c.frames {
		if k.path == path {
			delete(c.frames, k)
		}
	}
	c.mu.Unlock()
}

func (m *Image) clone() *Image {
	cp := *m
	cp.Data = append([]byte(nil), m.Data...)
	return &cp
}

// FrameInfo describes a frame's geometry and memory footprint.
type FrameInfo struct {
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Pitch         int    `json:"pitch"`
	Format        Format `json:"format"`
	Depth         int    `json:"depth"`
	SizeBytes     int    `json:"size_bytes"`
	FileFormat    string `json:"file_format,omitempty"`
	FileSizeBytes int64  `json:"file_size_bytes,omitempty"`
}

// Info returns the frame's geometry.
func (m *Image) Info() FrameInfo {
	return FrameInfo{
		Width:     m.Width,
		Height:    m.Height,
		Pitch:     m.Pitch,
		Format:    m.Format,
		Depth:     m.Format.Depth(),
		SizeBytes: m.Size(),
	}
}

// LoadFrameInfo loads path through the cache and reports the resulting frame
// geometry together with the file's container format and size on disk.
// The container format comes from the extension, or is "unknown".
func LoadFrameInfo(cache *FrameCache, path string, format Format) (*FrameInfo, error) {
	m, err := cache.Load(path, format)
	if err != nil {
		return nil, err
	}
	stat, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat file")
	}

	info := m.Info()
	info.FileSizeBytes = stat.Size()
	info.FileFormat = "unknown"
	if name, ok := fileFormats[strings.ToLower(filepath.Ext(path))]; ok {
		info.FileFormat = name
	}
	return &info, nil
}
