//go:build linux || darwin

package display

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/viewfinder/internal/imaging"
)

func newFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fb0")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	return path
}

func TestOpen_GrowsRegularFile(t *testing.T) {
	path := newFile(t)
	g := Geometry{Width: 8, Height: 4, Format: imaging.RGB565}

	fb, err := Open(path, g, nil)
	require.NoError(t, err)
	defer fb.Close()

	stat, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(8*4*2), stat.Size())

	img := fb.Image()
	assert.Equal(t, 8, img.Pitch)
	assert.NoError(t, img.Validate())
}

func TestFramebuffer_CropIntoDisplay(t *testing.T) {
	path := newFile(t)
	fb, err := Open(path, Geometry{Width: 2, Height: 2, Format: imaging.I400}, nil)
	require.NoError(t, err)

	src, err := imaging.Wrap([]byte{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}, 4, 4, imaging.I400)
	require.NoError(t, err)

	c := imaging.NewCropper(fb.Cache())
	require.NoError(t, c.CropImage(src, fb.Image(), imaging.Rect{Left: 1, Top: 1, Right: 3, Bottom: 3}))
	require.NoError(t, fb.Close())

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{6, 7, 10, 11}, onDisk)
}

func TestFramebuffer_Clear(t *testing.T) {
	path := newFile(t)
	require.NoError(t, os.WriteFile(path, []byte{9, 9, 9, 9}, 0o644))

	fb, err := Open(path, Geometry{Width: 2, Height: 2, Format: imaging.I400}, nil)
	require.NoError(t, err)
	require.NoError(t, fb.Clear())
	require.NoError(t, fb.Close())

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, onDisk)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"), Geometry{Width: 2, Height: 2, Format: imaging.I400}, nil)
	assert.Error(t, err)

	_, err = Open(newFile(t), Geometry{Width: 0, Height: 2, Format: imaging.I400}, nil)
	assert.Error(t, err)

	_, err = Open(newFile(t), Geometry{Width: 2, Height: 2, Format: imaging.Format(50)}, nil)
	assert.ErrorIs(t, err, imaging.ErrUnsupportedFormat)

	_, err = Open(newFile(t), Geometry{Width: 4, Height: 2, Pitch: 3, Format: imaging.I400}, nil)
	assert.Error(t, err)
}

func TestGeometry_Size(t *testing.T) {
	assert.Equal(t, 480*272*3, Geometry{Width: 480, Height: 272, Format: imaging.BGR888}.Size())
	assert.Equal(t, 512*272*2, Geometry{Width: 480, Height: 272, Pitch: 512, Format: imaging.RGB565}.Size())
}
