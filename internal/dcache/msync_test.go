//go:build linux || darwin

package dcache

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/ironsheep/viewfinder/internal/imaging"
)

// mapFile maps a fresh shared file of size bytes and returns the mapping and
// the file path.
func mapFile(t *testing.T, size int) ([]byte, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fb")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, f.Truncate(int64(size)))

	mem, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	require.NoError(t, err)
	t.Cleanup(func() { unix.Munmap(mem) })
	return mem, path
}

func TestMsync_FlushesToFile(t *testing.T) {
	page := unix.Getpagesize()
	mem, path := mapFile(t, 3*page)

	var trace bytes.Buffer
	var cc imaging.CacheController = NewMsync(mem, log.New(&trace, "", 0))

	copy(mem[page+10:], "frame")
	require.NoError(t, cc.FlushInvalidate(mem[page+10:page+15]))

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "frame", string(onDisk[page+10:page+15]))
	assert.Contains(t, trace.String(), "msync")
}

func TestMsync_Empty(t *testing.T) {
	mem, _ := mapFile(t, unix.Getpagesize())
	assert.NoError(t, NewMsync(mem, nil).FlushInvalidate(nil))
	assert.NoError(t, NewMsync(mem, nil).FlushInvalidate(mem[:0]))
}

func TestMsync_OutsideMapping(t *testing.T) {
	mem, _ := mapFile(t, unix.Getpagesize())

	err := NewMsync(mem, nil).FlushInvalidate(make([]byte, 16))
	assert.ErrorIs(t, err, ErrOutsideMapping)

	err = NewMsync(nil, nil).FlushInvalidate(mem[:4])
	assert.ErrorIs(t, err, ErrOutsideMapping)
}

func TestMsync_WithCropper(t *testing.T) {
	page := unix.Getpagesize()
	mem, path := mapFile(t, page)
	c := imaging.NewCropper(NewMsync(mem, nil))

	in := []byte{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}
	require.NoError(t, c.Crop(in, mem, 4, 4, 4, imaging.I400, imaging.Rect{Left: 1, Top: 1, Right: 3, Bottom: 3}))

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{6, 7, 10, 11}, onDisk[:4])
}
