//go:build linux || darwin

package dcache

import (
	"log"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Msync flushes writes to a memory-mapped region back to the mapped object
// and invalidates other cached copies of it.
//
// region must be the slice returned by unix.Mmap (or a page-aligned prefix
// of it).
type Msync struct {
	region []byte
	page   int
	flags  int
	logger *log.Logger
}

// NewMsync returns a controller for region. A non-nil logger receives one
// line per flush.
func NewMsync(region []byte, logger *log.Logger) *Msync {
	return &Msync{
		region: region,
		page:   unix.Getpagesize(),
		flags:  unix.MS_SYNC | unix.MS_INVALIDATE,
		logger: logger,
	}
}

// FlushInvalidate syncs the pages covering b. An empty b is a no-op.
func (m *Msync) FlushInvalidate(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if len(m.region) == 0 {
		return errors.Wrap(ErrOutsideMapping, "no mapped region")
	}

	base := uintptr(unsafe.Pointer(unsafe.SliceData(m.region)))
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	if addr < base || addr+uintptr(len(b)) > base+uintptr(len(m.region)) {
		return errors.Wrapf(ErrOutsideMapping, "%d bytes at %#x, region %d bytes at %#x",
			len(b), addr, len(m.region), base)
	}

	start, end := pageSpan(int(addr-base), len(b), m.page, len(m.region))
	if err := unix.Msync(m.region[start:end], m.flags); err != nil {
		return errors.Wrapf(err, "msync [%d,%d)", start, end)
	}
	if m.logger != nil {
		m.logger.Printf("msync [%d,%d) for %d bytes", start, end, len(b))
	}
	return nil
}
