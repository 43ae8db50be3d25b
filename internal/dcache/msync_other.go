//go:build !linux && !darwin

package dcache

import (
	"log"

	"github.com/pkg/errors"
)

// Msync is unavailable on this platform; every flush fails.
type Msync struct{}

// NewMsync returns a controller whose flushes always fail.
func NewMsync(region []byte, logger *log.Logger) *Msync {
	return &Msync{}
}

// FlushInvalidate reports that msync is not supported here.
func (m *Msync) FlushInvalidate(b []byte) error {
	return errors.New("msync not supported on this platform")
}
