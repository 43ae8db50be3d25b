package imaging

// CacheController makes a range of memory written by the CPU visible to other
// bus masters (display DMA, video engines) and discards stale cached copies.
//
// The crop operations call FlushInvalidate exactly once after every successful
// write, passing the written range of the output buffer. Nothing reading the
// output outside the CPU may observe it before the call returns.
type CacheController interface {
	FlushInvalidate(b []byte) error
}

// NopCache is the controller for hosts whose output buffers are always
// coherent, such as ordinary heap memory.
type NopCache struct{}

// FlushInvalidate does nothing.
func (NopCache) FlushInvalidate([]byte) error { return nil }

// CacheFunc adapts an ordinary function to CacheController.
type CacheFunc func(b []byte) error

// FlushInvalidate calls f(b).
func (f CacheFunc) FlushInvalidate(b []byte) error { return f(b) }
