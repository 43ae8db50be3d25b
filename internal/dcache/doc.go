// Package dcache provides imaging.CacheController implementations for
// output buffers that live in memory shared with a display or other DMA
// reader.
//
// Msync maintains a memory-mapped region with msync(2). The range passed to
// FlushInvalidate is widened to whole pages, since the kernel operates on
// pages, and must lie inside the mapping the controller was built for.
package dcache
