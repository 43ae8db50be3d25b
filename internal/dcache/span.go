package dcache

import "github.com/pkg/errors"

// ErrOutsideMapping reports a flush range that is not part of the mapped
// region a controller maintains.
var ErrOutsideMapping = errors.New("range outside mapped region")

// pageSpan widens [off, off+n) to page boundaries and clamps the end to
// limit. page must be a power of two.
func pageSpan(off, n, page, limit int) (int, int) {
	start := off &^ (page - 1)
	end := (off + n + page - 1) &^ (page - 1)
	if end > limit {
		end = limit
	}
	return start, end
}
