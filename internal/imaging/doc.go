// Package imaging holds the frame buffer model and the crop operation used
// between camera capture and display refresh.
//
// A frame is a flat, row-major byte buffer described by an Image: pitch
// (pixels allocated per row), width, height and a Format. Formats are a closed
// set of packed encodings whose pixels are whole bytes; Format.Depth gives the
// bits per pixel used for all byte arithmetic.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner. Regions
// are half-open: Rect{Left, Top, Right, Bottom} covers columns [Left, Right)
// and rows [Top, Bottom).
//
// # Cropping
//
// Cropper.Crop copies a region from a source buffer to a destination buffer,
// or compacts it into the top-left of the same buffer when both are the
// same slice. The destination is written densely with the region width as
// its pitch. Cropper.CropImage does the same over descriptors and also checks
// that the output descriptor matches the region size and source format.
//
// # Cache Maintenance
//
// Output buffers may be read by hardware that bypasses the CPU data cache.
// Every successful crop calls the Cropper's CacheController once over the
// written range before returning. Hosts without such hardware use NopCache.
//
// # Errors
//
// All validation runs before any byte is written. Failures wrap one of
// ErrInvalidBuffer, ErrOutOfRange, ErrSizeMismatch, ErrFormatMismatch or
// ErrUnsupportedFormat; test with errors.Is.
//
// # Thread Safety
//
// FrameCache is safe for concurrent use. A Cropper may be shared, but each
// call needs exclusive access to its output buffer.
package imaging
