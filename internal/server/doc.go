// Package server implements the MCP (Model Context Protocol) server for frame
// buffer tools.
//
// The server loads image files into raw frames of a chosen pixel format and
// exposes the same crop operation the viewfinder uses, so a client can inspect
// exactly what a display would receive.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - frame_formats: List pixel formats with bit depth
//   - frame_load: Load a file into a frame and report its geometry
//   - frame_crop: Crop [left,right) x [top,bottom), optionally in place
//   - frame_crop_region: Crop a named region (top-left, center, full, ...)
//   - frame_sample_pixel: Color stored at one pixel
//   - frame_sample_pixels: Colors at several labeled pixels
//
// Every tool that takes a path also takes an optional format, rgb888 when
// omitted.
//
// # Frame Caching
//
// Frames are cached by path and format for the lifetime of the process. Each
// tool call works on its own copy, so an in-place crop never changes what the
// next call sees.
//
// # Error Handling
//
// Errors are returned as JSON-RPC error responses:
//   - -32602: malformed params, missing or invalid arguments, unknown tool
//   - -32000: the tool ran and failed (unreadable file, crop out of range)
//   - -32601: unknown method
//
// The data field carries the Go error string.
package server
