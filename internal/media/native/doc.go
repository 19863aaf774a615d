// Package native binds the symphonia_ffi shared library through purego.
//
// The library exposes three calls: construct a media source stream from a
// file, probe it into a format reader and pull one packet. Handles are opaque
// and owned by the library; Reader wraps them in the media.FormatReader
// lifecycle. No cgo is required.
package native
