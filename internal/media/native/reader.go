package native

import (
	"unsafe"

	"symphonia/internal/media"
)

const formatName = "native"

// cPacket matches the repr(C) Packet the library returns.
type cPacket struct {
	TrackID   uint32
	TS        uint64
	Dur       uint64
	TrimStart uint32
	TrimEnd   uint32
	Data      uintptr
	DataLen   uintptr
}

// Reader is a media.FormatReader over a native format handle. The library
// consumes the handle on the first next-packet call, so a Reader yields at
// most one packet.
type Reader struct {
	lib    *Library
	format uintptr
	read   bool
	closed bool
}

var _ media.FormatReader = (*Reader)(nil)

func (r *Reader) FormatInfo() media.FormatInfo {
	return media.FormatInfo{Format: formatName, ShortName: "symphonia_ffi", LongName: "symphonia native library"}
}

// Tracks is empty: the library does not expose track metadata.
func (r *Reader) Tracks() []media.Track { return nil }

func (r *Reader) NextPacket() (*media.Packet, error) {
	if r.closed {
		return nil, media.ErrClosed
	}
	if r.read {
		return nil, media.ErrEndOfStream
	}
	r.read = true

	r.lib.mu.Lock()
	defer r.lib.mu.Unlock()
	if r.lib.closed {
		return nil, media.ErrClosed
	}
	ptr := r.lib.fns.nextPacket(r.format)
	r.format = 0
	if ptr == 0 {
		return nil, media.ErrEndOfStream
	}
	return copyPacket(ptr), nil
}

// Close drops the reader. A handle that was never read is leaked because the
// library exports no destructor for it.
func (r *Reader) Close() error {
	r.closed = true
	r.format = 0
	return nil
}

// copyPacket moves a native packet into Go memory. The native allocation is
// not released since the library exports no free function.
func copyPacket(ptr uintptr) *media.Packet {
	cp := *(*cPacket)(unsafe.Pointer(ptr)) //nolint:govet // pointer owned by the native library
	pkt := &media.Packet{
		TrackID:   cp.TrackID,
		PTS:       cp.TS,
		DTS:       int64(cp.TS),
		Dur:       cp.Dur,
		TrimStart: cp.TrimStart,
		TrimEnd:   cp.TrimEnd,
	}
	if cp.Data != 0 && cp.DataLen > 0 {
		src := unsafe.Slice((*byte)(unsafe.Pointer(cp.Data)), int(cp.DataLen)) //nolint:govet
		pkt.Data = append([]byte(nil), src...)
	}
	return pkt
}
