package media

import "fmt"

// Packet is one demuxed unit of encoded data for a single track.
type Packet struct {
	TrackID uint32
	// PTS is the presentation timestamp in the track's time base.
	PTS uint64
	// DTS is the decode timestamp; it may be negative when the container
	// shifts decode order before presentation.
	DTS       int64
	Dur       uint64
	TrimStart uint32
	TrimEnd   uint32
	Data      []byte
}

// TS returns the presentation timestamp.
func (p *Packet) TS() uint64 { return p.PTS }

// Len returns the payload size in bytes.
func (p *Packet) Len() int { return len(p.Data) }

// ID renders the packet as "n, track_id, pts, dts, dur, data_len", the line
// format used by regression expectation files.
func (p *Packet) ID(n int) string {
	return fmt.Sprintf("%d, %d, %d, %d, %d, %d", n, p.TrackID, p.PTS, p.DTS, p.Dur, len(p.Data))
}
