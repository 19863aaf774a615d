package regression

import (
	"fmt"
	"strconv"
	"strings"

	"symphonia/internal/media"
)

// PacketLine is a parsed "n, track_id, pts, dts, dur, data_len" entry.
type PacketLine struct {
	N       int
	TrackID uint32
	PTS     uint64
	DTS     int64
	Dur     uint64
	DataLen int
}

// ParsePacketLine parses one packet id string.
func ParsePacketLine(s string) (PacketLine, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return PacketLine{}, fmt.Errorf("packet id %q: want 6 comma separated fields, got %d", s, len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	var (
		line PacketLine
		err  error
		u    uint64
	)
	if line.N, err = strconv.Atoi(parts[0]); err != nil {
		return PacketLine{}, fmt.Errorf("packet id %q: n: %w", s, err)
	}
	if u, err = strconv.ParseUint(parts[1], 10, 32); err != nil {
		return PacketLine{}, fmt.Errorf("packet id %q: track_id: %w", s, err)
	}
	line.TrackID = uint32(u)
	if line.PTS, err = strconv.ParseUint(parts[2], 10, 64); err != nil {
		return PacketLine{}, fmt.Errorf("packet id %q: pts: %w", s, err)
	}
	if line.DTS, err = strconv.ParseInt(parts[3], 10, 64); err != nil {
		return PacketLine{}, fmt.Errorf("packet id %q: dts: %w", s, err)
	}
	if line.Dur, err = strconv.ParseUint(parts[4], 10, 64); err != nil {
		return PacketLine{}, fmt.Errorf("packet id %q: dur: %w", s, err)
	}
	if line.DataLen, err = strconv.Atoi(parts[5]); err != nil || line.DataLen < 0 {
		return PacketLine{}, fmt.Errorf("packet id %q: data_len: invalid", s)
	}
	return line, nil
}

// LineOf renders pkt as the n-th packet line.
func LineOf(n int, pkt *media.Packet) PacketLine {
	return PacketLine{
		N:       n,
		TrackID: pkt.TrackID,
		PTS:     pkt.PTS,
		DTS:     pkt.DTS,
		Dur:     pkt.Dur,
		DataLen: pkt.Len(),
	}
}

func (l PacketLine) String() string {
	return fmt.Sprintf("%d, %d, %d, %d, %d, %d", l.N, l.TrackID, l.PTS, l.DTS, l.Dur, l.DataLen)
}
