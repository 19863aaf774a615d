package crosscheck

import (
	"symphonia/internal/media"
	"symphonia/internal/media/ffprobe"
)

// PacketFailure is one packet whose timestamps disagree with ffprobe.
// Missing is set when the reader ran out before ffprobe's list did.
type PacketFailure struct {
	Index   int    `json:"index"`
	WantPTS int64  `json:"want_pts"`
	WantDTS int64  `json:"want_dts"`
	GotPTS  uint64 `json:"got_pts"`
	GotDTS  int64  `json:"got_dts"`
	Missing bool   `json:"missing,omitempty"`
}

// PacketReport is the outcome of ComparePackets.
type PacketReport struct {
	TrackID  uint32          `json:"track_id"`
	Total    int             `json:"total"`
	Failed   int             `json:"failed"`
	Failures []PacketFailure `json:"failures,omitempty"`
}

// OK reports whether every packet matched.
func (r PacketReport) OK() bool {
	return r.Failed == 0
}

// ComparePackets walks the packets reader yields for trackID and compares
// their timestamps, in order, with the packets ffprobe listed for the same
// stream. Packets of other tracks are skipped. Comparison stops at the
// first packet the reader cannot supply; a read error other than end of
// stream is returned with the report built so far.
func ComparePackets(reader media.FormatReader, trackID uint32, want []ffprobe.Packet) (PacketReport, error) {
	report := PacketReport{TrackID: trackID, Total: len(want)}
	for i, expected := range want {
		pkt, err := nextTrackPacket(reader, trackID)
		if media.IsEndOfStream(err) {
			report.Failed += len(want) - i
			report.Failures = append(report.Failures, PacketFailure{
				Index:   i,
				WantPTS: expected.PTS,
				WantDTS: expected.DTS,
				Missing: true,
			})
			break
		}
		if err != nil {
			return report, err
		}
		if int64(pkt.PTS) != expected.PTS || pkt.DTS != expected.DTS {
			report.Failed++
			report.Failures = append(report.Failures, PacketFailure{
				Index:   i,
				WantPTS: expected.PTS,
				WantDTS: expected.DTS,
				GotPTS:  pkt.PTS,
				GotDTS:  pkt.DTS,
			})
		}
	}
	return report, nil
}

func nextTrackPacket(reader media.FormatReader, trackID uint32) (*media.Packet, error) {
	for {
		pkt, err := media.ReadPacket(reader)
		if err != nil {
			return nil, err
		}
		if pkt.TrackID == trackID {
			return pkt, nil
		}
	}
}
