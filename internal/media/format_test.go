package media_test

import (
	"testing"

	"symphonia/internal/media"
)

type scriptedReader struct {
	packets []*media.Packet
}

func (r *scriptedReader) FormatInfo() media.FormatInfo {
	return media.FormatInfo{Format: "test", ShortName: "test"}
}

func (r *scriptedReader) Tracks() []media.Track { return nil }

// NextPacket hands out packets in order, nil entries included, and then
// reports end of stream.
func (r *scriptedReader) NextPacket() (*media.Packet, error) {
	if len(r.packets) == 0 {
		return nil, media.ErrEndOfStream
	}
	pkt := r.packets[0]
	r.packets = r.packets[1:]
	return pkt, nil
}

func (r *scriptedReader) Close() error { return nil }

func TestReadPacketRejectsMissingPacket(t *testing.T) {
	reader := &scriptedReader{packets: []*media.Packet{{PTS: 7}, nil}}

	pkt, err := media.ReadPacket(reader)
	if err != nil || pkt.PTS != 7 {
		t.Fatalf("unexpected first read: got %+v, %v", pkt, err)
	}
	pkt, err = media.ReadPacket(reader)
	if media.KindOf(err) != media.KindDecode || pkt != nil {
		t.Fatalf("unexpected second read: got %+v, %v want decode error", pkt, err)
	}
	if _, err := media.ReadPacket(reader); !media.IsEndOfStream(err) {
		t.Fatalf("unexpected third read: got %v want end of stream", err)
	}
}
