package flv_test

import (
	"bytes"
	"errors"
	"testing"

	"symphonia/internal/media"
	"symphonia/internal/media/flv"
	"symphonia/internal/testsupport"
)

func open(t *testing.T, data []byte) (*flv.Reader, error) {
	t.Helper()
	src, err := media.NewSourceStream(bytes.NewReader(data), media.DefaultSourceOptions())
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	r, err := flv.Open(src)
	if err == nil {
		t.Cleanup(func() { _ = r.Close() })
	}
	return r, err
}

// aacConfig48kStereo is an AudioSpecificConfig for AAC LC, 48 kHz, 2 channels.
var aacConfig48kStereo = []byte{0x11, 0x90}

func sampleFile() []byte {
	return testsupport.FLV(true, true,
		testsupport.FLVTag{Type: 18, Timestamp: 0, Data: []byte{0x02, 0x00, 0x0A, 'o', 'n', 'M', 'e', 't', 'a', 'D', 'a', 't', 'a'}},
		testsupport.FLVTag{Type: 9, Timestamp: 0, Data: testsupport.FLVAVC(true, 0, 0, []byte{1, 0x64, 0, 0x1F})},
		testsupport.FLVTag{Type: 8, Timestamp: 0, Data: testsupport.FLVAAC(0, aacConfig48kStereo)},
		testsupport.FLVTag{Type: 9, Timestamp: 0, Data: testsupport.FLVAVC(true, 1, 80, []byte{0, 0, 0, 2, 0x65, 0x88})},
		testsupport.FLVTag{Type: 8, Timestamp: 10, Data: testsupport.FLVAAC(1, []byte{0x21, 0x10})},
		testsupport.FLVTag{Type: 9, Timestamp: 0x01000028, Data: testsupport.FLVAVC(false, 1, -40, []byte{0, 0, 0, 1, 0x41})},
	)
}

func TestTracksFromFirstTags(t *testing.T) {
	r, err := open(t, sampleFile())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	tracks := r.Tracks()
	if len(tracks) != 2 {
		t.Fatalf("unexpected track count: got %d want 2", len(tracks))
	}
	video, audio := tracks[0], tracks[1]
	if video.ID != 1 || video.Codec != "h264" || video.Type != media.TrackVideo {
		t.Fatalf("unexpected video track: %+v", video)
	}
	if audio.ID != 2 || audio.Codec != "aac" || audio.SampleRate != 48000 || audio.Channels != 2 {
		t.Fatalf("unexpected audio track: %+v", audio)
	}
	if audio.TimeBase != (media.TimeBase{Numer: 1, Denom: 1000}) {
		t.Fatalf("unexpected time base: %v", audio.TimeBase)
	}
	if video.Profile != "HIGH" || video.Level != 31 {
		t.Fatalf("unexpected video profile: got %q level %d want HIGH 31", video.Profile, video.Level)
	}
	if len(video.VideoExtraData) != 1 || video.VideoExtraData[0].ID != media.ExtraDataAVCConfig || len(video.VideoExtraData[0].Data) != 4 {
		t.Fatalf("unexpected video extra data: %+v", video.VideoExtraData)
	}
	if audio.Profile != "LC" || !bytes.Equal(audio.ExtraData, aacConfig48kStereo) {
		t.Fatalf("unexpected audio config: profile %q extra %x", audio.Profile, audio.ExtraData)
	}
}

func TestPacketsSkipConfigAndScript(t *testing.T) {
	r, err := open(t, sampleFile())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	want := []struct {
		track uint32
		pts   uint64
		dts   int64
		data  []byte
	}{
		{1, 80, 0, []byte{0, 0, 0, 2, 0x65, 0x88}},
		{2, 10, 10, []byte{0x21, 0x10}},
		{1, 0x01000000, 0x01000028, []byte{0, 0, 0, 1, 0x41}},
	}
	for i, w := range want {
		pkt, err := r.NextPacket()
		if err != nil {
			t.Fatalf("packet %d: %v", i, err)
		}
		if pkt.TrackID != w.track || pkt.PTS != w.pts || pkt.DTS != w.dts || !bytes.Equal(pkt.Data, w.data) {
			t.Fatalf("packet %d: got %s want track %d pts %d dts %d", i, pkt.ID(i), w.track, w.pts, w.dts)
		}
	}
	if _, err := r.NextPacket(); !errors.Is(err, media.ErrEndOfStream) {
		t.Fatalf("expected end of stream, got %v", err)
	}
}

func TestTruncatedTagIsDecodeError(t *testing.T) {
	file := sampleFile()
	r, err := open(t, file[:len(file)-8])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	var last error
	for i := 0; i < 4; i++ {
		if _, last = r.NextPacket(); last != nil {
			break
		}
	}
	if media.KindOf(last) != media.KindDecode {
		t.Fatalf("expected decode error, got %v", last)
	}
}

func TestHeaderOnly(t *testing.T) {
	r, err := open(t, testsupport.FLV(true, false))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := r.Tracks()[0].Codec; got != "unknown" {
		t.Fatalf("unexpected codec: got %q want %q", got, "unknown")
	}
	if _, err := r.NextPacket(); !media.IsEndOfStream(err) {
		t.Fatalf("expected end of stream, got %v", err)
	}

	_, err = open(t, testsupport.FLV(false, false))
	if media.KindOf(err) != media.KindProbe {
		t.Fatalf("expected probe error, got %v", err)
	}
}
