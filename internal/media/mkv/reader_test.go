package mkv_test

import (
	"bytes"
	"errors"
	"testing"

	"symphonia/internal/media"
	"symphonia/internal/media/mkv"
	"symphonia/internal/testsupport"
)

func open(t *testing.T, data []byte) (*mkv.Reader, error) {
	t.Helper()
	src, err := media.NewSourceStream(bytes.NewReader(data), media.DefaultSourceOptions())
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	r, err := mkv.Open(src)
	if err == nil {
		t.Cleanup(func() { _ = r.Close() })
	}
	return r, err
}

var sampleTracks = []testsupport.MKVTrack{
	{Number: 1, Type: 1, Codec: "V_VP9", Default: true, Width: 320, Height: 240},
	{Number: 2, Type: 2, Codec: "A_OPUS", Language: "fre", Forced: true, SampleRate: 48000, Channels: 2, CodecDelay: 6_500_000},
	{Number: 3, Type: 17, Codec: "S_TEXT/UTF8", Language: "ger", Default: true},
}

func TestHeaderAndTracks(t *testing.T) {
	r, err := open(t, testsupport.Matroska("webm", sampleTracks, nil))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	info := r.FormatInfo()
	if info.ShortName != "matroska" || info.Format != "webm" {
		t.Fatalf("unexpected format info: %+v", info)
	}
	tracks := r.Tracks()
	if len(tracks) != 3 {
		t.Fatalf("unexpected track count: got %d want 3", len(tracks))
	}
	video, audio, subs := tracks[0], tracks[1], tracks[2]
	if video.Type != media.TrackVideo || video.Codec != "vp9" || video.Width != 320 || video.Height != 240 {
		t.Fatalf("unexpected video track: %+v", video)
	}
	if video.Language != "eng" {
		t.Fatalf("unexpected default language: got %q want %q", video.Language, "eng")
	}
	if audio.Codec != "opus" || audio.SampleRate != 48000 || audio.Channels != 2 {
		t.Fatalf("unexpected audio track: %+v", audio)
	}
	if audio.Flags.Default || !audio.Flags.Forced {
		t.Fatalf("unexpected audio flags: %+v", audio.Flags)
	}
	if audio.Delay != 6 {
		t.Fatalf("unexpected codec delay: got %d want 6", audio.Delay)
	}
	if audio.TimeBase != (media.TimeBase{Numer: 1, Denom: 1000}) {
		t.Fatalf("unexpected time base: %v", audio.TimeBase)
	}
	if subs.Type != media.TrackSubtitle || subs.Codec != "subrip" || subs.Language != "deu" {
		t.Fatalf("unexpected subtitle track: %+v", subs)
	}
}

func TestNoClustersIsEndOfStream(t *testing.T) {
	r, err := open(t, testsupport.Matroska("", sampleTracks, nil))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := r.NextPacket(); !errors.Is(err, media.ErrEndOfStream) {
		t.Fatalf("expected end of stream, got %v", err)
	}
}

func TestBlocksAndLacing(t *testing.T) {
	clusters := []testsupport.MKVCluster{
		{Timestamp: 1000, Blocks: []testsupport.MKVBlock{
			{Track: 1, Timecode: 0, Keyframe: true, Frames: [][]byte{{0x10, 0x11}}},
			{Track: 2, Timecode: 5, Lacing: testsupport.LacingXiph, Duration: 60, Frames: [][]byte{
				bytes.Repeat([]byte{0x21}, 300), {0x22}, {0x23, 0x23},
			}},
		}},
		{Timestamp: 2000, Blocks: []testsupport.MKVBlock{
			{Track: 2, Timecode: -10, Lacing: testsupport.LacingEBML, Frames: [][]byte{
				{1, 2, 3}, {4}, {5, 6, 7, 8, 9},
			}},
			{Track: 2, Timecode: 20, Lacing: testsupport.LacingFixed, Frames: [][]byte{{1, 1}, {2, 2}}},
			{Track: 9, Timecode: 0, Frames: [][]byte{{0xFF}}},
		}},
	}
	r, err := open(t, testsupport.Matroska("matroska", sampleTracks, clusters))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	want := []struct {
		track uint32
		pts   uint64
		dur   uint64
		size  int
	}{
		{1, 1000, 0, 2},
		{2, 1005, 20, 300},
		{2, 1025, 20, 1},
		{2, 1045, 20, 2},
		{2, 1990, 0, 3},
		{2, 1990, 0, 1},
		{2, 1990, 0, 5},
		{2, 2020, 0, 2},
		{2, 2020, 0, 2},
	}
	for i, w := range want {
		pkt, err := r.NextPacket()
		if err != nil {
			t.Fatalf("packet %d: %v", i, err)
		}
		if pkt.TrackID != w.track || pkt.PTS != w.pts || pkt.Dur != w.dur || len(pkt.Data) != w.size {
			t.Fatalf("packet %d: got %s want track %d pts %d dur %d size %d", i, pkt.ID(i), w.track, w.pts, w.dur, w.size)
		}
	}
	if _, err := r.NextPacket(); !errors.Is(err, media.ErrEndOfStream) {
		t.Fatalf("expected end of stream, got %v", err)
	}
}

func TestTruncatedBlockIsDecodeError(t *testing.T) {
	clusters := []testsupport.MKVCluster{{Timestamp: 0, Blocks: []testsupport.MKVBlock{
		{Track: 1, Keyframe: true, Frames: [][]byte{bytes.Repeat([]byte{0xAB}, 200)}},
	}}}
	file := testsupport.Matroska("matroska", sampleTracks, clusters)
	r, err := open(t, file[:len(file)-50])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := r.NextPacket(); media.KindOf(err) != media.KindDecode {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestRejectsForeignDocType(t *testing.T) {
	if !mkv.Match([]byte{0x1A, 0x45, 0xDF, 0xA3, 0x00}) {
		t.Fatal("expected EBML magic to match")
	}
	_, err := open(t, testsupport.Matroska("notmatroska", sampleTracks, nil))
	if media.KindOf(err) != media.KindProbe {
		t.Fatalf("expected probe error, got %v", err)
	}
}

func TestCodecPrivate(t *testing.T) {
	avcC := []byte{1, 77, 0x40, 31, 0xFF, 0xE0, 0x00}
	asc := []byte{0x13, 0x90}
	tracks := []testsupport.MKVTrack{
		{Number: 1, Type: 1, Codec: "V_MPEG4/ISO/AVC", Default: true, Width: 640, Height: 480, CodecPrivate: avcC},
		{Number: 2, Type: 2, Codec: "A_AAC", SampleRate: 44100, Channels: 2, CodecPrivate: asc},
		{Number: 3, Type: 2, Codec: "A_AAC/MPEG4/LC/SBR", SampleRate: 22050, Channels: 2},
		{Number: 4, Type: 1, Codec: "V_MPEG4/ISO/AVC", Width: 640, Height: 480, CodecPrivate: []byte{1}},
	}
	r, err := open(t, testsupport.Matroska("", tracks, nil))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	got := r.Tracks()

	video := got[0]
	if video.Profile != "MAIN" || video.Level != 31 {
		t.Fatalf("unexpected video profile: got %q level %d want MAIN 31", video.Profile, video.Level)
	}
	if len(video.VideoExtraData) != 1 || video.VideoExtraData[0].ID != media.ExtraDataAVCConfig || !bytes.Equal(video.VideoExtraData[0].Data, avcC) {
		t.Fatalf("unexpected video extra data: %+v", video.VideoExtraData)
	}
	if video.ExtraData != nil {
		t.Fatalf("unexpected codec private on video track: %x", video.ExtraData)
	}

	if audio := got[1]; audio.Profile != "LC" || !bytes.Equal(audio.ExtraData, asc) {
		t.Fatalf("unexpected aac track: profile %q extra %x", audio.Profile, audio.ExtraData)
	}
	if legacy := got[2]; legacy.Profile != "HE" || legacy.ExtraData != nil {
		t.Fatalf("unexpected legacy aac track: profile %q extra %x", legacy.Profile, legacy.ExtraData)
	}
	if short := got[3]; short.Profile != "" || short.Level != 0 || len(short.VideoExtraData) != 1 {
		t.Fatalf("unexpected truncated avc track: %+v", short)
	}
}
