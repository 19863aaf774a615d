package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"symphonia/internal/config"
	"symphonia/internal/history"
	"symphonia/internal/logging"
	"symphonia/internal/media"
	"symphonia/internal/testsupport"
	"symphonia/internal/workflow"
)

func newRunner(t *testing.T, cfg *config.Config) *workflow.Runner {
	t.Helper()
	runner, err := workflow.FromConfig(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	t.Cleanup(func() { _ = runner.Close() })
	return runner
}

func TestRunDecodesFirstPacket(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutHistory())
	runner := newRunner(t, cfg)
	path := testsupport.WriteMedia(t, "tone.wav", testsupport.WAV(1, 8000, 16, testsupport.PCMFrames(1600, 1), ""))

	res, err := runner.Run(context.Background(), path)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Probed() || res.Format.ShortName != "wave" {
		t.Fatalf("unexpected format: %+v", res.Format)
	}
	if !res.Decoded() {
		t.Fatal("expected a decoded packet")
	}
	if got := res.Packet.Len(); got != 1600 {
		t.Fatalf("unexpected packet size: got %d want %d", got, 1600)
	}
	if len(res.Tracks) != 1 || res.Tracks[0].Type != media.TrackAudio {
		t.Fatalf("unexpected tracks: %+v", res.Tracks)
	}
	if res.RunID == "" || res.Path != path || res.Backend != config.BackendNative {
		t.Fatalf("unexpected result identity: %+v", res)
	}
}

func TestRunDecodesEveryContainer(t *testing.T) {
	fixtures := map[string][]byte{
		"clip.mp4": testsupport.MP4(testsupport.MP4Track{ID: 1, Handler: "vide", Entry: "avc1", Delta: 512, Samples: [][]byte{{0, 0, 0, 1}}}),
		"clip.mkv": testsupport.Matroska("webm",
			[]testsupport.MKVTrack{{Number: 1, Type: 2, Codec: "A_OPUS", SampleRate: 48000, Channels: 2}},
			[]testsupport.MKVCluster{{Blocks: []testsupport.MKVBlock{{Track: 1, Frames: [][]byte{{1, 2, 3}}}}}},
		),
		"clip.ogg": testsupport.Ogg(
			testsupport.OggPage{Serial: 7, BOS: true, Packets: [][]byte{testsupport.OpusHead(2, 312, 48000)}},
			testsupport.OggPage{Serial: 7, Sequence: 1, Packets: [][]byte{testsupport.OpusTags()}},
			testsupport.OggPage{Serial: 7, Sequence: 2, Granule: 960, EOS: true, Packets: [][]byte{{0xFC, 1}}},
		),
		"clip.flv": testsupport.FLV(true, false, testsupport.FLVTag{Type: 8, Data: testsupport.FLVAAC(1, []byte{0x21})}),
	}
	cfg := testsupport.NewConfig(t, testsupport.WithoutHistory())
	runner := newRunner(t, cfg)
	for name, data := range fixtures {
		t.Run(name, func(t *testing.T) {
			path := testsupport.WriteMedia(t, name, data)
			res, err := runner.Run(context.Background(), path)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if !res.Decoded() {
				t.Fatalf("expected packet for %s", name)
			}
		})
	}
}

func TestRunFailureKinds(t *testing.T) {
	full := testsupport.WAV(1, 8000, 16, testsupport.PCMFrames(400, 1), "")
	tests := []struct {
		name string
		file string
		data []byte
		kind media.Kind
	}{
		{name: "missing", file: "", kind: media.KindOpen},
		{name: "zero length", file: "empty.wav", data: []byte{}, kind: media.KindProbe},
		{name: "corrupt", file: "noise.bin", data: []byte("definitely not a container"), kind: media.KindProbe},
		{name: "no packets", file: "silent.wav", data: testsupport.WAV(1, 8000, 16, nil, ""), kind: media.KindEndOfStream},
		{name: "truncated", file: "cut.wav", data: full[:len(full)-100], kind: media.KindDecode},
	}

	cfg := testsupport.NewConfig(t, testsupport.WithoutHistory())
	runner := newRunner(t, cfg)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "does-not-exist.wav")
			if tc.file != "" {
				path = testsupport.WriteMedia(t, tc.file, tc.data)
			}
			res, err := runner.Run(context.Background(), path)
			if err == nil {
				t.Fatalf("expected error, got packet %+v", res.Packet)
			}
			if got := media.KindOf(err); got != tc.kind {
				t.Fatalf("unexpected kind: got %q want %q (%v)", got, tc.kind, err)
			}
			if res.Decoded() {
				t.Fatal("failed run must not carry a packet")
			}
		})
	}
}

func TestRunRecordsHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := newRunner(t, cfg)
	ctx := context.Background()

	good := testsupport.WriteMedia(t, "tone.wav", testsupport.WAV(2, 8000, 16, testsupport.PCMFrames(800, 2), ""))
	if _, err := runner.Run(ctx, good); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	missing := filepath.Join(t.TempDir(), "gone.mkv")
	if _, err := runner.Run(ctx, missing); err == nil {
		t.Fatal("expected open error")
	}
	if err := runner.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	store := testsupport.MustOpenHistory(t, cfg)
	runs, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("unexpected run count: got %d want 2", len(runs))
	}
	byPath := map[string]history.Run{}
	for _, run := range runs {
		byPath[run.Path] = run
	}
	decoded := byPath[good]
	if decoded.Status != history.StatusDecoded || decoded.Format != "wave" || len(decoded.Tracks) != 1 {
		t.Fatalf("unexpected decoded run: %+v", decoded)
	}
	failed := byPath[missing]
	if failed.Status != history.StatusFailed || failed.ErrorKind != "open" {
		t.Fatalf("unexpected failed run: %+v", failed)
	}
}

type fakeReader struct {
	packets []*media.Packet
	closed  int
}

func (f *fakeReader) FormatInfo() media.FormatInfo {
	return media.FormatInfo{Format: "fake", ShortName: "fake", LongName: "Fake"}
}

func (f *fakeReader) Tracks() []media.Track { return nil }

func (f *fakeReader) NextPacket() (*media.Packet, error) {
	if len(f.packets) == 0 {
		return nil, media.ErrEndOfStream
	}
	pkt := f.packets[0]
	f.packets = f.packets[1:]
	return pkt, nil
}

func (f *fakeReader) Close() error {
	f.closed++
	return nil
}

type fakeOpener struct {
	reader *fakeReader
	err    error
	calls  int
}

func (f *fakeOpener) Open(context.Context, string) (media.FormatReader, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.reader, nil
}

type recorder struct {
	runs []history.Run
	err  error
}

func (r *recorder) Record(_ context.Context, run history.Run) error {
	r.runs = append(r.runs, run)
	return r.err
}

func TestRunReadsOnePacketAndClosesReader(t *testing.T) {
	reader := &fakeReader{packets: []*media.Packet{
		{TrackID: 3, PTS: 10, Data: []byte{1}},
		{TrackID: 3, PTS: 20, Data: []byte{2}},
	}}
	rec := &recorder{}
	runner := &workflow.Runner{Opener: &fakeOpener{reader: reader}, Backend: "fake", History: rec}

	res, err := runner.Run(context.Background(), "/virtual")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Packet.PTS != 10 {
		t.Fatalf("unexpected packet: got pts %d want 10", res.Packet.PTS)
	}
	if len(reader.packets) != 1 {
		t.Fatalf("expected exactly one packet read, %d left", len(reader.packets))
	}
	if reader.closed != 1 {
		t.Fatalf("unexpected close count: got %d want 1", reader.closed)
	}
	if len(rec.runs) != 1 || rec.runs[0].ID != res.RunID || *rec.runs[0].PacketTrackID != 3 {
		t.Fatalf("unexpected recorded runs: %+v", rec.runs)
	}
}

func TestRunEndOfStreamClosesReader(t *testing.T) {
	reader := &fakeReader{}
	runner := &workflow.Runner{Opener: &fakeOpener{reader: reader}}

	_, err := runner.Run(context.Background(), "/virtual")
	if !media.IsEndOfStream(err) {
		t.Fatalf("expected end of stream, got %v", err)
	}
	if reader.closed != 1 {
		t.Fatalf("unexpected close count: got %d want 1", reader.closed)
	}
}

func TestRunHistoryFailureDoesNotFailRun(t *testing.T) {
	reader := &fakeReader{packets: []*media.Packet{{Data: []byte{1}}}}
	rec := &recorder{err: errors.New("disk full")}
	runner := &workflow.Runner{Opener: &fakeOpener{reader: reader}, History: rec}

	if _, err := runner.Run(context.Background(), "/virtual"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(rec.runs) != 1 {
		t.Fatalf("expected record attempt, got %d", len(rec.runs))
	}
}

func TestRunCancelledContext(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutHistory())
	runner := newRunner(t, cfg)
	path := testsupport.WriteMedia(t, "tone.wav", testsupport.WAV(1, 8000, 16, testsupport.PCMFrames(10, 1), ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runner.Run(ctx, path)
	if media.KindOf(err) != "" || !errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected error: %v", err)
	}
}

type cancellingOpener struct {
	reader *fakeReader
	cancel context.CancelFunc
}

func (o cancellingOpener) Open(context.Context, string) (media.FormatReader, error) {
	o.cancel()
	return o.reader, nil
}

func TestRunCancelledAfterOpenIsUnclassified(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &fakeReader{packets: []*media.Packet{{Data: []byte{1}}}}
	rec := &recorder{}
	runner := &workflow.Runner{Opener: cancellingOpener{reader: reader, cancel: cancel}, History: rec}

	res, err := runner.Run(ctx, "/virtual")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected error: got %v want %v", err, context.Canceled)
	}
	if kind := media.KindOf(err); kind != "" {
		t.Fatalf("unexpected error kind: got %q want none", kind)
	}
	if res.Packet != nil || len(reader.packets) != 1 {
		t.Fatalf("expected no packet read, got %+v", res.Packet)
	}
	if reader.closed != 1 {
		t.Fatalf("unexpected close count: got %d want 1", reader.closed)
	}
	if len(rec.runs) != 1 || rec.runs[0].Status != history.StatusFailed || rec.runs[0].ErrorKind != "other" {
		t.Fatalf("unexpected recorded runs: %+v", rec.runs)
	}
}

func TestUnconfiguredRunner(t *testing.T) {
	var runner workflow.Runner
	if _, err := runner.Run(context.Background(), "/x"); err == nil {
		t.Fatal("expected error for runner without opener")
	}
}

func TestPacketLimitStopsReader(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutHistory(), testsupport.WithPacketLimit(1))
	opener, closeFn, err := workflow.NewOpener(cfg, nil)
	if err != nil {
		t.Fatalf("NewOpener failed: %v", err)
	}
	defer closeFn()

	path := testsupport.WriteMedia(t, "tone.wav", testsupport.WAV(1, 8000, 16, testsupport.PCMFrames(2400, 1), ""))
	reader, err := opener.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer reader.Close()
	if _, err := reader.NextPacket(); err != nil {
		t.Fatalf("first packet: %v", err)
	}
	if _, err := reader.NextPacket(); !media.IsEndOfStream(err) {
		t.Fatalf("expected end of stream after limit, got %v", err)
	}
}

func TestNewOpenerBackends(t *testing.T) {
	t.Setenv(config.EnvFFILibrary, "")
	cfg := testsupport.NewConfig(t, testsupport.WithBackend(config.BackendFFI))
	cfg.Native.LibraryPath = filepath.Join(t.TempDir(), "libmissing.so")
	if _, _, err := workflow.NewOpener(cfg, nil); err == nil {
		t.Fatal("expected error loading a missing native library")
	}

	cfg = testsupport.NewConfig(t, testsupport.WithBackend("gstreamer"))
	if _, _, err := workflow.NewOpener(cfg, nil); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestFromConfigSkipsUnusableHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	blocker := filepath.Join(testsupport.BaseDir(cfg), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	cfg.History.Path = filepath.Join(blocker, "history.db")

	runner := newRunner(t, cfg)
	if runner.History != nil {
		t.Fatal("expected history to be skipped")
	}
	path := testsupport.WriteMedia(t, "tone.wav", testsupport.WAV(1, 8000, 16, testsupport.PCMFrames(10, 1), ""))
	if _, err := runner.Run(context.Background(), path); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}
