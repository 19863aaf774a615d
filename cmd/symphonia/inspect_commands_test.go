package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"symphonia/internal/testsupport"
)

func TestInfoShowsTracks(t *testing.T) {
	env := setupCLITestEnv(t)
	path := testsupport.WriteMedia(t, "clip.mkv", testsupport.Matroska("matroska",
		[]testsupport.MKVTrack{
			{Number: 1, Type: 2, Codec: "A_FLAC", SampleRate: 44100, Channels: 2, Language: "ger"},
		},
		[]testsupport.MKVCluster{{Blocks: []testsupport.MKVBlock{{Track: 1, Frames: [][]byte{{9}}}}}},
	))

	stdout, _, err := runCLI(t, env, "info", path)
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	requireContains(t, stdout, "Matroska / WebM")
	requireContains(t, stdout, "Tracks: 1")
	requireContains(t, stdout, "German (deu)")
	requireContains(t, stdout, "44100 Hz")
}

func TestInfoShowsCodecConfiguration(t *testing.T) {
	env := setupCLITestEnv(t)
	path := testsupport.WriteMedia(t, "clip.mp4", testsupport.MP4(
		testsupport.MP4Track{
			ID: 1, Handler: "vide", Entry: "avc1", Timescale: 90000, Width: 640, Height: 360, Delta: 3000,
			Children: [][]byte{testsupport.AvcC(100, 0x00, 41)},
			Samples:  [][]byte{{0x65}},
		},
		testsupport.MP4Track{
			ID: 2, Handler: "soun", Entry: "mp4a", Timescale: 48000, Channels: 2, SampleRate: 48000, Delta: 1024,
			Children: [][]byte{testsupport.ESDS([]byte{0x11, 0x90})},
			Samples:  [][]byte{{0x21}},
		},
	))

	stdout, _, err := runCLI(t, env, "info", path)
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	requireContains(t, stdout, "profile HIGH level 41")
	requireContains(t, stdout, "AVC_DECODER_CONFIG 7 B")
	requireContains(t, stdout, "profile LC")
	requireContains(t, stdout, "extra data 2 B")
}

func TestInfoJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	stdout, _, err := runCLI(t, env, "info", "--json", toneFile(t))
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	var got infoOutput
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode json: %v\n%s", err, stdout)
	}
	if got.Format.ShortName != "wave" || len(got.Tracks) != 1 || got.Tracks[0].SampleRate != 8000 {
		t.Fatalf("unexpected info: %+v", got)
	}
}

func TestInfoMissingFileIsOpenError(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env, "info", filepath.Join(t.TempDir(), "none.wav"))
	if exitCode(err) != exitOpen {
		t.Fatalf("unexpected exit code: got %d want %d (%v)", exitCode(err), exitOpen, err)
	}
}

func TestPacketsTable(t *testing.T) {
	env := setupCLITestEnv(t)
	stdout, _, err := runCLI(t, env, "packets", toneFile(t))
	if err != nil {
		t.Fatalf("packets failed: %v", err)
	}
	requireContains(t, stdout, "3 packets")
	requireContains(t, stdout, "Time (s)")
	requireContains(t, stdout, "0.100")
}

func TestPacketsLimitAndJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	stdout, _, err := runCLI(t, env, "packets", "--limit", "2", "--json", toneFile(t))
	if err != nil {
		t.Fatalf("packets failed: %v", err)
	}
	var got []packetOutput
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode json: %v\n%s", err, stdout)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected packet count: got %d want 2", len(got))
	}
	if got[1].N != 2 || got[1].PTS != 800 || got[1].Bytes != 1600 {
		t.Fatalf("unexpected second packet: %+v", got[1])
	}
}

func TestPacketsTrackFilter(t *testing.T) {
	env := setupCLITestEnv(t)
	stdout, _, err := runCLI(t, env, "packets", "--track", "9", toneFile(t))
	if err != nil {
		t.Fatalf("packets failed: %v", err)
	}
	requireContains(t, stdout, "No packets")
}

func TestPacketsRejectsNegativeLimit(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env, "packets", "--limit", "-1", toneFile(t)); err == nil {
		t.Fatal("expected error for negative limit")
	}
}

func TestVerifyRecordThenMatch(t *testing.T) {
	env := setupCLITestEnv(t)
	media := toneFile(t)
	expPath := filepath.Join(t.TempDir(), "tone.wav.yaml")

	stdout, _, err := runCLI(t, env, "verify", "--record", media, expPath)
	if err != nil {
		t.Fatalf("verify --record failed: %v", err)
	}
	requireContains(t, stdout, "Recorded 1 tracks and 3 packets")

	stdout, _, err = runCLI(t, env, "verify", media, expPath)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	requireContains(t, stdout, "Expectation matched (3 packets checked)")
}

func TestVerifyReportsMismatch(t *testing.T) {
	env := setupCLITestEnv(t)
	expPath := filepath.Join(t.TempDir(), "tone.wav.yaml")
	if _, _, err := runCLI(t, env, "verify", "--record", toneFile(t), expPath); err != nil {
		t.Fatalf("verify --record failed: %v", err)
	}
	other := testsupport.WriteMedia(t, "longer.wav", testsupport.WAV(1, 8000, 16, testsupport.PCMFrames(3000, 1), ""))

	stdout, _, err := runCLI(t, env, "verify", other, expPath)
	if err == nil {
		t.Fatal("expected mismatch error")
	}
	requireContains(t, err.Error(), "mismatches")
	requireContains(t, stdout, "num_frames")
	requireContains(t, stdout, "Packets left in the file")
}

const ffprobeWAV = `{
  "streams": [
    {"index": 0, "codec_name": "pcm_s16le", "codec_type": "audio", "sample_rate": "8000", "channels": 1}
  ],
  "format": {"filename": "tone.wav", "nb_streams": 1, "format_name": "wav", "duration": "0.25"}
}`

const ffprobeVideo = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 640, "height": 360},
    {"index": 1, "codec_name": "pcm_s16le", "codec_type": "audio", "sample_rate": "8000", "channels": 1}
  ],
  "format": {"filename": "tone.wav", "nb_streams": 2, "format_name": "mov"}
}`

func TestCompareAgreesWithFFprobe(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedFFprobe(ffprobeWAV))
	stdout, _, err := runCLI(t, env, "compare", toneFile(t))
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	requireContains(t, stdout, "1 probed, 1 ffprobe streams")
	requireContains(t, stdout, "No differences found")
}

func TestCompareReportsCriticalDifferences(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedFFprobe(ffprobeVideo))
	stdout, _, err := runCLI(t, env, "compare", toneFile(t))
	if err == nil {
		t.Fatal("expected critical difference error")
	}
	requireContains(t, stdout, "critical")
	requireContains(t, stdout, "track_count")
}

func tonePackets(pts ...int) string {
	var b strings.Builder
	for _, v := range pts {
		fmt.Fprintf(&b, "[PACKET]\ncodec_type=audio\nstream_index=0\npts=%d\ndts=%d\nsize=1600\n[/PACKET]\n", v, v)
	}
	return b.String()
}

func TestComparePacketsMatch(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedFFprobePackets(tonePackets(0, 800, 1600)))
	stdout, _, err := runCLI(t, env, "compare", "--packets", toneFile(t))
	if err != nil {
		t.Fatalf("compare --packets failed: %v", err)
	}
	requireContains(t, stdout, "ffprobe stream 0")
	requireContains(t, stdout, "0 of 3 packets differ")
}

func TestComparePacketsMismatchFails(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedFFprobePackets(tonePackets(0, 801, 1600, 2400)))
	stdout, _, err := runCLI(t, env, "compare", "--packets", "--track", "0", toneFile(t))
	if err == nil {
		t.Fatal("expected packet difference error")
	}
	if code := exitCode(err); code == exitOK {
		t.Fatalf("unexpected exit code: got %d", code)
	}
	requireContains(t, stdout, "801")
	requireContains(t, stdout, "missing")
	requireContains(t, stdout, "2 of 4 packets differ")
}

func TestComparePacketsUnknownTrack(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedFFprobePackets(tonePackets(0)))
	_, _, err := runCLI(t, env, "compare", "--packets", "--track", "9", toneFile(t))
	if err == nil || !strings.Contains(err.Error(), "no track with id 9") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCompareWithoutFFprobe(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Tools.FFprobe = filepath.Join(env.baseDir, "no-such-ffprobe")
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, env, "compare", toneFile(t))
	if err == nil || !strings.Contains(err.Error(), "tools.ffprobe") {
		t.Fatalf("unexpected error: %v", err)
	}
}
