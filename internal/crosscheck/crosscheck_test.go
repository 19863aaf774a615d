package crosscheck_test

import (
	"testing"

	"symphonia/internal/crosscheck"
	"symphonia/internal/media"
	"symphonia/internal/media/ffprobe"
)

func TestCompareAgreement(t *testing.T) {
	tracks := []media.Track{
		{ID: 1, Type: media.TrackVideo, Codec: "h264", Language: "und"},
		{ID: 2, Type: media.TrackAudio, Codec: "pcm_s16le", Language: "deu"},
	}
	probe := ffprobe.Result{Streams: []ffprobe.Stream{
		{Index: 0, CodecType: "video", CodecName: "h264"},
		{Index: 1, CodecType: "audio", CodecName: "pcm_s24le", Tags: map[string]string{"language": "ger"}},
	}}

	report := crosscheck.Compare(tracks, probe)
	if len(report.Findings) != 0 {
		t.Fatalf("unexpected findings: %+v", report.Findings)
	}
	if !report.OK() {
		t.Fatalf("expected report to be OK")
	}
}

func TestCompareMismatches(t *testing.T) {
	tracks := []media.Track{
		{ID: 1, Type: media.TrackAudio, Codec: "opus", Language: "eng"},
	}
	probe := ffprobe.Result{Streams: []ffprobe.Stream{
		{Index: 0, CodecType: "video", CodecName: "vp9"},
		{Index: 1, CodecType: "audio", CodecName: "vorbis", Tags: map[string]string{"language": "fre"}},
	}}

	report := crosscheck.Compare(tracks, probe)
	if report.OK() {
		t.Fatalf("expected critical findings")
	}
	categories := map[string]string{}
	for _, f := range report.Findings {
		categories[f.Category] = f.Severity
	}
	want := map[string]string{
		"track_count":    crosscheck.SeverityCritical,
		"video_count":    crosscheck.SeverityCritical,
		"audio_codec":    crosscheck.SeverityWarning,
		"audio_language": crosscheck.SeverityInfo,
	}
	for cat, sev := range want {
		if categories[cat] != sev {
			t.Fatalf("unexpected severity for %s: got %q want %q (findings %+v)", cat, categories[cat], sev, report.Findings)
		}
	}
}

func TestCodecFamily(t *testing.T) {
	cases := map[string]string{
		"avc1":      "h264",
		"HEVC":      "hevc",
		"pcm_f32le": "pcm",
		"aac_latm":  "aac",
		"":          "unknown",
		"opus":      "opus",
	}
	for in, want := range cases {
		if got := crosscheck.CodecFamily(in); got != want {
			t.Fatalf("unexpected family for %q: got %q want %q", in, got, want)
		}
	}
}
