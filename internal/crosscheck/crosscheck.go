package crosscheck

import (
	"fmt"
	"slices"
	"strings"

	"symphonia/internal/language"
	"symphonia/internal/media"
	"symphonia/internal/media/ffprobe"
)

// Severities attached to findings.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Finding is one disagreement between the two views of a file.
type Finding struct {
	Severity string `json:"severity"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Report is the outcome of Compare.
type Report struct {
	Tracks   int       `json:"tracks"`
	Streams  int       `json:"streams"`
	Findings []Finding `json:"findings,omitempty"`
}

// OK reports whether no critical finding was raised.
func (r Report) OK() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityCritical {
			return false
		}
	}
	return true
}

var trackTypes = []media.TrackType{media.TrackVideo, media.TrackAudio, media.TrackSubtitle, media.TrackData}

// Compare checks track count, per-type counts, codec families and languages.
func Compare(tracks []media.Track, probe ffprobe.Result) Report {
	report := Report{Tracks: len(tracks), Streams: len(probe.Streams)}

	if report.Tracks != report.Streams {
		report.Findings = append(report.Findings, Finding{
			Severity: SeverityCritical,
			Category: "track_count",
			Message:  fmt.Sprintf("reader found %d tracks, ffprobe found %d streams", report.Tracks, report.Streams),
		})
	}

	for _, typ := range trackTypes {
		ours := tracksOfType(tracks, typ)
		theirs := streamsOfType(probe.Streams, typ)
		if len(ours) != len(theirs) {
			sev := SeverityCritical
			if typ == media.TrackData {
				sev = SeverityInfo
			}
			report.Findings = append(report.Findings, Finding{
				Severity: sev,
				Category: string(typ) + "_count",
				Message:  fmt.Sprintf("%s tracks: reader %d, ffprobe %d", typ, len(ours), len(theirs)),
			})
			continue
		}

		oursCodecs := make([]string, 0, len(ours))
		for _, tr := range ours {
			oursCodecs = append(oursCodecs, CodecFamily(tr.Codec))
		}
		theirCodecs := make([]string, 0, len(theirs))
		for _, st := range theirs {
			theirCodecs = append(theirCodecs, CodecFamily(st.CodecName))
		}
		slices.Sort(oursCodecs)
		slices.Sort(theirCodecs)
		if !slices.Equal(oursCodecs, theirCodecs) {
			report.Findings = append(report.Findings, Finding{
				Severity: SeverityWarning,
				Category: string(typ) + "_codec",
				Message: fmt.Sprintf("%s codecs differ: reader [%s], ffprobe [%s]",
					typ, strings.Join(oursCodecs, ", "), strings.Join(theirCodecs, ", ")),
			})
		}

		for i := range ours {
			want := language.ExtractFromTags(theirs[i].Tags)
			if want == "" {
				continue
			}
			if !language.Equal(ours[i].Language, want) {
				report.Findings = append(report.Findings, Finding{
					Severity: SeverityInfo,
					Category: string(typ) + "_language",
					Message: fmt.Sprintf("%s track %d language: reader %q, ffprobe %q",
						typ, ours[i].ID, ours[i].Language, want),
				})
			}
		}
	}
	return report
}

// CodecFamily folds codec spellings that name the same bitstream.
func CodecFamily(codec string) string {
	c := strings.ToLower(strings.TrimSpace(codec))
	switch {
	case c == "":
		return "unknown"
	case strings.HasPrefix(c, "pcm"):
		return "pcm"
	case c == "avc1" || c == "avc" || c == "h264":
		return "h264"
	case c == "hvc1" || c == "hev1" || c == "h265" || c == "hevc":
		return "hevc"
	case c == "mp4a" || strings.HasPrefix(c, "aac"):
		return "aac"
	case c == "mp3" || c == "mp3float":
		return "mp3"
	case c == "vp6f" || c == "vp6a" || c == "vp6":
		return "vp6"
	case c == "flv1" || c == "flv":
		return "flv1"
	}
	return c
}

func tracksOfType(tracks []media.Track, typ media.TrackType) []media.Track {
	var out []media.Track
	for _, tr := range tracks {
		if tr.Type == typ {
			out = append(out, tr)
		}
	}
	return out
}

func streamsOfType(streams []ffprobe.Stream, typ media.TrackType) []ffprobe.Stream {
	var out []ffprobe.Stream
	for _, st := range streams {
		t := strings.ToLower(st.CodecType)
		if t == "attachment" {
			t = string(media.TrackData)
		}
		if t == string(typ) {
			out = append(out, st)
		}
	}
	return out
}
