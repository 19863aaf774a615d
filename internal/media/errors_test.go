package media_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"symphonia/internal/media"
)

func TestKindOfThroughWrapping(t *testing.T) {
	cases := []struct {
		err  error
		want media.Kind
	}{
		{media.OpenError("/x", errors.New("boom")), media.KindOpen},
		{fmt.Errorf("run: %w", media.ProbeError("", media.ErrUnsupportedFormat)), media.KindProbe},
		{media.DecodeError("ogg", io.EOF), media.KindDecode},
		{fmt.Errorf("next: %w", media.ErrEndOfStream), media.KindEndOfStream},
		{errors.New("plain"), ""},
	}
	for _, tc := range cases {
		if got := media.KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v): got %q want %q", tc.err, got, tc.want)
		}
	}
}

func TestDecodeErrorPromotesEOF(t *testing.T) {
	err := media.DecodeError("flv", io.EOF)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
	if media.IsEndOfStream(err) {
		t.Fatal("decode error must not read as end of stream")
	}
}

func TestEndOfStreamIsEOF(t *testing.T) {
	if !errors.Is(media.ErrEndOfStream, io.EOF) {
		t.Fatal("expected ErrEndOfStream to wrap io.EOF")
	}
	var classifier interface{ ErrorKind() string }
	if !errors.As(media.ErrEndOfStream, &classifier) || classifier.ErrorKind() != "end_of_stream" {
		t.Fatalf("unexpected classifier for end of stream: %v", classifier)
	}
}

func TestProbeErrorDoesNotDoubleWrap(t *testing.T) {
	inner := media.ProbeError("wave", errors.New("bad fmt chunk"))
	if got := media.ProbeError("", inner); got != inner {
		t.Fatalf("expected probe error to pass through, got %v", got)
	}
}

func TestHintFromPath(t *testing.T) {
	hint := media.HintFromPath("/media/Movie.MKV")
	if hint.Extension != "mkv" {
		t.Fatalf("unexpected extension: %q", hint.Extension)
	}
	d := media.FormatDescriptor{Extensions: []string{"mkv", "webm"}}
	if !hint.Matches(d) {
		t.Fatal("expected hint to match mkv descriptor")
	}
	if media.HintFromPath("noext").Matches(d) {
		t.Fatal("expected empty hint not to match")
	}
}

func TestSortTracksOrdersByType(t *testing.T) {
	tracks := []media.Track{
		{ID: 1, Type: media.TrackSubtitle},
		{ID: 2, Type: media.TrackAudio},
		{ID: 3, Type: media.TrackVideo},
		{ID: 4, Type: media.TrackAudio},
	}
	sorted := media.SortTracks(tracks)
	var ids []uint32
	for _, tr := range sorted {
		ids = append(ids, tr.ID)
	}
	want := []uint32{3, 2, 4, 1}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("unexpected order: got %v want %v", ids, want)
		}
	}
	if tracks[0].ID != 1 {
		t.Fatal("SortTracks must not reorder its input")
	}
}
