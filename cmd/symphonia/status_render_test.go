package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"symphonia/internal/media"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine(statusLine{Label: "ffprobe", Kind: statusError, Message: "not installed"}, false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "ffprobe:", "[ERROR] not installed")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine(statusLine{Label: "Config", Kind: statusOK}, true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestWorstStatus(t *testing.T) {
	lines := []statusLine{{Kind: statusOK}, {Kind: statusWarn}, {Kind: statusInfo}}
	if got := worstStatus(lines); got != statusWarn {
		t.Fatalf("unexpected worst status: got %v want %v", got, statusWarn)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{errors.New("boom"), exitFailure},
		{media.OpenError("/x", errors.New("missing")), exitOpen},
		{fmt.Errorf("wrapped: %w", media.ProbeError("", media.ErrUnsupportedFormat)), exitProbe},
		{media.DecodeError("wave", errors.New("short")), exitDecode},
		{media.ErrEndOfStream, exitEndOfStream},
	}
	for _, tc := range tests {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("exitCode(%v): got %d want %d", tc.err, got, tc.want)
		}
	}
}
