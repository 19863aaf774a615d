package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"symphonia/internal/history"
	"symphonia/internal/media"
	"symphonia/internal/testsupport"
)

func uint32Ptr(v uint32) *uint32 { return &v }
func uint64Ptr(v uint64) *uint64 { return &v }
func intPtr(v int) *int          { return &v }

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	versions, err := store.Versions(context.Background())
	if err != nil {
		t.Fatalf("Versions failed: %v", err)
	}
	want := []string{"001_runs", "002_run_tracks", "003_started_at_fixed_width"}
	if len(versions) != len(want) {
		t.Fatalf("unexpected versions: got %v want %v", versions, want)
	}
	for i := range want {
		if versions[i] != want[i] {
			t.Fatalf("unexpected version %d: got %q want %q", i, versions[i], want[i])
		}
	}
	if store.Path() != cfg.History.Path {
		t.Fatalf("unexpected path: got %q want %q", store.Path(), cfg.History.Path)
	}
}

func TestReopenIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	first, err := history.Open(ctx, cfg.History.Path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := first.Record(ctx, history.Run{ID: "a", Path: "/x.wav", Backend: "native", Status: history.StatusDecoded}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second := testsupport.MustOpenHistory(t, cfg)
	runs, err := second.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "a" {
		t.Fatalf("unexpected runs after reopen: %+v", runs)
	}
}

func TestRecordAndRecent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	decoded := history.Run{
		ID:            "run-decoded",
		Path:          "/media/tone.wav",
		Backend:       "native",
		Format:        "wave",
		Status:        history.StatusDecoded,
		PacketTrackID: uint32Ptr(0),
		PacketPTS:     uint64Ptr(0),
		PacketBytes:   intPtr(1600),
		Elapsed:       1500 * time.Microsecond,
		StartedAt:     base,
		Tracks: history.TracksFrom([]media.Track{
			{ID: 0, Type: media.TrackAudio, Codec: "pcm_s16le", Language: "eng"},
		}),
	}
	failed := history.Run{
		ID:           "run-failed",
		Path:         "/media/missing.mp4",
		Backend:      "native",
		Status:       history.StatusFailed,
		ErrorKind:    string(media.KindOpen),
		ErrorMessage: "open /media/missing.mp4: no such file or directory",
		StartedAt:    base.Add(time.Minute),
	}
	for _, run := range []history.Run{decoded, failed} {
		if err := store.Record(ctx, run); err != nil {
			t.Fatalf("Record %s failed: %v", run.ID, err)
		}
	}

	runs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("unexpected run count: got %d want 2", len(runs))
	}
	if runs[0].ID != "run-failed" || runs[1].ID != "run-decoded" {
		t.Fatalf("unexpected order: got %s, %s", runs[0].ID, runs[1].ID)
	}

	gotFailed := runs[0]
	if gotFailed.ErrorKind != "open" || gotFailed.PacketBytes != nil || gotFailed.Format != "" {
		t.Fatalf("unexpected failed run: %+v", gotFailed)
	}

	got := runs[1]
	if got.Format != "wave" || got.Status != history.StatusDecoded {
		t.Fatalf("unexpected decoded run: %+v", got)
	}
	if got.PacketBytes == nil || *got.PacketBytes != 1600 {
		t.Fatalf("unexpected packet bytes: %v", got.PacketBytes)
	}
	if got.PacketTrackID == nil || *got.PacketTrackID != 0 {
		t.Fatalf("unexpected packet track: %v", got.PacketTrackID)
	}
	if got.Elapsed != 1500*time.Microsecond {
		t.Fatalf("unexpected elapsed: got %v want %v", got.Elapsed, 1500*time.Microsecond)
	}
	if !got.StartedAt.Equal(base) {
		t.Fatalf("unexpected started_at: got %v want %v", got.StartedAt, base)
	}
	if len(got.Tracks) != 1 || got.Tracks[0].Codec != "pcm_s16le" || got.Tracks[0].Language != "eng" {
		t.Fatalf("unexpected tracks: %+v", got.Tracks)
	}

	limited, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent(1) failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "run-failed" {
		t.Fatalf("unexpected limited runs: %+v", limited)
	}
}

func TestRecordRejectsDuplicateAndEmptyID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	if err := store.Record(ctx, history.Run{Path: "/a", Backend: "native", Status: history.StatusFailed}); err == nil {
		t.Fatal("expected error for empty id")
	}
	run := history.Run{ID: "dup", Path: "/a", Backend: "native", Status: history.StatusFailed}
	if err := store.Record(ctx, run); err != nil {
		t.Fatalf("first Record failed: %v", err)
	}
	if err := store.Record(ctx, run); err == nil {
		t.Fatal("expected error for duplicate id")
	}
}

func TestPruneKeepsNewestAndCascadesTracks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"r1", "r2", "r3"} {
		run := history.Run{
			ID:        id,
			Path:      "/m.mkv",
			Backend:   "native",
			Status:    history.StatusDecoded,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
			Tracks:    []history.Track{{ID: 1, Type: "video", Codec: "h264"}},
		}
		if err := store.Record(ctx, run); err != nil {
			t.Fatalf("Record %s failed: %v", id, err)
		}
	}

	removed, err := store.Prune(ctx, 1)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("unexpected removed count: got %d want 2", removed)
	}
	runs, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "r3" || len(runs[0].Tracks) != 1 {
		t.Fatalf("unexpected runs after prune: %+v", runs)
	}
}

func TestRecentOrdersSubsecondStartTimes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	whole := time.Date(2026, 1, 1, 1, 2, 3, 0, time.UTC)
	for _, run := range []history.Run{
		{ID: "older", StartedAt: whole},
		{ID: "newer", StartedAt: whole.Add(500 * time.Millisecond)},
	} {
		run.Path = "/m.wav"
		run.Backend = "native"
		run.Status = history.StatusDecoded
		if err := store.Record(ctx, run); err != nil {
			t.Fatalf("Record %s failed: %v", run.ID, err)
		}
	}

	runs, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "newer" {
		t.Fatalf("unexpected newest run: got %+v want newer", runs)
	}
	if !runs[0].StartedAt.Equal(whole.Add(500 * time.Millisecond)) {
		t.Fatalf("unexpected started_at: got %v want %v", runs[0].StartedAt, whole.Add(500*time.Millisecond))
	}

	if _, err := store.Prune(ctx, 1); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	runs, err = store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "newer" {
		t.Fatalf("unexpected runs after prune: got %+v want newer", runs)
	}
}

func TestOpenConfiguredDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutHistory())
	if _, err := history.OpenConfigured(context.Background(), cfg); !errors.Is(err, history.ErrDisabled) {
		t.Fatalf("unexpected error: got %v want %v", err, history.ErrDisabled)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := history.Open(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "history.db")
	store, err := history.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()
	if store.Path() != path {
		t.Fatalf("unexpected path: got %q want %q", store.Path(), path)
	}
}
