package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"symphonia/internal/media"
)

const lockRetryDelay = 50 * time.Millisecond

// timeLayout is fixed width so started_at orders lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrDisabled is returned by OpenConfigured when history is turned off.
var ErrDisabled = errors.New("history disabled")

// Status values stored per run.
const (
	StatusDecoded = "decoded"
	StatusFailed  = "failed"
)

// Track is the stored summary of one track reported by a run.
type Track struct {
	ID       uint32 `json:"id"`
	Type     string `json:"type"`
	Codec    string `json:"codec"`
	Language string `json:"language,omitempty"`
}

// Run is one recorded workflow execution.
type Run struct {
	ID            string        `json:"id"`
	Path          string        `json:"path"`
	Backend       string        `json:"backend"`
	Format        string        `json:"format,omitempty"`
	Status        string        `json:"status"`
	ErrorKind     string        `json:"error_kind,omitempty"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	PacketTrackID *uint32       `json:"packet_track_id,omitempty"`
	PacketPTS     *uint64       `json:"packet_pts,omitempty"`
	PacketBytes   *int          `json:"packet_bytes,omitempty"`
	Elapsed       time.Duration `json:"elapsed"`
	StartedAt     time.Time     `json:"started_at"`
	Tracks        []Track       `json:"tracks,omitempty"`
}

// TracksFrom summarizes reader tracks for storage.
func TracksFrom(tracks []media.Track) []Track {
	out := make([]Track, 0, len(tracks))
	for _, tr := range tracks {
		out = append(out, Track{ID: tr.ID, Type: string(tr.Type), Codec: tr.Codec, Language: tr.Language})
	}
	return out
}

// Store persists runs in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire history lock: %w", err)
	}
	if !locked {
		return nil, errors.New("acquire history lock: not acquired")
	}
	defer func() { _ = lock.Unlock() }()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	store := &Store{db: db, path: path}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a run and its tracks.
func (s *Store) Record(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("record run: empty id")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
            id, path, backend, format, status, error_kind, error_message,
            packet_track_id, packet_pts, packet_bytes, elapsed_us, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Path,
		run.Backend,
		nullableString(run.Format),
		run.Status,
		nullableString(run.ErrorKind),
		nullableString(run.ErrorMessage),
		nullableUint32(run.PacketTrackID),
		nullableUint64(run.PacketPTS),
		nullableInt(run.PacketBytes),
		run.Elapsed.Microseconds(),
		run.StartedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, tr := range run.Tracks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_tracks (run_id, track_id, track_type, codec, language) VALUES (?, ?, ?, ?, ?)`,
			run.ID, tr.ID, tr.Type, tr.Codec, nullableString(tr.Language),
		); err != nil {
			return fmt.Errorf("insert track %d: %w", tr.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, path, backend, format, status, error_kind, error_message,
        packet_track_id, packet_pts, packet_bytes, elapsed_us, started_at
        FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("list runs: %w", err)
	}
	_ = rows.Close()

	for i := range runs {
		tracks, err := s.tracks(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Tracks = tracks
	}
	return runs, nil
}

// Prune deletes all but the newest keep runs and returns how many were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (
            SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT ?
        )`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) tracks(ctx context.Context, runID string) ([]Track, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT track_id, track_type, codec, language FROM run_tracks WHERE run_id = ? ORDER BY track_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()
	var out []Track
	for rows.Next() {
		var tr Track
		var lang sql.NullString
		if err := rows.Scan(&tr.ID, &tr.Type, &tr.Codec, &lang); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		tr.Language = lang.String
		out = append(out, tr)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run                   Run
		format, kind, message sql.NullString
		trackID, pts, size    sql.NullInt64
		elapsed               int64
		started               string
	)
	if err := row.Scan(&run.ID, &run.Path, &run.Backend, &format, &run.Status, &kind, &message,
		&trackID, &pts, &size, &elapsed, &started); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Format = format.String
	run.ErrorKind = kind.String
	run.ErrorMessage = message.String
	if trackID.Valid {
		v := uint32(trackID.Int64)
		run.PacketTrackID = &v
	}
	if pts.Valid {
		v := uint64(pts.Int64)
		run.PacketPTS = &v
	}
	if size.Valid {
		v := int(size.Int64)
		run.PacketBytes = &v
	}
	run.Elapsed = time.Duration(elapsed) * time.Microsecond
	if ts, err := time.Parse(time.RFC3339Nano, started); err == nil {
		run.StartedAt = ts
	}
	return run, nil
}

func nowString() string {
	return time.Now().UTC().Format(timeLayout)
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableUint32(v *uint32) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullableUint64(v *uint64) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}
