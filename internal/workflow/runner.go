package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"symphonia/internal/history"
	"symphonia/internal/logging"
	"symphonia/internal/media"
)

// Recorder persists finished runs.
type Recorder interface {
	Record(ctx context.Context, run history.Run) error
}

// Runner executes the open, probe, next-packet sequence.
type Runner struct {
	Opener  Opener
	Backend string
	Logger  *slog.Logger
	History Recorder

	closers []func() error
}

// Run checks path and returns what the first packet read produced. A nil
// error means Result.Packet is set. Failures are *media.Error values whose
// kind names the failing step, except cancellation of ctx, which is returned
// unclassified.
func (r *Runner) Run(ctx context.Context, path string) (Result, error) {
	if r == nil || r.Opener == nil {
		return Result{}, errors.New("workflow runner not configured")
	}
	started := time.Now()
	res := Result{
		RunID:   uuid.NewString(),
		Path:    strings.TrimSpace(path),
		Backend: r.Backend,
	}
	ctx = logging.WithRunID(ctx, res.RunID)
	logger := r.logger(ctx).With(
		logging.String(logging.FieldPath, res.Path),
		logging.String(logging.FieldBackend, res.Backend),
	)
	logger.Debug("run started", logging.String(logging.FieldEventType, "run_start"))

	err := r.run(ctx, logger, &res)
	res.Elapsed = time.Since(started)
	if cerr := ctx.Err(); cerr != nil && errors.Is(err, cerr) {
		// Cancellation is not a property of the file.
		err = fmt.Errorf("check cancelled: %w", cerr)
	}

	if err != nil {
		logFailure(logger, res, err)
	} else {
		logger.Info("packet decoded",
			logging.String(logging.FieldEventType, "run_complete"),
			logging.String(logging.FieldFormat, res.Format.ShortName),
			logging.Int("tracks", len(res.Tracks)),
			logging.Uint64(logging.FieldTrackID, uint64(res.Packet.TrackID)),
			logging.Int("packet_bytes", res.Packet.Len()),
			logging.Duration("elapsed", res.Elapsed),
		)
	}
	r.record(ctx, logger, res, started, err)
	return res, err
}

func (r *Runner) run(ctx context.Context, logger *slog.Logger, res *Result) (err error) {
	reader, err := r.Opener.Open(ctx, res.Path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := reader.Close(); cerr != nil {
			logger.Debug("close reader failed", logging.Error(cerr))
		}
	}()

	res.Format = reader.FormatInfo()
	res.Tracks = reader.Tracks()
	logger.Debug("format probed",
		logging.String(logging.FieldFormat, res.Format.ShortName),
		logging.String("long_name", res.Format.LongName),
		logging.Int("tracks", len(res.Tracks)),
	)

	if err := ctx.Err(); err != nil {
		return err
	}
	pkt, err := media.ReadPacket(reader)
	if err != nil {
		return err
	}
	res.Packet = pkt
	return nil
}

func (r *Runner) record(ctx context.Context, logger *slog.Logger, res Result, started time.Time, runErr error) {
	if r.History == nil {
		return
	}
	if err := r.History.Record(context.WithoutCancel(ctx), res.historyRun(started, runErr)); err != nil {
		logging.WarnWithContext(logger, "history record failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history.path permissions or disable history"),
			logging.String(logging.FieldImpact, "run not stored in history"),
		)
	}
}

func logFailure(logger *slog.Logger, res Result, err error) {
	attrs := []logging.Attr{
		logging.ErrorKind(err),
		logging.Error(err),
		logging.Duration("elapsed", res.Elapsed),
	}
	if res.Probed() {
		attrs = append(attrs, logging.String(logging.FieldFormat, res.Format.ShortName))
	}
	switch media.KindOf(err) {
	case media.KindEndOfStream:
		// An empty stream is an answer, not a fault.
		logger.Info("no packet in stream", logging.Args(append(attrs,
			logging.String(logging.FieldEventType, "run_empty"))...)...)
	case media.KindOpen:
		logging.WarnWithContext(logger, "open failed", "open_failed", append(attrs,
			logging.String(logging.FieldErrorHint, "check the path exists and is readable"),
			logging.String(logging.FieldImpact, "file not checked"))...)
	case media.KindProbe:
		logging.WarnWithContext(logger, "probe failed", "probe_failed", append(attrs,
			logging.String(logging.FieldErrorHint, "file is not a supported container or its header is damaged"),
			logging.String(logging.FieldImpact, "file not checked"))...)
	case media.KindDecode:
		logging.WarnWithContext(logger, "packet read failed", "decode_failed", append(attrs,
			logging.String(logging.FieldErrorHint, "packet data is malformed or truncated"),
			logging.String(logging.FieldImpact, "no packet decoded"))...)
	default:
		logging.ErrorWithContext(logger, "run failed", "run_failed", attrs...)
	}
}

func (r *Runner) logger(ctx context.Context) *slog.Logger {
	base := r.Logger
	if base == nil {
		base = logging.NewNop()
	}
	return logging.WithContext(ctx, logging.NewComponentLogger(base, "workflow"))
}

// Close releases resources acquired by FromConfig.
func (r *Runner) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("close runner: %w", errors.Join(errs...))
	}
	return nil
}
