package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"symphonia/internal/config"
	"symphonia/internal/history"
	"symphonia/internal/logging"
	"symphonia/internal/media"
	"symphonia/internal/media/native"
	"symphonia/internal/media/probe"
)

// NewOpener builds the Opener selected by cfg.Probe.Backend. The returned
// close function releases a loaded native library and is never nil.
func NewOpener(cfg *config.Config, logger *slog.Logger) (Opener, func() error, error) {
	if cfg == nil {
		return nil, nil, errors.New("config is nil")
	}
	formatOpts := media.FormatOptions{PacketLimit: cfg.Probe.PacketLimit}
	switch cfg.Probe.Backend {
	case config.BackendFFI:
		lib, err := native.Load(cfg.LibraryCandidates()...)
		if err != nil {
			return nil, nil, fmt.Errorf("load native library: %w", err)
		}
		if logger != nil {
			logger.Debug("native library loaded", logging.String("library", lib.Path()))
		}
		return LibraryOpener{Library: lib, Format: formatOpts}, lib.Close, nil
	case config.BackendNative, "":
		p := probe.Default(logger)
		p.SetScanLimit(cfg.Probe.ScanLimit)
		opener := ProbeOpener{
			Probe: p,
			Source: media.SourceOptions{
				BufferSize:    cfg.Probe.BufferSize,
				HistoryBlocks: cfg.Probe.HistoryBlocks,
			},
			Format: formatOpts,
		}
		return opener, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Probe.Backend)
	}
}

// FromConfig assembles a Runner with the configured backend and, when
// enabled, the history store. A history store that cannot be opened is
// logged and skipped.
func FromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	opener, closeOpener, err := NewOpener(cfg, logger)
	if err != nil {
		return nil, err
	}
	runner := &Runner{
		Opener:  opener,
		Backend: cfg.Probe.Backend,
		Logger:  logger,
		closers: []func() error{closeOpener},
	}

	store, err := history.OpenConfigured(ctx, cfg)
	switch {
	case err == nil:
		runner.History = store
		runner.closers = append(runner.closers, store.Close)
	case errors.Is(err, history.ErrDisabled):
	default:
		logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String("history_path", cfg.History.Path),
			logging.String(logging.FieldErrorHint, "check history.path or set history.enabled = false"),
			logging.String(logging.FieldImpact, "runs will not be recorded"),
		)
	}
	return runner, nil
}
