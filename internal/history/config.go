package history

import (
	"context"

	"symphonia/internal/config"
)

// OpenConfigured opens the store named by cfg, or returns ErrDisabled.
func OpenConfigured(ctx context.Context, cfg *config.Config) (*Store, error) {
	if cfg == nil || !cfg.History.Enabled {
		return nil, ErrDisabled
	}
	return Open(ctx, cfg.History.Path)
}
