package application

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/ports"
)

// DefaultPurgeInterval is how often expired sessions are cleaned up.
const DefaultPurgeInterval = 15 * time.Minute

// Housekeeper periodically evicts idle workspaces from memory and purges expired snapshots.
type Housekeeper struct {
	workspaces *Workspaces
	purger     ports.SessionPurger
	interval   time.Duration
	logger     *slog.Logger
}

func NewHousekeeper(workspaces *Workspaces, purger ports.SessionPurger, interval time.Duration, logger *slog.Logger) *Housekeeper {
	if interval <= 0 {
		interval = DefaultPurgeInterval
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Housekeeper{workspaces: workspaces, purger: purger, interval: interval, logger: logger}
}

// Run ticks until ctx is done.
func (h *Housekeeper) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Sweep(ctx)
		}
	}
}

// Sweep runs one housekeeping pass.
func (h *Housekeeper) Sweep(ctx context.Context) {
	if h.workspaces != nil {
		if evicted := h.workspaces.EvictIdle(h.workspaces.now()); evicted > 0 {
			h.logger.InfoContext(ctx, "idle workspaces evicted", slog.Int("evicted", evicted))
		}
	}
	if h.purger == nil {
		return
	}
	purged, err := h.purger.PurgeExpired(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "session purge failed", slog.String("error", err.Error()))
		return
	}
	if purged > 0 {
		h.logger.InfoContext(ctx, "expired sessions purged", slog.Int64("purged", purged))
	}
}
