package sessions

import (
	"context"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/ports"
)

const (
	// PurgeExpiredActivityName is the registered name of Activities.PurgeExpired.
	PurgeExpiredActivityName = "sessions.activities.PurgeExpired"
	// ErrTypeNotConfigured marks a worker started without a store; retrying cannot help.
	ErrTypeNotConfigured = "SessionStoreNotConfigured"
)

// PurgeResult reports one purge run.
type PurgeResult struct {
	Purged int64
	At     time.Time
}

// Activities exposes workspace store housekeeping to Temporal.
type Activities struct {
	store ports.WorkspaceStore
	now   func() time.Time
}

func NewActivities(store ports.WorkspaceStore) *Activities {
	return &Activities{store: store, now: time.Now}
}

// PurgeExpired deletes snapshots that expired before the activity started.
func (a *Activities) PurgeExpired(ctx context.Context) (PurgeResult, error) {
	if a == nil || a.store == nil {
		return PurgeResult{}, temporal.NewNonRetryableApplicationError("session activities not configured", ErrTypeNotConfigured, nil)
	}
	now := a.now().UTC()
	purged, err := a.store.PurgeExpired(ctx, now)
	if err != nil {
		return PurgeResult{}, err
	}
	if activity.IsActivity(ctx) {
		activity.GetLogger(ctx).Info("expired workspaces purged", "purged", purged)
	}
	return PurgeResult{Purged: purged, At: now}, nil
}
