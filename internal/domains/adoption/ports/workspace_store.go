package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/domain"
	"github.com/Apurer/go-gin-dog-adoption/internal/shared/projection"
)

var ErrSnapshotNotFound = errors.New("workspace snapshot not found")

// WorkspaceStore keeps workspace snapshots for the lifetime of a session.
type WorkspaceStore interface {
	Save(ctx context.Context, snapshot domain.Snapshot) (*projection.Projection[*domain.Snapshot], error)
	// Get returns ErrSnapshotNotFound for unknown or expired sessions.
	Get(ctx context.Context, sessionID string) (*projection.Projection[*domain.Snapshot], error)
	Delete(ctx context.Context, sessionID string) error
	// PurgeExpired removes snapshots whose session ended before now and reports how many.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// NoopWorkspaceStore is a safe default when callers do not need snapshots.
var NoopWorkspaceStore WorkspaceStore = noopWorkspaceStore{}

type noopWorkspaceStore struct{}

func (noopWorkspaceStore) Save(_ context.Context, snapshot domain.Snapshot) (*projection.Projection[*domain.Snapshot], error) {
	now := time.Now().UTC()
	return projection.New(&snapshot, now, now), nil
}

func (noopWorkspaceStore) Get(context.Context, string) (*projection.Projection[*domain.Snapshot], error) {
	return nil, ErrSnapshotNotFound
}

func (noopWorkspaceStore) Delete(context.Context, string) error { return nil }

func (noopWorkspaceStore) PurgeExpired(context.Context, time.Time) (int64, error) { return 0, nil }

// SessionPurger removes expired workspace snapshots, possibly through a durable workflow.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}
