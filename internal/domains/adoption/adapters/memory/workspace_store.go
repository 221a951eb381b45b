package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/domain"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/ports"
	"github.com/Apurer/go-gin-dog-adoption/internal/shared/projection"
)

// WorkspaceStore is an in-memory WorkspaceStore implementation.
type WorkspaceStore struct {
	snapshots sync.Map
	now       func() time.Time
}

type storedSnapshot struct {
	snapshot domain.Snapshot
	meta     projection.Metadata
}

func NewWorkspaceStore() *WorkspaceStore {
	return &WorkspaceStore{now: time.Now}
}

func (s *WorkspaceStore) Save(_ context.Context, snapshot domain.Snapshot) (*projection.Projection[*domain.Snapshot], error) {
	id := strings.TrimSpace(snapshot.SessionID)
	if id == "" {
		return nil, errors.New("session id is required")
	}
	now := s.now().UTC()
	meta := projection.Metadata{CreatedAt: now, UpdatedAt: now}
	if prev, ok := s.snapshots.Load(id); ok {
		meta.CreatedAt = prev.(storedSnapshot).meta.CreatedAt
	}
	snapshot = cloneSnapshot(snapshot)
	snapshot.SessionID = id
	s.snapshots.Store(id, storedSnapshot{snapshot: snapshot, meta: meta})
	out := cloneSnapshot(snapshot)
	return projection.New(&out, meta.CreatedAt, meta.UpdatedAt), nil
}

func (s *WorkspaceStore) Get(_ context.Context, sessionID string) (*projection.Projection[*domain.Snapshot], error) {
	v, ok := s.snapshots.Load(strings.TrimSpace(sessionID))
	if !ok {
		return nil, ports.ErrSnapshotNotFound
	}
	stored := v.(storedSnapshot)
	if stored.snapshot.Expired(s.now()) {
		return nil, ports.ErrSnapshotNotFound
	}
	out := cloneSnapshot(stored.snapshot)
	return projection.New(&out, stored.meta.CreatedAt, stored.meta.UpdatedAt), nil
}

func (s *WorkspaceStore) Delete(_ context.Context, sessionID string) error {
	s.snapshots.Delete(strings.TrimSpace(sessionID))
	return nil
}

func (s *WorkspaceStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	var purged int64
	s.snapshots.Range(func(key, value any) bool {
		if value.(storedSnapshot).snapshot.Expired(now) {
			s.snapshots.Delete(key)
			purged++
		}
		return true
	})
	return purged, nil
}

func cloneSnapshot(s domain.Snapshot) domain.Snapshot {
	s.State = s.State.Clone()
	s.Credential.Cookies = append([]domain.SessionCookie(nil), s.Credential.Cookies...)
	return s
}

var _ ports.WorkspaceStore = (*WorkspaceStore)(nil)
