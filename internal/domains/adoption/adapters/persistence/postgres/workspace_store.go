package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/domain"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/ports"
	"github.com/Apurer/go-gin-dog-adoption/internal/shared/projection"
)

// WorkspaceStore persists workspace snapshots in PostgreSQL. Caller owns DB lifecycle and
// applies the schema through platform/migrations.
type WorkspaceStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewWorkspaceStore(db *gorm.DB) *WorkspaceStore {
	return &WorkspaceStore{db: db, now: time.Now}
}

// Save upserts the snapshot keyed by session id.
func (s *WorkspaceStore) Save(ctx context.Context, snapshot domain.Snapshot) (*projection.Projection[*domain.Snapshot], error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	snapshot.SessionID = strings.TrimSpace(snapshot.SessionID)
	if snapshot.SessionID == "" {
		return nil, errors.New("session id is required")
	}
	rec := toRecord(snapshot)
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "email", "cookies", "working_criteria", "committed_criteria",
				"result_ids", "result_total", "next_cursor", "prev_cursor", "dogs",
				"selection", "match", "route", "expires_at", "updated_at",
			}),
		}).
		Create(&rec).Error; err != nil {
		return nil, err
	}
	return s.get(ctx, snapshot.SessionID)
}

// Get returns ports.ErrSnapshotNotFound for unknown or expired sessions.
func (s *WorkspaceStore) Get(ctx context.Context, sessionID string) (*projection.Projection[*domain.Snapshot], error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	out, err := s.get(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return nil, err
	}
	if out.Entity.Expired(s.now()) {
		return nil, ports.ErrSnapshotNotFound
	}
	return out, nil
}

func (s *WorkspaceStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}
	return s.db.WithContext(ctx).Delete(&workspaceRecord{}, "session_id = ?", sessionID).Error
}

// PurgeExpired removes every snapshot whose session ended at or before now.
func (s *WorkspaceStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	result := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&workspaceRecord{})
	return result.RowsAffected, result.Error
}

func (s *WorkspaceStore) get(ctx context.Context, sessionID string) (*projection.Projection[*domain.Snapshot], error) {
	var rec workspaceRecord
	if err := s.db.WithContext(ctx).First(&rec, "session_id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrSnapshotNotFound
		}
		return nil, err
	}
	snapshot := rec.toDomain()
	return projection.New(&snapshot, rec.CreatedAt, rec.UpdatedAt), nil
}

func (s *WorkspaceStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres workspace store not configured")
	}
	return nil
}

var _ ports.WorkspaceStore = (*WorkspaceStore)(nil)
