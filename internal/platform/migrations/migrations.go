package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Adapters never automigrate on their own.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&workspaceSnapshotRecord{},
	)
}

// Workspace snapshot schema mirrors the adoption Postgres adapter. JSON columns are typed as
// raw bytes here since only the column definition matters to the migration.
type workspaceSnapshotRecord struct {
	SessionID         string         `gorm:"primaryKey;column:session_id;size:64"`
	Name              string         `gorm:"column:name"`
	Email             string         `gorm:"column:email"`
	Cookies           []byte         `gorm:"column:cookies;type:jsonb"`
	WorkingCriteria   []byte         `gorm:"column:working_criteria;type:jsonb"`
	CommittedCriteria []byte         `gorm:"column:committed_criteria;type:jsonb"`
	ResultIDs         pq.StringArray `gorm:"column:result_ids;type:text[]"`
	ResultTotal       int            `gorm:"column:result_total"`
	NextCursor        string         `gorm:"column:next_cursor"`
	PrevCursor        string         `gorm:"column:prev_cursor"`
	Dogs              []byte         `gorm:"column:dogs;type:jsonb"`
	Selection         pq.StringArray `gorm:"column:selection;type:text[]"`
	Match             []byte         `gorm:"column:match;type:jsonb"`
	Route             string         `gorm:"column:route;type:varchar(32)"`
	ExpiresAt         time.Time      `gorm:"column:expires_at;index"`
	CreatedAt         time.Time      `gorm:"column:created_at"`
	UpdatedAt         time.Time      `gorm:"column:updated_at"`
}

func (workspaceSnapshotRecord) TableName() string { return "workspace_snapshots" }
