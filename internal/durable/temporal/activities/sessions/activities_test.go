package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/adapters/memory"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/domain"
)

func TestActivities_PurgeExpired(t *testing.T) {
	store := memory.NewWorkspaceStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	_, err := store.Save(context.Background(), domain.Snapshot{SessionID: "old", ExpiresAt: now.Add(-time.Hour)})
	require.NoError(t, err)
	_, err = store.Save(context.Background(), domain.Snapshot{SessionID: "new", ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)

	acts := NewActivities(store)
	acts.now = func() time.Time { return now }
	result, err := acts.PurgeExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), result.Purged)
	require.Equal(t, now, result.At)
}

func TestActivities_RequiresStore(t *testing.T) {
	_, err := NewActivities(nil).PurgeExpired(context.Background())
	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	require.True(t, appErr.NonRetryable())
	require.Equal(t, ErrTypeNotConfigured, appErr.Type())
}
