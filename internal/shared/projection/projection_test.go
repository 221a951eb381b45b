package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsUpdatedAt(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := New("snapshot", created, time.Time{})
	require.Equal(t, "snapshot", p.Entity)
	require.Equal(t, created, p.Metadata.UpdatedAt)

	p = New("snapshot", created, created.Add(time.Minute))
	require.Equal(t, created, p.Metadata.CreatedAt)
	require.Equal(t, created.Add(time.Minute), p.Metadata.UpdatedAt)
}
