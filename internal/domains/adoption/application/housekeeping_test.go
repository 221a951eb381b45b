package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingPurger struct {
	calls int
	err   error
}

func (p *countingPurger) PurgeExpired(context.Context) (int64, error) {
	p.calls++
	return 2, p.err
}

func TestHousekeeper_SweepEvictsAndPurges(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	workspaces := NewWorkspaces((&fakeDialer{}).dial, WithSessionTTL(time.Hour), WithClock(func() time.Time { return clock }))
	_, err := workspaces.Login(context.Background(), "Ada", "ada@example.com")
	require.NoError(t, err)
	purger := &countingPurger{}
	h := NewHousekeeper(workspaces, purger, time.Minute, nil)

	h.Sweep(context.Background())
	require.Equal(t, 1, workspaces.Active())
	require.Equal(t, 1, purger.calls)

	clock = now.Add(2 * time.Hour)
	h.Sweep(context.Background())
	require.Equal(t, 0, workspaces.Active())
	require.Equal(t, 2, purger.calls)
}

func TestHousekeeper_PurgeFailureIsNotFatal(t *testing.T) {
	purger := &countingPurger{err: errors.New("db down")}
	h := NewHousekeeper(nil, purger, 0, nil)
	require.Equal(t, DefaultPurgeInterval, h.interval)

	h.Sweep(context.Background())
	require.Equal(t, 1, purger.calls)
}

func TestHousekeeper_RunStopsWithContext(t *testing.T) {
	purger := &countingPurger{}
	h := NewHousekeeper(nil, purger, 10*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	time.Sleep(35 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("housekeeper did not stop")
	}
}
