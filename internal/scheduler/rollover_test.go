package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunNowRefreshesEveryTarget(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 5, 0, 0, time.UTC)
	var got []time.Time
	ok := RefresherFunc(func(ctx context.Context, on time.Time) error {
		got = append(got, on)
		return nil
	})
	broken := RefresherFunc(func(context.Context, time.Time) error {
		return errors.New("db locked")
	})

	r := NewRollover("", time.UTC, ok, broken)
	r.SetClock(func() time.Time { return day })
	r.Add(ok)

	err := r.RunNow(context.Background())
	assert.ErrorContains(t, err, "db locked")
	assert.Equal(t, []time.Time{day, day}, got)
	assert.Equal(t, day, r.LastRun())
}

func TestStartRejectsBadSpec(t *testing.T) {
	r := NewRollover("every midnight", time.UTC)
	assert.Error(t, r.Start())
}

func TestStartSchedulesRollover(t *testing.T) {
	var runs atomic.Int32
	r := NewRollover("@every 1s", time.UTC, RefresherFunc(func(context.Context, time.Time) error {
		runs.Add(1)
		return nil
	}))
	require.NoError(t, r.Start())
	defer r.Stop()

	assert.False(t, r.Next().IsZero())
	require.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
