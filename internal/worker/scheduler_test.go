package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	mu    sync.Mutex
	calls []time.Time
	n     int
	err   error
}

func (r *countingRunner) ProcessDueExpenses(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, now)
	return r.n, r.err
}

func TestNewScheduler_Spec(t *testing.T) {
	_, err := NewScheduler(&countingRunner{}, "not a cron", time.UTC)
	assert.ErrorContains(t, err, "parse cron spec")

	s, err := NewScheduler(&countingRunner{}, "", time.UTC)
	require.NoError(t, err)
	from := time.Date(2025, 10, 19, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 10, 20, 2, 0, 0, 0, time.UTC), s.Next(from))

	s, err = NewScheduler(&countingRunner{}, "30 6 1 * *", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 11, 1, 6, 30, 0, 0, time.UTC), s.Next(from))
}

func TestScheduler_RunOnce(t *testing.T) {
	now := time.Date(2025, 10, 19, 9, 0, 0, 0, time.UTC)
	runner := &countingRunner{n: 2}
	s, err := NewScheduler(runner, DefaultRecurringSpec, time.UTC)
	require.NoError(t, err)
	s.now = func() time.Time { return now }

	assert.Equal(t, 2, s.RunOnce(context.Background()))
	assert.Equal(t, []time.Time{now}, runner.calls)

	runner.err = errors.New("store down")
	assert.Zero(t, s.RunOnce(context.Background()))
}

func TestScheduler_RunProcessesAtStartup(t *testing.T) {
	runner := &countingRunner{}
	s, err := NewScheduler(runner, DefaultRecurringSpec, time.UTC)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
	assert.Len(t, runner.calls, 1)
}
