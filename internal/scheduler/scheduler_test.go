package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"jobhunt-aggregator/internal/errors"
)

func TestScheduleRunsTask(t *testing.T) {
	s := New(context.Background(), zaptest.NewLogger(t).Sugar())
	var runs atomic.Int32
	require.NoError(t, s.Schedule("poll", "@every 1s", func(context.Context) error {
		runs.Add(1)
		return errors.New("logged, not fatal")
	}))

	s.Start()
	defer s.Stop(context.Background())

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	s := New(context.Background(), nil)
	err := s.Schedule("poll", "every now and then", func(context.Context) error { return nil })
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))

	_, ok := s.Next("poll")
	assert.False(t, ok)
}

func TestScheduleReplacesByName(t *testing.T) {
	s := New(context.Background(), nil)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Schedule("poll", "@every 1h", noop))
	require.NoError(t, s.Schedule("poll", "@every 2h", noop))
	assert.Len(t, s.cron.Entries(), 1)

	s.Unschedule("poll")
	assert.Empty(t, s.cron.Entries())
	_, ok := s.Next("poll")
	assert.False(t, ok)
}

func TestTaskSeesSchedulerContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(ctx, nil)
	seen := make(chan error, 1)
	require.NoError(t, s.Schedule("ctx", "@every 1s", func(c context.Context) error {
		select {
		case seen <- c.Err():
		default:
		}
		return nil
	}))
	cancel()
	s.Start()
	defer s.Stop(context.Background())

	select {
	case err := <-seen:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("task did not run")
	}
}
