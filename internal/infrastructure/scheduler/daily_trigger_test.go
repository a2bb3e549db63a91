package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestTrigger(t *testing.T, at string, job Job) (*DailyTrigger, *time.Time) {
	t.Helper()
	trigger, err := NewDailyTrigger(DailyTriggerConfig{Name: "test", At: at}, job, zap.NewNop())
	require.NoError(t, err)
	now := time.Date(2026, 3, 10, 1, 0, 0, 0, time.Local)
	trigger.now = func() time.Time { return now }
	return trigger, &now
}

func TestNewDailyTrigger(t *testing.T) {
	for _, at := range []string{"", "2am", "24:00", "12:60"} {
		_, err := NewDailyTrigger(DailyTriggerConfig{At: at}, func(context.Context) error { return nil }, zap.NewNop())
		assert.ErrorIs(t, err, ErrInvalidConfig, at)
	}

	trigger, err := NewDailyTrigger(DailyTriggerConfig{At: "03:30"}, func(context.Context) error { return nil }, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 3, trigger.hour)
	assert.Equal(t, 30, trigger.minute)
	assert.Equal(t, time.Minute, trigger.config.CheckInterval)
}

func TestDailyTrigger_CheckAndRun(t *testing.T) {
	ctx := context.Background()

	t.Run("runs once per day after the scheduled time", func(t *testing.T) {
		var runs atomic.Int32
		trigger, now := newTestTrigger(t, "02:00", func(context.Context) error {
			runs.Add(1)
			return nil
		})

		assert.False(t, trigger.checkAndRun(ctx), "before 02:00")

		*now = now.Add(time.Hour)
		assert.True(t, trigger.checkAndRun(ctx))
		*now = now.Add(3 * time.Hour)
		assert.False(t, trigger.checkAndRun(ctx), "already ran today")

		*now = now.Add(24 * time.Hour)
		assert.True(t, trigger.checkAndRun(ctx))
		assert.Equal(t, int32(2), runs.Load())
	})

	t.Run("catches up when started after the scheduled time", func(t *testing.T) {
		var runs atomic.Int32
		trigger, now := newTestTrigger(t, "00:30", func(context.Context) error {
			runs.Add(1)
			return nil
		})
		*now = now.Add(10 * time.Hour)

		assert.True(t, trigger.checkAndRun(ctx))
		assert.Equal(t, int32(1), runs.Load())
	})

	t.Run("failed job is not retried the same day", func(t *testing.T) {
		var runs atomic.Int32
		trigger, _ := newTestTrigger(t, "00:00", func(context.Context) error {
			runs.Add(1)
			return errors.New("lock held")
		})

		assert.True(t, trigger.checkAndRun(ctx))
		assert.False(t, trigger.checkAndRun(ctx))
		assert.Equal(t, int32(1), runs.Load())
	})

	t.Run("timeout bounds the job context", func(t *testing.T) {
		trigger, _ := newTestTrigger(t, "00:00", func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			return nil
		})
		trigger.config.Timeout = time.Minute
		trigger.RunNow(ctx)
	})
}

func TestDailyTrigger_StartStop(t *testing.T) {
	trigger, err := NewDailyTrigger(DailyTriggerConfig{Name: "test", At: "00:00", CheckInterval: time.Millisecond},
		func(ctx context.Context) error { return nil }, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, trigger.Start(context.Background()))
	require.NoError(t, trigger.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, trigger.Stop(ctx))
	require.NoError(t, trigger.Stop(ctx))
}
