package sweep

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockProfileExpirer struct {
	mock.Mock
}

func (m *MockProfileExpirer) ExpireProfiles(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockTimeoutSweeper struct {
	mock.Mock
}

func (m *MockTimeoutSweeper) SweepTimeouts(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

type MockCounterCleaner struct {
	mock.Mock
}

func (m *MockCounterCleaner) Cleanup(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestWorker_RunOnce(t *testing.T) {
	t.Run("runs every step", func(t *testing.T) {
		profiles := new(MockProfileExpirer)
		timeouts := new(MockTimeoutSweeper)
		cleaner := new(MockCounterCleaner)
		profiles.On("ExpireProfiles", mock.Anything).Return(int64(2), nil)
		timeouts.On("SweepTimeouts", mock.Anything, 50).Return(3, nil)
		cleaner.On("Cleanup", mock.Anything, mock.Anything).Return(int64(7), nil)

		w := NewWorker(profiles, timeouts, cleaner, testLogger(), Config{BatchSize: 50})
		res := w.RunOnce(context.Background())

		assert.Equal(t, Result{ExpiredProfiles: 2, TimedOut: 3, PrunedAttempts: 7}, res)
	})

	t.Run("a failing step does not stop the others", func(t *testing.T) {
		profiles := new(MockProfileExpirer)
		timeouts := new(MockTimeoutSweeper)
		profiles.On("ExpireProfiles", mock.Anything).Return(int64(0), errors.New("db down"))
		timeouts.On("SweepTimeouts", mock.Anything, 500).Return(1, nil)

		w := NewWorker(profiles, timeouts, nil, testLogger(), DefaultConfig())
		res := w.RunOnce(context.Background())

		assert.Equal(t, 1, res.TimedOut)
		timeouts.AssertExpectations(t)
	})
}

func TestWorker_StartStop(t *testing.T) {
	profiles := new(MockProfileExpirer)
	timeouts := new(MockTimeoutSweeper)

	var sweeps int32
	profiles.On("ExpireProfiles", mock.Anything).Return(int64(0), nil)
	timeouts.On("SweepTimeouts", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		atomic.AddInt32(&sweeps, 1)
	}).Return(0, nil)

	w := NewWorker(profiles, timeouts, nil, testLogger(), Config{Interval: 20 * time.Millisecond})
	w.Start()

	time.Sleep(110 * time.Millisecond)

	w.Stop()
	w.Stop()

	assert.GreaterOrEqual(t, atomic.LoadInt32(&sweeps), int32(2))
}
