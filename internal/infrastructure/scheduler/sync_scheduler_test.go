package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/erp/paysync/internal/application/docsync"
	"github.com/erp/paysync/internal/infrastructure/cache"
)

type fakeRunner struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	overlap  atomic.Bool
	delay    time.Duration
	err      error
	panicMsg string
	ran      chan struct{}
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{ran: make(chan struct{}, 16)}
}

func (f *fakeRunner) RunCycle(ctx context.Context) (*docsync.CycleReport, error) {
	if f.inFlight.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.inFlight.Add(-1)
	n := f.calls.Add(1)
	defer func() {
		select {
		case f.ran <- struct{}{}:
		default:
		}
	}()

	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &docsync.CycleReport{
		Outcome:   docsync.OutcomeNothingToSend,
		Delivered: int(n),
	}, nil
}

func waitRuns(t *testing.T, f *fakeRunner, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-f.ran:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for run %d", i+1)
		}
	}
}

type fakeLocker struct {
	mu       sync.Mutex
	err      error
	obtained int
	released int
}

func (l *fakeLocker) Obtain(context.Context) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.obtained++
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
		return nil
	}, nil
}

func testConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{Interval: time.Hour, HistorySize: 10, RunOnStart: true}
}

func stopScheduler(t *testing.T, s *DocumentSyncScheduler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestSyncSchedulerConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultSyncSchedulerConfig().Validate())

	err := SyncSchedulerConfig{Interval: 0}.Validate()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	err = SyncSchedulerConfig{Interval: time.Second, HistorySize: -1}.Validate()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewDocumentSyncScheduler(SyncSchedulerConfig{}, newFakeRunner(), zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDocumentSyncScheduler_RunsOnStart(t *testing.T) {
	runner := newFakeRunner()
	s, err := NewDocumentSyncScheduler(testConfig(), runner, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	waitRuns(t, runner, 1)
	stopScheduler(t, s)

	assert.False(t, s.IsRunning())
	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, TriggerSchedule, jobs[0].Trigger)
	assert.Equal(t, docsync.OutcomeNothingToSend, jobs[0].Outcome)
}

func TestDocumentSyncScheduler_Interval(t *testing.T) {
	runner := newFakeRunner()
	cfg := SyncSchedulerConfig{Interval: 10 * time.Millisecond, HistorySize: 3}
	s, err := NewDocumentSyncScheduler(cfg, runner, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	waitRuns(t, runner, 5)
	stopScheduler(t, s)

	jobs := s.Jobs()
	assert.Len(t, jobs, 3, "history is capped")
	assert.Greater(t, jobs[0].Delivered, jobs[1].Delivered, "newest first")
}

func TestDocumentSyncScheduler_TriggerNow(t *testing.T) {
	t.Run("rejects when stopped", func(t *testing.T) {
		s, err := NewDocumentSyncScheduler(testConfig(), newFakeRunner(), zap.NewNop())
		require.NoError(t, err)
		assert.ErrorIs(t, s.TriggerNow(), ErrSchedulerNotRunning)
	})

	t.Run("runs a manual cycle", func(t *testing.T) {
		runner := newFakeRunner()
		cfg := testConfig()
		cfg.RunOnStart = false
		s, err := NewDocumentSyncScheduler(cfg, runner, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NoError(t, s.Start(context.Background()))
		defer stopScheduler(t, s)

		require.NoError(t, s.TriggerNow())
		waitRuns(t, runner, 1)

		require.Eventually(t, func() bool {
			last, ok := s.Last()
			return ok && last.Trigger == TriggerManual
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("cycles never overlap", func(t *testing.T) {
		runner := newFakeRunner()
		runner.delay = 20 * time.Millisecond
		s, err := NewDocumentSyncScheduler(testConfig(), runner, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NoError(t, s.Start(context.Background()))
		defer stopScheduler(t, s)

		require.Eventually(t, s.Busy, time.Second, time.Millisecond)
		require.NoError(t, s.TriggerNow())
		assert.ErrorIs(t, s.TriggerNow(), ErrTriggerPending)

		waitRuns(t, runner, 2)
		assert.False(t, runner.overlap.Load())
	})
}

func TestDocumentSyncScheduler_Failures(t *testing.T) {
	t.Run("records runner error without report", func(t *testing.T) {
		runner := newFakeRunner()
		runner.err = errors.New("boom")
		s, err := NewDocumentSyncScheduler(testConfig(), runner, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NoError(t, s.Start(context.Background()))
		waitRuns(t, runner, 1)
		stopScheduler(t, s)

		last, ok := s.Last()
		require.True(t, ok)
		assert.Equal(t, docsync.OutcomeFailed, last.Outcome)
		assert.Equal(t, "boom", last.Error)
	})

	t.Run("recovers from panic and keeps looping", func(t *testing.T) {
		runner := newFakeRunner()
		runner.panicMsg = "kaboom"
		s, err := NewDocumentSyncScheduler(testConfig(), runner, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NoError(t, s.Start(context.Background()))
		waitRuns(t, runner, 1)

		require.Eventually(t, func() bool { return len(s.Jobs()) == 1 }, time.Second, 5*time.Millisecond)
		assert.True(t, s.IsRunning())
		assert.NoError(t, s.TriggerNow())
		waitRuns(t, runner, 1)
		stopScheduler(t, s)

		last, _ := s.Last()
		assert.Equal(t, docsync.OutcomeFailed, last.Outcome)
		assert.Contains(t, last.Error, "kaboom")
	})
}

func TestDocumentSyncScheduler_Locker(t *testing.T) {
	t.Run("holds lock for the cycle", func(t *testing.T) {
		runner := newFakeRunner()
		locker := &fakeLocker{}
		s, err := NewDocumentSyncScheduler(testConfig(), runner, zaptest.NewLogger(t), WithLocker(locker))
		require.NoError(t, err)
		require.NoError(t, s.Start(context.Background()))
		waitRuns(t, runner, 1)
		stopScheduler(t, s)

		locker.mu.Lock()
		defer locker.mu.Unlock()
		assert.Equal(t, 1, locker.obtained)
		assert.Equal(t, 1, locker.released)
	})

	t.Run("skips when held elsewhere", func(t *testing.T) {
		runner := newFakeRunner()
		locker := &fakeLocker{err: cache.ErrLockHeld}
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		s, err := NewDocumentSyncScheduler(testConfig(), runner, zaptest.NewLogger(t),
			WithLocker(locker), WithNow(func() time.Time { return now }))
		require.NoError(t, err)
		require.NoError(t, s.Start(context.Background()))

		require.Eventually(t, func() bool { return len(s.Jobs()) == 1 }, time.Second, 5*time.Millisecond)
		stopScheduler(t, s)

		assert.Zero(t, runner.calls.Load())
		last, _ := s.Last()
		assert.Equal(t, docsync.OutcomeSkipped, last.Outcome)
		assert.Equal(t, now, last.StartedAt)
	})

	t.Run("lock error fails the cycle", func(t *testing.T) {
		runner := newFakeRunner()
		locker := &fakeLocker{err: errors.New("redis down")}
		s, err := NewDocumentSyncScheduler(testConfig(), runner, zaptest.NewLogger(t), WithLocker(locker))
		require.NoError(t, err)
		require.NoError(t, s.Start(context.Background()))

		require.Eventually(t, func() bool { return len(s.Jobs()) == 1 }, time.Second, 5*time.Millisecond)
		stopScheduler(t, s)

		assert.Zero(t, runner.calls.Load())
		last, _ := s.Last()
		assert.Equal(t, docsync.OutcomeFailed, last.Outcome)
		assert.Equal(t, "redis down", last.Error)
	})
}

func TestDocumentSyncScheduler_StopIdempotent(t *testing.T) {
	s, err := NewDocumentSyncScheduler(testConfig(), newFakeRunner(), zap.NewNop())
	require.NoError(t, err)
	stopScheduler(t, s)
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	stopScheduler(t, s)
	stopScheduler(t, s)
}
