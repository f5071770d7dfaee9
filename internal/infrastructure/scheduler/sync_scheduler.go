package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/paysync/internal/application/docsync"
	"github.com/erp/paysync/internal/infrastructure/cache"
)

const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// CycleRunner runs one sync cycle
type CycleRunner interface {
	RunCycle(ctx context.Context) (*docsync.CycleReport, error)
}

// Locker guards a cycle across instances.
// Obtain returns cache.ErrLockHeld when another instance holds the lock.
type Locker interface {
	Obtain(ctx context.Context) (func(context.Context) error, error)
}

// SyncSchedulerConfig holds configuration for the document sync scheduler
type SyncSchedulerConfig struct {
	// Interval is the wait between the end of one cycle and the start of the next
	Interval time.Duration

	// HistorySize caps the number of reports kept for monitoring
	HistorySize int

	// RunOnStart runs a cycle as soon as the scheduler starts
	RunOnStart bool
}

// DefaultSyncSchedulerConfig returns default configuration
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Interval:    15 * time.Minute,
		HistorySize: 50,
		RunOnStart:  true,
	}
}

// Validate validates the configuration
func (c SyncSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.HistorySize < 0 {
		return fmt.Errorf("%w: history size must not be negative", ErrInvalidConfig)
	}
	return nil
}

// SyncSchedulerOption configures a DocumentSyncScheduler
type SyncSchedulerOption func(*DocumentSyncScheduler)

// WithLocker guards every cycle with a distributed lock
func WithLocker(l Locker) SyncSchedulerOption {
	return func(s *DocumentSyncScheduler) {
		s.locker = l
	}
}

// WithNow overrides the clock used for skipped-cycle reports
func WithNow(now func() time.Time) SyncSchedulerOption {
	return func(s *DocumentSyncScheduler) {
		s.now = now
	}
}

// DocumentSyncScheduler runs sync cycles one at a time.
// The next cycle is scheduled only after the previous one finishes, so cycles never overlap.
type DocumentSyncScheduler struct {
	config SyncSchedulerConfig
	runner CycleRunner
	locker Locker
	logger *zap.Logger
	now    func() time.Time

	trigger   chan struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	historyMu sync.RWMutex
	history   []docsync.CycleReport
	running   bool
}

// NewDocumentSyncScheduler creates a new document sync scheduler
func NewDocumentSyncScheduler(config SyncSchedulerConfig, runner CycleRunner, logger *zap.Logger, opts ...SyncSchedulerOption) (*DocumentSyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &DocumentSyncScheduler{
		config:  config,
		runner:  runner,
		logger:  logger,
		now:     time.Now,
		trigger: make(chan struct{}, 1),
		history: make([]docsync.CycleReport, 0, config.HistorySize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start starts the scheduler loop
func (s *DocumentSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Document sync scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Bool("run_on_start", s.config.RunOnStart),
		zap.Bool("locked", s.locker != nil),
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight cycle to finish
func (s *DocumentSyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Document sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Document sync scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (s *DocumentSyncScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// TriggerNow queues a cycle to run as soon as the loop is free.
// At most one manual run is queued at a time.
func (s *DocumentSyncScheduler) TriggerNow() error {
	s.mu.Lock()
	running := s.isRunning
	s.mu.Unlock()
	if !running {
		return ErrSchedulerNotRunning
	}

	select {
	case s.trigger <- struct{}{}:
		s.logger.Debug("Manual sync run queued")
		return nil
	default:
		return ErrTriggerPending
	}
}

// Busy reports whether a cycle is in flight
func (s *DocumentSyncScheduler) Busy() bool {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()
	return s.running
}

// Jobs returns the recorded cycle reports, newest first
func (s *DocumentSyncScheduler) Jobs() []docsync.CycleReport {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	out := make([]docsync.CycleReport, 0, len(s.history))
	for i := len(s.history) - 1; i >= 0; i-- {
		out = append(out, s.history[i])
	}
	return out
}

// Last returns the most recent report, if any
func (s *DocumentSyncScheduler) Last() (docsync.CycleReport, bool) {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()
	if len(s.history) == 0 {
		return docsync.CycleReport{}, false
	}
	return s.history[len(s.history)-1], true
}

func (s *DocumentSyncScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.runOnce(ctx, TriggerSchedule)
	}

	timer := time.NewTimer(s.config.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Document sync loop stopping")
			return
		case <-timer.C:
			s.runOnce(ctx, TriggerSchedule)
		case <-s.trigger:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			s.runOnce(ctx, TriggerManual)
		}
		if ctx.Err() != nil {
			return
		}
		timer.Reset(s.config.Interval)
	}
}

// runOnce executes a single cycle and records its report
func (s *DocumentSyncScheduler) runOnce(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}

	s.setBusy(true)
	defer s.setBusy(false)

	var report *docsync.CycleReport
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Sync cycle panicked",
				zap.String("trigger", trigger),
				zap.Any("panic", r),
			)
			report = s.syntheticReport(trigger, docsync.OutcomeFailed, fmt.Sprintf("panic: %v", r))
			s.addToHistory(report)
		}
	}()

	if s.locker != nil {
		release, err := s.locker.Obtain(ctx)
		if err != nil {
			if errors.Is(err, cache.ErrLockHeld) {
				s.logger.Info("Sync cycle skipped, lock held by another instance", zap.String("trigger", trigger))
				s.addToHistory(s.syntheticReport(trigger, docsync.OutcomeSkipped, err.Error()))
				return
			}
			s.logger.Error("Failed to obtain sync lock", zap.String("trigger", trigger), zap.Error(err))
			s.addToHistory(s.syntheticReport(trigger, docsync.OutcomeFailed, err.Error()))
			return
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("Failed to release sync lock", zap.Error(err))
			}
		}()
	}

	report, err := s.runner.RunCycle(ctx)
	if report == nil {
		msg := ""
		if err != nil {
			msg = err.Error()
		}
		report = s.syntheticReport(trigger, docsync.OutcomeFailed, msg)
	}
	report.Trigger = trigger
	s.addToHistory(report)
}

func (s *DocumentSyncScheduler) syntheticReport(trigger string, outcome docsync.Outcome, msg string) *docsync.CycleReport {
	now := s.now()
	return &docsync.CycleReport{
		ID:         uuid.New().String(),
		Trigger:    trigger,
		StartedAt:  now,
		FinishedAt: now,
		States:     []docsync.State{docsync.StateIdle},
		Outcome:    outcome,
		Error:      msg,
	}
}

func (s *DocumentSyncScheduler) setBusy(v bool) {
	s.historyMu.Lock()
	s.running = v
	s.historyMu.Unlock()
}

// addToHistory appends a report, dropping the oldest past the configured size
func (s *DocumentSyncScheduler) addToHistory(report *docsync.CycleReport) {
	if s.config.HistorySize == 0 {
		return
	}
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append(s.history, *report)
	if over := len(s.history) - s.config.HistorySize; over > 0 {
		s.history = append(s.history[:0], s.history[over:]...)
	}
}
