// Package docsync runs the incremental synchronization of open ERP documents
// to the remote payment-status system.
package docsync

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/paysync/internal/domain/document"
	"github.com/erp/paysync/internal/domain/partner"
	"github.com/erp/paysync/internal/domain/watermark"
	"github.com/erp/paysync/internal/infrastructure/logger"
	"github.com/erp/paysync/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Orchestrator runs sync cycles. It holds no state between cycles; the
// watermark store is the only memory of what was sent.
type Orchestrator struct {
	counterparties partner.CounterpartyRepository
	cache          document.Cache
	watermarks     watermark.Store
	source         DocumentSource
	deliverer      Deliverer
	metrics        *telemetry.SyncMetrics
	logger         *zap.Logger
	now            func() time.Time
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithMetrics sets the cycle instruments
func WithMetrics(m *telemetry.SyncMetrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithLogger sets the orchestrator logger
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// NewOrchestrator creates an orchestrator over its collaborators
func NewOrchestrator(
	counterparties partner.CounterpartyRepository,
	cache document.Cache,
	watermarks watermark.Store,
	source DocumentSource,
	deliverer Deliverer,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		counterparties: counterparties,
		cache:          cache,
		watermarks:     watermarks,
		source:         source,
		deliverer:      deliverer,
		logger:         zap.NewNop(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunCycle performs one fetch, dedup, deliver and commit pass.
//
// ctx is checked at cycle start, before fetching and before delivery. Calls
// already in flight are not interrupted, and a delivered batch is always
// committed.
func (o *Orchestrator) RunCycle(ctx context.Context) (*CycleReport, error) {
	start := o.now()
	report := &CycleReport{
		ID:        uuid.New().String(),
		StartedAt: start,
		States:    []State{StateIdle},
	}

	ctx = logger.WithCycleID(ctx, report.ID)
	ctx, span := telemetry.StartSpan(ctx, "docsync.cycle", attribute.String("cycle_id", report.ID))
	log := logger.WithLogger(ctx, o.logger)

	err := o.run(ctx, report, start)

	report.FinishedAt = o.now()
	if err != nil {
		report.Error = err.Error()
		if report.Outcome == "" {
			report.Outcome = OutcomeFailed
		}
	}
	report.enter(StateIdle)

	span.SetAttributes(
		attribute.String("outcome", string(report.Outcome)),
		attribute.Int("fetched", report.Fetched),
		attribute.Int("delivered", report.Delivered),
	)
	telemetry.EndSpan(span, err)
	o.metrics.RecordCycle(ctx, string(report.Outcome), report.Duration())

	fields := []zap.Field{
		zap.String("outcome", string(report.Outcome)),
		zap.Int("counterparties", report.Counterparties),
		zap.Int("fetched", report.Fetched),
		zap.Int("deduped", report.Deduped),
		zap.Int("delivered", report.Delivered),
		zap.Duration("duration", report.Duration()),
	}
	if report.Floor != nil {
		fields = append(fields, zap.Time("floor", *report.Floor))
	}
	if err != nil {
		log.Warn("Sync cycle failed", append(fields, zap.Error(err))...)
	} else {
		log.Info("Sync cycle finished", fields...)
	}
	return report, err
}

func (o *Orchestrator) run(ctx context.Context, report *CycleReport, start time.Time) error {
	if err := ctx.Err(); err != nil {
		report.Outcome = OutcomeCancelled
		return err
	}
	call := context.WithoutCancel(ctx)

	report.enter(StateFetchingWatermarks)
	tracked, err := o.counterparties.List(call)
	if err != nil {
		return fmt.Errorf("list counterparties: %w", err)
	}
	report.Counterparties = len(tracked)
	if len(tracked) == 0 {
		report.Outcome = OutcomeNoCounterparties
		return nil
	}
	codes := partner.Codes(tracked)

	floor, err := o.floor(call, codes)
	if err != nil {
		return fmt.Errorf("compute watermark floor: %w", err)
	}
	report.Floor = floor

	if err := ctx.Err(); err != nil {
		report.Outcome = OutcomeCancelled
		return err
	}

	report.enter(StateFetchingDocuments)
	fetched, err := o.source.FetchOpenDocuments(call, codes, floor)
	if err != nil {
		return fmt.Errorf("fetch documents: %w", err)
	}
	report.Fetched = len(fetched)

	report.enter(StateDeduping)
	batch := document.Dedupe(fetched)
	report.Deduped = len(batch)
	o.metrics.RecordSkipped(ctx, "duplicate", len(fetched)-len(batch))
	if len(batch) == 0 {
		report.Outcome = OutcomeNothingToSend
		return nil
	}

	if err := ctx.Err(); err != nil {
		report.Outcome = OutcomeCancelled
		return err
	}

	report.enter(StateDelivering)
	if err := o.deliverer.Deliver(call, batch); err != nil {
		return fmt.Errorf("deliver %d documents: %w", len(batch), err)
	}
	report.Delivered = len(batch)
	o.recordDelivered(ctx, batch)

	report.enter(StateCommitting)
	committedAt := o.now()
	if committedAt.Before(start) {
		committedAt = start
	}
	report.CommittedAt = &committedAt
	report.CommitFailures = o.commit(call, batch, committedAt)
	report.Outcome = OutcomeDelivered
	return nil
}

// floor is the earliest watermark over every tracked counterparty. A
// counterparty with nothing sent yet makes the floor nil, which means a full
// fetch for all of them.
func (o *Orchestrator) floor(ctx context.Context, codes []string) (*time.Time, error) {
	var floor *time.Time
	for _, code := range codes {
		ids, err := o.cache.ListInternalIDs(ctx, code)
		if err != nil {
			return nil, err
		}
		wm, err := o.watermarks.MinimumWatermark(ctx, ids)
		if err != nil {
			return nil, err
		}
		if wm == nil {
			return nil, nil
		}
		floor = watermark.Earliest(floor, wm)
	}
	return floor, nil
}

// commit upserts every delivered document and stamps its watermark. A
// failure on one document is logged and the rest continue.
func (o *Orchestrator) commit(ctx context.Context, batch []document.Document, at time.Time) int {
	log := logger.WithLogger(ctx, o.logger)
	failures := 0
	for i := range batch {
		doc := &batch[i]
		if err := o.cache.Upsert(ctx, doc); err != nil {
			failures++
			log.Error("Failed to cache delivered document",
				zap.String("internal_id", doc.InternalID), zap.Error(err))
			continue
		}
		if err := o.watermarks.Set(ctx, doc.InternalID, at); err != nil {
			failures++
			log.Error("Failed to record watermark",
				zap.String("internal_id", doc.InternalID), zap.Error(err))
		}
	}
	return failures
}

func (o *Orchestrator) recordDelivered(ctx context.Context, batch []document.Document) {
	byType := make(map[document.Type]int, 2)
	for i := range batch {
		byType[batch[i].Type]++
	}
	for t, n := range byType {
		o.metrics.RecordDelivered(ctx, string(t), n)
	}
}
