package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MeterProvider wraps the SDK meter provider with lifecycle management.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
	enabled  bool
}

// NewMeterProvider creates the meter provider and installs it globally.
// exportInterval defaults to 60s.
func NewMeterProvider(ctx context.Context, cfg Config, exportInterval time.Duration, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{logger: logger, enabled: cfg.Enabled}

	if !cfg.Enabled {
		logger.Info("Metrics disabled, using no-op meter provider")
		return mp, nil
	}
	if exportInterval <= 0 {
		exportInterval = 60 * time.Second
	}

	exporterOpts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint),
	}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("OpenTelemetry MeterProvider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Duration("export_interval", exportInterval),
	)
	return mp, nil
}

// Shutdown flushes pending metrics and stops the reader.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := mp.provider.Shutdown(shutdownCtx); err != nil {
		mp.logger.Error("Error shutting down meter provider", zap.Error(err))
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// Meter returns a named meter, falling back to the global provider.
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// IsEnabled reports whether metrics are exported.
func (mp *MeterProvider) IsEnabled() bool {
	return mp.enabled && mp.provider != nil
}

// Attribute keys shared by the sync instruments.
var (
	AttrOutcome      = attribute.Key("outcome")
	AttrDocumentType = attribute.Key("document_type")
	AttrReason       = attribute.Key("reason")
)

// SyncDurationBuckets are bucket boundaries for cycle duration (seconds).
var SyncDurationBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// SyncMetrics holds the instruments recorded by the sync cycle.
type SyncMetrics struct {
	cycles    metric.Int64Counter
	delivered metric.Int64Counter
	skipped   metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewSyncMetrics registers the sync instruments on meter.
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	cycles, err := meter.Int64Counter("paysync.sync.cycles",
		metric.WithDescription("Completed sync cycles by outcome"),
		metric.WithUnit("{cycle}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cycles counter: %w", err)
	}
	delivered, err := meter.Int64Counter("paysync.sync.documents.delivered",
		metric.WithDescription("Documents accepted by the remote service"),
		metric.WithUnit("{document}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create delivered counter: %w", err)
	}
	skipped, err := meter.Int64Counter("paysync.sync.documents.skipped",
		metric.WithDescription("Documents left out of a delivery batch"),
		metric.WithUnit("{document}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create skipped counter: %w", err)
	}
	duration, err := meter.Float64Histogram("paysync.sync.cycle.duration",
		metric.WithDescription("Sync cycle duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(SyncDurationBuckets...))
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}
	return &SyncMetrics{cycles: cycles, delivered: delivered, skipped: skipped, duration: duration}, nil
}

// NewNoopSyncMetrics returns instruments backed by the global provider.
func NewNoopSyncMetrics() *SyncMetrics {
	m, _ := NewSyncMetrics(otel.GetMeterProvider().Meter("paysync"))
	return m
}

// RecordCycle records the outcome and duration of one cycle.
func (m *SyncMetrics) RecordCycle(ctx context.Context, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(AttrOutcome.String(outcome))
	m.cycles.Add(ctx, 1, attrs)
	m.duration.Record(ctx, d.Seconds(), attrs)
}

// RecordDelivered counts delivered documents of one type.
func (m *SyncMetrics) RecordDelivered(ctx context.Context, docType string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.delivered.Add(ctx, int64(n), metric.WithAttributes(AttrDocumentType.String(docType)))
}

// RecordSkipped counts documents dropped before delivery.
func (m *SyncMetrics) RecordSkipped(ctx context.Context, reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.skipped.Add(ctx, int64(n), metric.WithAttributes(AttrReason.String(reason)))
}
