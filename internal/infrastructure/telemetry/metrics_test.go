package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	mp, err := NewMeterProvider(ctx, Config{}, 0, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(ctx))
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestSyncMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewSyncMetrics(provider.Meter("paysync"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordCycle(ctx, "delivered", 2*time.Second)
	m.RecordCycle(ctx, "nothing_to_send", time.Second)
	m.RecordDelivered(ctx, "INVOICE", 3)
	m.RecordDelivered(ctx, "CREDITNOTE", 1)
	m.RecordSkipped(ctx, "mapping_error", 2)
	m.RecordSkipped(ctx, "unchanged", 0)

	got := collect(t, reader)

	cycles, ok := got["paysync.sync.cycles"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range cycles.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(2), total)
	assert.Len(t, cycles.DataPoints, 2)

	delivered, ok := got["paysync.sync.documents.delivered"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	total = 0
	for _, dp := range delivered.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(4), total)

	skipped, ok := got["paysync.sync.documents.skipped"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, skipped.DataPoints, 1)
	assert.Equal(t, int64(2), skipped.DataPoints[0].Value)

	duration, ok := got["paysync.sync.cycle.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range duration.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)
}

func TestSyncMetrics_NilSafe(t *testing.T) {
	var m *SyncMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordCycle(ctx, "failed", time.Second)
		m.RecordDelivered(ctx, "INVOICE", 1)
		m.RecordSkipped(ctx, "x", 1)
	})
	assert.NotNil(t, NewNoopSyncMetrics())
}
