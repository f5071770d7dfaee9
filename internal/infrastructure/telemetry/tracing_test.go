package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer installs an in-memory span recorder as the global provider.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestStartSpan_EndSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := StartSpan(context.Background(), "sync.cycle", attribute.Int("counterparties", 2))
	EndSpan(span, nil)

	_, failed := StartSpan(context.Background(), "sync.deliver")
	EndSpan(failed, errors.New("rejected"))

	spans := sr.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "sync.cycle", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.Int("counterparties", 2))

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "rejected", spans[1].Status().Description)
	require.Len(t, spans[1].Events(), 1)
	assert.Equal(t, "exception", spans[1].Events()[0].Name)
}
