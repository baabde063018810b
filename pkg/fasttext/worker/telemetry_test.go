package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/SimplyComplexApps/fastText/pkg/fasttext"
)

func TestWorkerTelemetry(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	w := newWorker(t, &fakeModel{concurrent: true}, Options{
		Tracer: tp.Tracer("test"),
		Meter:  mp.Meter("test"),
	})
	ctx := context.Background()

	_, err := w.Predict(ctx, "baking", 1, 0)
	require.NoError(t, err)
	_, err = w.Predict(ctx, "fail", 1, 0)
	require.ErrorIs(t, err, fasttext.ErrNative)

	ended := spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "fasttext.predict", ended[0].Name())
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
	assert.Equal(t, codes.Error, ended[1].Status().Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), sums["fasttext.worker.calls"])
	assert.Equal(t, int64(1), sums["fasttext.worker.errors"])
}
