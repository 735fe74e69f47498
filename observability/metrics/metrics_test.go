package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestExporter(t *testing.T) (*MetricExporter, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mc, shutdown, err := NewMetricExporter(context.Background(),
		WithServiceName("bpi-log-job-test"),
		WithEnvironment("test"),
		WithReader(reader),
	)
	require.NoError(t, err)
	t.Cleanup(shutdown)
	return mc, reader
}

func findMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	t.Fatalf("metric %s not collected", name)
	return metricdata.Metrics{}
}

func TestNewMetricExporter(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{
			name: "http endpoint",
			opts: []Option{WithOTLPEndpoint("localhost:4318")},
		},
		{
			name: "grpc endpoint",
			opts: []Option{WithOTLPGRPCEndpoint("localhost:4317")},
		},
		{
			name: "grpc takes precedence",
			opts: []Option{WithOTLPEndpoint("localhost:4318"), WithOTLPGRPCEndpoint("localhost:4317")},
		},
		{
			name:    "no endpoint",
			opts:    []Option{WithServiceName("bpi-log-job")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc, shutdown, err := NewMetricExporter(context.Background(), tt.opts...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer shutdown()
			assert.NotNil(t, mc.meterProvider)
			assert.NotNil(t, mc.meter)
			assert.NotNil(t, mc.resource)
		})
	}
}

func TestRecordCounter(t *testing.T) {
	mc, reader := newTestExporter(t)
	ctx := context.Background()

	attrs := map[string]string{"step": "load_api_gcs", "outcome": "success"}
	require.NoError(t, mc.RecordCounter(ctx, "pipeline_runs_total", "Pipeline step executions", "1", 1, attrs))
	require.NoError(t, mc.RecordCounter(ctx, "pipeline_runs_total", "Pipeline step executions", "1", 1, attrs))

	m := findMetric(t, reader, "pipeline_runs_total")
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	step, ok := sum.DataPoints[0].Attributes.Value(attribute.Key("step"))
	require.True(t, ok)
	assert.Equal(t, "load_api_gcs", step.AsString())
}

func TestRecordHistogram(t *testing.T) {
	mc, reader := newTestExporter(t)

	require.NoError(t, mc.RecordHistogram(context.Background(), "pipeline_run_duration_seconds", "Pipeline run duration", "s", 1.5, map[string]string{"outcome": "failure"}))

	m := findMetric(t, reader, "pipeline_run_duration_seconds")
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.Equal(t, 1.5, hist.DataPoints[0].Sum)
}

func TestRecord_InvalidName(t *testing.T) {
	mc, _ := newTestExporter(t)
	ctx := context.Background()

	assert.Error(t, mc.RecordCounter(ctx, "", "empty", "1", 1, nil))
	assert.Error(t, mc.RecordHistogram(ctx, "", "empty", "s", 1, nil))
}
