package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	metricRunsTotal   = "pipeline_runs_total"
	metricRunDuration = "pipeline_run_duration_seconds"
)

// MetricsRecorder is satisfied by *metrics.MetricExporter.
type MetricsRecorder interface {
	RecordCounter(ctx context.Context, name, description, unit string, value int64, attributes map[string]string) error
	RecordHistogram(ctx context.Context, name, description, unit string, value float64, attributes map[string]string) error
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) RecordCounter(ctx context.Context, name, description, unit string, value int64, attributes map[string]string) error {
	return nil
}

func (noopMetricsRecorder) RecordHistogram(ctx context.Context, name, description, unit string, value float64, attributes map[string]string) error {
	return nil
}

func (j *Job) recordStep(ctx context.Context, step, outcome string) {
	err := j.metrics.RecordCounter(ctx, metricRunsTotal, "Pipeline step executions", "1", 1, map[string]string{
		"step":    step,
		"outcome": outcome,
	})
	if err != nil {
		j.lg.Warn("failed to record step metric", zap.String("step", step), zap.Error(err))
	}
}

func (j *Job) recordRun(ctx context.Context, outcome string, elapsed time.Duration) {
	err := j.metrics.RecordHistogram(ctx, metricRunDuration, "Pipeline run duration", "s", elapsed.Seconds(), map[string]string{
		"outcome": outcome,
	})
	if err != nil {
		j.lg.Warn("failed to record run metric", zap.Error(err))
	}
}
