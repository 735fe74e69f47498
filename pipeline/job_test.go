package pipeline

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/infigaming-com/bpi-log-job/errors"
	"github.com/infigaming-com/bpi-log-job/snapshot"
	"github.com/infigaming-com/bpi-log-job/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recorder struct {
	calls   []string
	objects []string
	runIds  []string
}

type fakeFetcher struct {
	rec *recorder
	err error
}

func (f *fakeFetcher) FetchCurrentPrice(ctx context.Context) (map[string]any, error) {
	f.rec.calls = append(f.rec.calls, "fetch")
	if runId, err := util.RunIdFromCtx(ctx); err == nil {
		f.rec.runIds = append(f.rec.runIds, runId)
	}
	if f.err != nil {
		return nil, f.err
	}
	return map[string]any{"chartName": "Bitcoin"}, nil
}

type fakeTransformer struct {
	rec *recorder
	err error
}

func (f *fakeTransformer) Transform(ctx context.Context, payload map[string]any) (*snapshot.RateSnapshot, error) {
	f.rec.calls = append(f.rec.calls, "transform")
	if f.err != nil {
		return nil, f.err
	}
	return &snapshot.RateSnapshot{ChartName: "Bitcoin"}, nil
}

type fakeStager struct {
	rec *recorder
	err error
}

func (f *fakeStager) Stage(ctx context.Context, snap *snapshot.RateSnapshot, objectName string) error {
	f.rec.calls = append(f.rec.calls, "stage")
	if f.err != nil {
		return f.err
	}
	f.rec.objects = append(f.rec.objects, objectName)
	return nil
}

type fakeLoader struct {
	rec *recorder
	err error
}

func (f *fakeLoader) Load(ctx context.Context, objectName string) error {
	f.rec.calls = append(f.rec.calls, "load:"+objectName)
	return f.err
}

type fakeMetrics struct {
	counters   []map[string]string
	histograms []map[string]string
}

func (m *fakeMetrics) RecordCounter(ctx context.Context, name, description, unit string, value int64, attributes map[string]string) error {
	m.counters = append(m.counters, attributes)
	return nil
}

func (m *fakeMetrics) RecordHistogram(ctx context.Context, name, description, unit string, value float64, attributes map[string]string) error {
	m.histograms = append(m.histograms, attributes)
	return nil
}

type jobFixture struct {
	rec         *recorder
	fetcher     *fakeFetcher
	transformer *fakeTransformer
	stager      *fakeStager
	loader      *fakeLoader
	metrics     *fakeMetrics
}

func newJobFixture() *jobFixture {
	rec := &recorder{}
	return &jobFixture{
		rec:         rec,
		fetcher:     &fakeFetcher{rec: rec},
		transformer: &fakeTransformer{rec: rec},
		stager:      &fakeStager{rec: rec},
		loader:      &fakeLoader{rec: rec},
		metrics:     &fakeMetrics{},
	}
}

func (f *jobFixture) job(opts ...JobOption) *Job {
	clock := func() time.Time { return time.Date(2022, 11, 30, 17, 30, 0, 0, time.UTC) }
	opts = append([]JobOption{WithClock(clock), WithMetricsRecorder(f.metrics)}, opts...)
	return NewJob(zap.NewNop(), JobConfig{
		ObjectPrefix: "log_api_",
		Location:     util.MustLoadLocation("Asia/Jakarta"),
	}, f.fetcher, f.transformer, f.stager, f.loader, opts...)
}

func TestJob_Run(t *testing.T) {
	f := newJobFixture()

	err := f.job().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"fetch", "transform", "stage", "load:log_api_20221201.csv"}, f.rec.calls)
	assert.Equal(t, []string{"log_api_20221201.csv"}, f.rec.objects)
	require.Len(t, f.rec.runIds, 1)
	assert.NotEmpty(t, f.rec.runIds[0])

	require.Len(t, f.metrics.counters, 4)
	assert.Equal(t, map[string]string{"step": StepStartRun, "outcome": OutcomeSuccess}, f.metrics.counters[0])
	assert.Equal(t, map[string]string{"step": StepLoadAPIGCS, "outcome": OutcomeSuccess}, f.metrics.counters[1])
	assert.Equal(t, map[string]string{"step": StepLoadDatasetAPI, "outcome": OutcomeSuccess}, f.metrics.counters[2])
	assert.Equal(t, map[string]string{"step": StepEndRun, "outcome": OutcomeSuccess}, f.metrics.counters[3])
	assert.Equal(t, []map[string]string{{"outcome": OutcomeSuccess}}, f.metrics.histograms)
}

func TestJob_RunIdsAreUnique(t *testing.T) {
	f := newJobFixture()
	job := f.job()

	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()))
	require.Len(t, f.rec.runIds, 2)
	assert.NotEqual(t, f.rec.runIds[0], f.rec.runIds[1])
}

func TestJob_FetchFailureStopsRun(t *testing.T) {
	f := newJobFixture()
	f.fetcher.err = errors.NewError(errors.ErrCodeUpstreamStatus, "unexpected status 503", nil)

	err := f.job().Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step load_api_gcs")
	assert.True(t, errors.IsFetchError(err))

	assert.Equal(t, []string{"fetch"}, f.rec.calls)
	assert.Empty(t, f.rec.objects)
	assert.Equal(t, map[string]string{"step": StepLoadAPIGCS, "outcome": OutcomeFailure}, f.metrics.counters[len(f.metrics.counters)-1])
	assert.Equal(t, []map[string]string{{"outcome": OutcomeFailure}}, f.metrics.histograms)
}

func TestJob_FailureLogsErrorDetails(t *testing.T) {
	f := newJobFixture()
	f.fetcher.err = errors.NewError(errors.ErrCodeUpstreamStatus, "unexpected status 503", nil).
		WithDetails("service unavailable")

	core, logs := observer.New(zap.ErrorLevel)
	job := NewJob(zap.New(core), JobConfig{
		ObjectPrefix: "log_api_",
		Location:     util.MustLoadLocation("Asia/Jakarta"),
	}, f.fetcher, f.transformer, f.stager, f.loader, WithMetricsRecorder(f.metrics))

	require.Error(t, job.Run(context.Background()))

	entries := logs.FilterMessage("step failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, StepLoadAPIGCS, fields["step"])
	assert.Equal(t, "service unavailable", fields["details"])
}

func TestJob_TransformFailureStopsRun(t *testing.T) {
	f := newJobFixture()
	f.transformer.err = errors.NewErrorf(errors.ErrCodeMissingField, nil, "missing column %s", snapshot.ColUSDRate)

	err := f.job().Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsTransformError(err))
	assert.Equal(t, []string{"fetch", "transform"}, f.rec.calls)
}

func TestJob_StageFailureSkipsLoad(t *testing.T) {
	f := newJobFixture()
	f.stager.err = errors.NewError(errors.ErrCodeBucketNotFound, "bucket not found", nil)

	err := f.job().Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsStorageError(err))
	assert.Equal(t, []string{"fetch", "transform", "stage"}, f.rec.calls)
}

func TestJob_LoadFailureKeepsStagedObject(t *testing.T) {
	f := newJobFixture()
	cause := stderrors.New("table not found")
	f.loader.err = errors.NewError(errors.ErrCodeLoadJob, "load job failed", cause)

	err := f.job().Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step load_dataset_api")
	assert.True(t, errors.IsLoadError(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, []string{"log_api_20221201.csv"}, f.rec.objects)
}

func TestJob_LoadDisabled(t *testing.T) {
	f := newJobFixture()

	err := f.job(WithLoadDisabled()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"fetch", "transform", "stage"}, f.rec.calls)
	assert.Len(t, f.metrics.counters, 3)
}
