// Package pipeline runs the hourly job: fetch the current price, stage it as
// CSV in blob storage, then append it to the warehouse table.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/infigaming-com/bpi-log-job/errors"
	"github.com/infigaming-com/bpi-log-job/snapshot"
	"github.com/infigaming-com/bpi-log-job/stage"
	"github.com/infigaming-com/bpi-log-job/util"
	"github.com/infigaming-com/bpi-log-job/warehouse"
	"go.uber.org/zap"
)

const (
	StepStartRun       = "start_run"
	StepLoadAPIGCS     = "load_api_gcs"
	StepLoadDatasetAPI = "load_dataset_api"
	StepEndRun         = "end_run"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

type Fetcher interface {
	FetchCurrentPrice(ctx context.Context) (map[string]any, error)
}

type Transformer interface {
	Transform(ctx context.Context, payload map[string]any) (*snapshot.RateSnapshot, error)
}

type Stager interface {
	Stage(ctx context.Context, snap *snapshot.RateSnapshot, objectName string) error
}

type JobConfig struct {
	ObjectPrefix string
	Location     *time.Location
}

type Job struct {
	lg          *zap.Logger
	cfg         JobConfig
	fetcher     Fetcher
	transformer Transformer
	stager      Stager
	loader      warehouse.Loader
	loadEnabled bool
	metrics     MetricsRecorder
	now         func() time.Time
}

type JobOption func(*Job)

// WithLoadDisabled stops the run after staging.
func WithLoadDisabled() JobOption {
	return func(j *Job) {
		j.loadEnabled = false
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) JobOption {
	return func(j *Job) {
		j.metrics = recorder
	}
}

func WithClock(now func() time.Time) JobOption {
	return func(j *Job) {
		j.now = now
	}
}

func NewJob(
	lg *zap.Logger,
	cfg JobConfig,
	fetcher Fetcher,
	transformer Transformer,
	stager Stager,
	loader warehouse.Loader,
	opts ...JobOption,
) *Job {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	j := &Job{
		lg:          lg,
		cfg:         cfg,
		fetcher:     fetcher,
		transformer: transformer,
		stager:      stager,
		loader:      loader,
		loadEnabled: true,
		metrics:     noopMetricsRecorder{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

func (j *Job) steps(lg *zap.Logger, objectName string) []step {
	steps := []step{
		{name: StepStartRun, run: func(ctx context.Context) error {
			lg.Info("run started")
			return nil
		}},
		{name: StepLoadAPIGCS, run: func(ctx context.Context) error {
			return j.stageSnapshot(ctx, objectName)
		}},
	}
	if j.loadEnabled {
		steps = append(steps, step{name: StepLoadDatasetAPI, run: func(ctx context.Context) error {
			return j.loader.Load(ctx, objectName)
		}})
	}
	return append(steps, step{name: StepEndRun, run: func(ctx context.Context) error {
		lg.Info("run finished")
		return nil
	}})
}

func (j *Job) stageSnapshot(ctx context.Context, objectName string) error {
	payload, err := j.fetcher.FetchCurrentPrice(ctx)
	if err != nil {
		return err
	}
	snap, err := j.transformer.Transform(ctx, payload)
	if err != nil {
		return err
	}
	return j.stager.Stage(ctx, snap, objectName)
}

// Run executes the steps in order and stops at the first failure. A failed
// load leaves the staged object in place so it can be reloaded by hand.
func (j *Job) Run(ctx context.Context) error {
	runId := util.NewRunId()
	ctx = util.RunIdToCtx(ctx, runId)

	startedAt := j.now()
	objectName := stage.ObjectName(j.cfg.ObjectPrefix, startedAt, j.cfg.Location)
	lg := j.lg.With(zap.String("runId", runId), zap.String("object", objectName))

	outcome := OutcomeSuccess
	defer func() {
		j.recordRun(ctx, outcome, j.now().Sub(startedAt))
	}()

	for _, s := range j.steps(lg, objectName) {
		stepStartedAt := j.now()
		err := s.run(ctx)
		elapsed := j.now().Sub(stepStartedAt)
		if err != nil {
			outcome = OutcomeFailure
			j.recordStep(ctx, s.name, OutcomeFailure)
			fields := []zap.Field{zap.String("step", s.name), zap.Duration("elapsed", elapsed), zap.Error(err)}
			if details := errors.DetailsOf(err); details != nil {
				fields = append(fields, zap.Any("details", details))
			}
			lg.Error("step failed", fields...)
			return fmt.Errorf("step %s: %w", s.name, err)
		}
		j.recordStep(ctx, s.name, OutcomeSuccess)
		lg.Debug("step done", zap.String("step", s.name), zap.Duration("elapsed", elapsed))
	}
	return nil
}
