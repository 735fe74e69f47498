package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler triggers a Runner at the top of every hour in its zone. Runs never
// overlap, slots missed while a run was in flight are skipped, and a slot
// never runs twice even if the wall clock steps back.
type Scheduler struct {
	lg     *zap.Logger
	runner Runner
	loc    *time.Location
	now    func() time.Time
	after  func(time.Duration) <-chan time.Time
}

type SchedulerOption func(*Scheduler)

func WithSchedulerClock(now func() time.Time, after func(time.Duration) <-chan time.Time) SchedulerOption {
	return func(s *Scheduler) {
		s.now = now
		s.after = after
	}
}

func NewScheduler(lg *zap.Logger, runner Runner, loc *time.Location, opts ...SchedulerOption) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		lg:     lg,
		runner: runner,
		loc:    loc,
		now:    time.Now,
		after:  time.After,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextRun returns the first top of the hour in loc strictly after now.
func NextRun(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	top := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, loc)
	return top.Add(time.Hour)
}

// Start blocks until ctx is cancelled. A failed run is logged and the next
// slot proceeds as usual.
func (s *Scheduler) Start(ctx context.Context) error {
	var last time.Time
	for {
		if ctx.Err() != nil {
			return nil
		}

		next := NextRun(s.now(), s.loc)
		if !last.IsZero() && !next.After(last) {
			s.lg.Warn("clock moved back, skipping slot already run", zap.Time("slot", next), zap.Time("lastSlot", last))
			next = last.Add(time.Hour)
		}
		s.lg.Info("next run scheduled", zap.Time("at", next))

		select {
		case <-ctx.Done():
			return nil
		case <-s.after(next.Sub(s.now())):
		}
		last = next

		if err := s.runner.Run(ctx); err != nil {
			s.lg.Error("scheduled run failed", zap.Time("slot", next), zap.Error(err))
		}
	}
}
