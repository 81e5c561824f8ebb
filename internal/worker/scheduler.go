package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultRecurringSpec runs the recurring job daily at 02:00.
const DefaultRecurringSpec = "0 2 * * *"

// RecurringRunner books due recurring expenses for the given instant.
type RecurringRunner interface {
	ProcessDueExpenses(ctx context.Context, now time.Time) (int, error)
}

// Scheduler drives the recurring job from a cron expression.
type Scheduler struct {
	cron   *cron.Cron
	runner RecurringRunner
	spec   string
	now    func() time.Time
}

// NewScheduler parses spec (standard five fields) and registers the job.
func NewScheduler(runner RecurringRunner, spec string, loc *time.Location) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultRecurringSpec
	}
	if loc == nil {
		loc = time.Local
	}
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		runner: runner,
		spec:   spec,
		now:    time.Now,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("parse cron spec %q: %w", spec, err)
	}
	return s, nil
}

// RunOnce processes due recurring expenses now and logs the outcome.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	now := s.now()
	count, err := s.runner.ProcessDueExpenses(ctx, now)
	if err != nil {
		slog.ErrorContext(ctx, "Recurring expense processing failed", "error", err)
		return 0
	}
	slog.InfoContext(ctx, "Recurring expense processing complete", "expenses_created", count)
	return count
}

// Next returns the next scheduled run after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Schedule.Next(t)
}

// Run runs one pass immediately, then follows the schedule until ctx ends.
// Stop waits for a running job to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.RunOnce(ctx)

	s.cron.Start()
	slog.InfoContext(ctx, "Recurring scheduler started", "spec", s.spec, "next_run", s.Next(s.now()))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	slog.InfoContext(ctx, "Recurring scheduler stopped")
	return ctx.Err()
}
