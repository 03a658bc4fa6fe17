package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/m3rciful/finbot/core/logger"
)

// DefaultSchedule fires daily at 20:00.
const DefaultSchedule = "0 20 * * *"

// Scheduler runs a Job on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
	spec string
}

// NewScheduler parses spec (standard five-field cron) in loc and binds job to it.
func NewScheduler(job *Job, spec string, loc *time.Location) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	if loc == nil {
		loc = time.Local
	}
	lg := cronLogger{}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(lg),
		cron.WithChain(cron.Recover(lg), cron.SkipIfStillRunning(lg)),
	)
	if _, err := c.AddFunc(spec, func() {
		_, _ = job.Run(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("reminder: invalid schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c, spec: spec}, nil
}

// Start begins firing in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	var next time.Time
	if entries := s.cron.Entries(); len(entries) > 0 {
		next = entries[0].Next
	}
	logger.SVCReminders.Info("reminder scheduled",
		slog.String("event", "reminder.schedule"),
		slog.String("schedule", s.spec),
		slog.Time("next", next),
	)
}

// Stop prevents new runs and waits for a running one or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger forwards cron's own diagnostics to the reminders logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	logger.SVCReminders.Debug(msg, append([]any{"event", "cron." + msg}, keysAndValues...)...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logger.SVCReminders.Error(msg, append([]any{"event", "cron.error", "err", err.Error()}, keysAndValues...)...)
}
