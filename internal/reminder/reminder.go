// Package reminder nudges users who recorded nothing today.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/finbot/core/logger"
	"github.com/m3rciful/finbot/internal/ledger"
)

// Text is the reminder message.
const Text = "💡 Напоминаем: вы сегодня ещё не добавили доходы или расходы."

// ErrRunning is returned when a batch is already in progress.
var ErrRunning = errors.New("reminder: batch already running")

// Store finds the users to remind.
type Store interface {
	UsersWithoutTransactionsSince(ctx context.Context, since time.Time) ([]int64, error)
}

// Notifier delivers one reminder.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) error
}

// Result summarises one batch.
type Result struct {
	RunID  string
	Users  int
	Sent   int
	Failed int
}

// Job sends one reminder batch per Run.
type Job struct {
	store    Store
	notifier Notifier
	loc      *time.Location
	now      func() time.Time

	mu sync.Mutex
}

// NewJob builds a job; "today" starts at midnight in loc (nil means local time).
func NewJob(store Store, notifier Notifier, loc *time.Location) *Job {
	if loc == nil {
		loc = time.Local
	}
	return &Job{store: store, notifier: notifier, loc: loc, now: time.Now}
}

// Run reminds every user without a transaction since the start of today.
// A failed query aborts the batch; a failed send is logged and skipped.
func (j *Job) Run(ctx context.Context) (Result, error) {
	if !j.mu.TryLock() {
		return Result{}, ErrRunning
	}
	defer j.mu.Unlock()

	res := Result{RunID: uuid.NewString()}
	ctx = logger.WithRID(ctx, "reminder:"+res.RunID)
	start := time.Now()
	since := ledger.StartOfDay(j.now(), j.loc)

	users, err := j.store.UsersWithoutTransactionsSince(ctx, since)
	if err != nil {
		logger.Error(ctx, "service.reminders", "reminder.batch",
			slog.String("status", "fail"),
			slog.String("run_id", res.RunID),
			slog.String("err", err.Error()),
		)
		return res, fmt.Errorf("reminder: list users: %w", err)
	}
	res.Users = len(users)

	for _, id := range users {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := j.notifier.Notify(ctx, id, Text); err != nil {
			res.Failed++
			logger.Warn(ctx, "service.reminders", "reminder.send.fail",
				slog.String("run_id", res.RunID),
				slog.Int64("user_id", id),
				slog.String("err", err.Error()),
			)
			continue
		}
		res.Sent++
	}

	logger.Info(ctx, "service.reminders", "reminder.batch",
		slog.String("status", "ok"),
		slog.String("run_id", res.RunID),
		slog.Int("users", res.Users),
		slog.Int("sent", res.Sent),
		slog.Int("failed", res.Failed),
		slog.Duration("duration", logger.Took(start)),
	)
	return res, nil
}
