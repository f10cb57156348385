package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/studio-booking/internal/logging"
)

// SessionPruner removes sessions whose expiry has passed.
type SessionPruner interface {
	PruneExpiredSessions(ctx context.Context) (int, error)
}

// Scheduler runs background maintenance on cron schedules.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Discard()
	}
	cronLog := cronLogger{logger: logger.With("component", "cron")}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		logger:  logger,
		timeout: 30 * time.Second,
	}
}

// SchedulePruning registers session pruning on schedule. Each run derives
// its context from ctx.
func (s *Scheduler) SchedulePruning(ctx context.Context, schedule string, pruner SessionPruner) error {
	if pruner == nil {
		return errors.New("jobs: session pruner is required")
	}
	if _, err := s.cron.AddFunc(schedule, PruneSessions(ctx, pruner, s.timeout, s.logger)); err != nil {
		return fmt.Errorf("jobs: schedule session pruning %q: %w", schedule, err)
	}
	s.logger.Info("session pruning scheduled", "schedule", schedule)
	return nil
}

// Jobs reports how many entries are registered.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PruneSessions returns a job that prunes once per invocation.
func PruneSessions(ctx context.Context, pruner SessionPruner, timeout time.Duration, logger *slog.Logger) func() {
	if logger == nil {
		logger = logging.Discard()
	}
	return func() {
		runCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		started := time.Now()
		removed, err := pruner.PruneExpiredSessions(runCtx)
		if err != nil {
			logger.ErrorContext(runCtx, "session pruning failed", logging.Err(err))
			return
		}
		logger.InfoContext(runCtx, "session pruning finished", "removed", removed, "duration", time.Since(started))
	}
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, logging.Err(err))...)
}
