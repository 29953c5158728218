// Package schedule runs harvest batches on a cron expression.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"reelharvest/internal/logging"
)

// Job is one scheduled batch.
type Job func(ctx context.Context) error

// Scheduler fires a job on a standard five-field cron expression. A firing
// that arrives while the previous job is still running is skipped.
type Scheduler struct {
	expr     string
	location *time.Location
	schedule cron.Schedule
	logger   *slog.Logger
}

// New validates expr and timezone. An empty timezone means local time.
func New(expr, timezone string, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	loc := time.Local
	if tz := strings.TrimSpace(timezone); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %s: %w", tz, err)
		}
		loc = parsed
	}
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return &Scheduler{
		expr:     expr,
		location: loc,
		schedule: sched,
		logger:   logging.NewComponentLogger(logger, "schedule"),
	}, nil
}

// Next returns the first firing after now.
func (s *Scheduler) Next(now time.Time) time.Time {
	return s.schedule.Next(now.In(s.location))
}

// Run blocks until ctx is done, invoking job on every firing. Job errors are
// logged and do not stop the schedule.
func (s *Scheduler) Run(ctx context.Context, job Job) error {
	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{s.logger})),
	)
	if _, err := c.AddFunc(s.expr, func() {
		started := time.Now()
		s.logger.Info("scheduled run starting", logging.String(logging.FieldEventType, "schedule_fire"))
		if err := job(ctx); err != nil {
			logging.WarnWithContext(s.logger, "scheduled run failed", "schedule_run_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "next firing proceeds as scheduled"),
			)
			return
		}
		s.logger.Info("scheduled run finished",
			logging.String(logging.FieldEventType, "schedule_complete"),
			logging.Duration("duration", time.Since(started)),
		)
	}); err != nil {
		return fmt.Errorf("schedule job: %w", err)
	}

	s.logger.Info("scheduler started",
		logging.String(logging.FieldEventType, "schedule_start"),
		logging.String("cron", s.expr),
		logging.String("timezone", s.location.String()),
		logging.String("next_run", s.Next(time.Now()).Format(time.RFC3339)),
	)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped", logging.String(logging.FieldEventType, "schedule_stop"))
	return nil
}

// cronLogger routes cron's own messages into slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Warn(msg, append(keysAndValues, "error", err)...)
}
