// Package scheduler runs periodic jobs on cron expressions.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler is a cron job scheduler.
type Scheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger
}

type cronLogger struct {
	logger zerolog.Logger
}

// Info logs routine messages about cron's operation.
func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

// Error logs an error condition.
func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// New returns a scheduler evaluating expressions in loc. A job still running
// when its next tick arrives is skipped.
func New(loc *time.Location, logger zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	scoped := logger.With().Str("component", "scheduler").Logger()
	wrapped := cronLogger{logger: scoped}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(wrapped),
			cron.WithChain(cron.Recover(wrapped), cron.SkipIfStillRunning(wrapped)),
		),
		logger: scoped,
	}
}

// Add registers a named job. Errors returned by fn are logged.
func (s *Scheduler) Add(spec, name string, fn func(ctx context.Context) error) (int, error) {
	id, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		if err := fn(context.Background()); err != nil {
			s.logger.Error().Err(err).Str("job", name).Msg("scheduled job failed")
			return
		}
		s.logger.Info().Str("job", name).Dur("duration", time.Since(start)).Msg("scheduled job finished")
	})
	return int(id), err
}

// Len reports the number of registered jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Shutdown stops scheduling and waits up to 30 seconds for running jobs.
func (s *Scheduler) Shutdown() {
	ctx, cancel := context.WithTimeout(s.cron.Stop(), 30*time.Second)
	defer cancel()
	<-ctx.Done()
}
