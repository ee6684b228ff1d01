package watcher

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"tradeLedger/internal/ports"
)

// Job represents a scheduled job.
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler runs jobs on cron schedules. A run that is still going when its
// next tick arrives causes that tick to be skipped, so exports are handled one
// scan at a time.
type Scheduler struct {
	cron   *cron.Cron
	logger ports.Logger
}

// NewScheduler creates a scheduler. Schedules accept an optional seconds field
// and descriptors such as "@every 10s".
func NewScheduler(logger ports.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(cron.NewParser(
				cron.SecondOptional|cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor,
			)),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	s.logger.Info(ctx, "Scheduler started")
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	<-done.Done()
	s.logger.Info(ctx, "Scheduler stopped")
}

// AddJob registers job with a cron schedule. Examples:
//   - "@every 10s"       - Every 10 seconds
//   - "0 */5 * * * *"    - Every 5 minutes
//   - "@hourly"          - Every hour
func (s *Scheduler) AddJob(ctx context.Context, schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.logger.Debug(ctx, "Running job", map[string]interface{}{"job": job.Name()})

		if err := job.Run(ctx); err != nil {
			s.logger.Error(ctx, err, "Job failed", map[string]interface{}{"job": job.Name()})
		} else {
			s.logger.Debug(ctx, "Job completed", map[string]interface{}{"job": job.Name()})
		}
	})
	if err != nil {
		return fmt.Errorf("%w: schedule %q: %v", ports.ErrConfigurationError, schedule, err)
	}

	s.logger.Info(ctx, "Job registered", map[string]interface{}{
		"schedule": schedule,
		"job":      job.Name(),
	})
	return nil
}

// RunNow executes a job immediately (outside schedule).
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	s.logger.Info(ctx, "Running job immediately", map[string]interface{}{"job": job.Name()})
	return job.Run(ctx)
}

// cronLogger adapts ports.Logger to cron.Logger.
type cronLogger struct {
	logger ports.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(context.Background(), "cron: "+msg, kvFields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(context.Background(), err, "cron: "+msg, kvFields(keysAndValues))
}

func kvFields(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
