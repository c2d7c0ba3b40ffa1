package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedules holds six-field cron specs (seconds first). An empty spec
// disables that job.
type Schedules struct {
	OutboxRelay string
	NoShowSweep string
}

// Scheduler manages cron job scheduling.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

// NewScheduler registers the runner's jobs. Specs are interpreted in loc, so
// a nightly sweep follows the business day. Overlapping runs of the same job
// are skipped rather than queued.
func NewScheduler(runner *JobRunner, schedules Schedules, loc *time.Location, log *slog.Logger) (*Scheduler, error) {
	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithSeconds(),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	for _, job := range []struct {
		name string
		spec string
		run  func()
	}{
		{"RelayOutbox", schedules.OutboxRelay, runner.RelayOutbox},
		{"SweepNoShows", schedules.NoShowSweep, runner.SweepNoShows},
	} {
		if job.spec == "" {
			log.Info("cron job disabled", "job", job.name)
			continue
		}
		if _, err := c.AddFunc(job.spec, job.run); err != nil {
			return nil, fmt.Errorf("jobs.NewScheduler: %s schedule %q: %w", job.name, job.spec, err)
		}
		log.Info("cron job registered", "job", job.name, "schedule", job.spec)
	}

	return &Scheduler{cron: c, log: log}, nil
}

// Start begins the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("cron scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop stops scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("cron scheduler stopped")
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
