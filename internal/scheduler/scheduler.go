// Package scheduler runs the ingestion jobs on their cron lines.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"schoolbeat/internal/logger"
)

type Scheduler struct {
	cron *cron.Cron
}

// New builds a scheduler in the given location so cron lines read as local
// school time.
func New(loc *time.Location) *Scheduler {
	return &Scheduler{cron: cron.New(cron.WithLocation(loc))}
}

// Add registers a job under a cron spec. The job gets a fresh context per
// invocation; panics are contained so one bad run cannot take the scheduler
// down.
func (s *Scheduler) Add(spec, name string, job func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("scheduled job panicked", "job", name, "panic", r)
			}
		}()
		if err := job(context.Background()); err != nil {
			logger.Error("scheduled job failed", "job", name, "err", err)
		}
	})
	if err == nil {
		logger.Info("scheduled job", "job", name, "cron", spec)
	}
	return err
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
