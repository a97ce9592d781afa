// Package sched runs independent periodic jobs with per-job fault
// isolation.
package sched

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job is a periodic unit of work. A failing or panicking action is
// logged and treated as a no-op for that tick; the schedule continues.
type Job struct {
	Name     string
	Interval time.Duration
	Action   func(ctx context.Context) error
}

// Scheduler runs each added job on its own interval until the context
// ends. Jobs know nothing of each other; a job never overlaps itself,
// and a slow tick simply delays that job's next tick.
type Scheduler struct {
	jobs   []Job
	logger *slog.Logger
}

// New creates an empty scheduler.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// Add registers a job. Call before Run.
func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// Run starts all jobs and blocks until ctx is cancelled and every
// in-flight tick has finished.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range s.jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			s.runJob(ctx, job)
		}(job)
	}
	wg.Wait()
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, job)
		}
	}
}

// tick runs one job action, containing errors and panics so nothing
// crosses the job boundary.
func (s *Scheduler) tick(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked", "job", job.Name, "panic", fmt.Sprint(r))
		}
	}()

	if err := job.Action(ctx); err != nil {
		s.logger.Error("job failed", "job", job.Name, "err", err)
	}
}
