package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/amishk599/insightd/internal/metrics"
)

// Job is a named unit of periodic work.
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single run. Zero means the run only ends with ctx.
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler owns the main loop: each job gets its own goroutine that runs
// once immediately and then on the job's interval.
type Scheduler struct {
	jobs   []Job
	logger *slog.Logger
}

// NewScheduler creates a scheduler for the given jobs.
func NewScheduler(jobs []Job, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		jobs:   jobs,
		logger: logger,
	}
}

// Run starts one loop per job and blocks until ctx is cancelled and every
// in-flight run has returned. It returns nil on cancellation (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "jobs", len(s.jobs))

	var wg sync.WaitGroup
	for _, j := range s.jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runLoop(ctx, j)
		}()
	}
	wg.Wait()

	s.logger.Info("shutting down scheduler")
	return nil
}

// runLoop runs a single job immediately and then every interval. A run that
// overlaps the next tick delays that tick; runs of one job never overlap.
func (s *Scheduler) runLoop(ctx context.Context, j Job) {
	s.logger.Info("scheduling job", "job", j.Name, "interval", j.Interval.String())

	s.runOnce(ctx, j)
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(j.Interval):
			s.runOnce(ctx, j)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, j Job) {
	if ctx.Err() != nil {
		return
	}

	runCtx := ctx
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := j.Run(runCtx)
	metrics.JobRuns.WithLabelValues(j.Name, metrics.Outcome(err)).Inc()
	if err != nil {
		s.logger.Error("job failed",
			"job", j.Name,
			"duration", time.Since(start).String(),
			"error", err,
		)
		return
	}
	s.logger.Info("job finished", "job", j.Name, "duration", time.Since(start).String())
}
