package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// --- Helpers ---

type counter struct {
	calls atomic.Int32
}

func (c *counter) job(name string, interval time.Duration, err error) Job {
	return Job{
		Name:     name,
		Interval: interval,
		Run: func(_ context.Context) error {
			c.calls.Add(1)
			return err
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runFor(t *testing.T, s *Scheduler, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(d)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error on cancel, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not return within 2s after cancel")
	}
}

// --- Tests ---

func TestRun_CancelReturnsPromptly(t *testing.T) {
	c := &counter{}
	s := NewScheduler([]Job{c.job("collect", time.Hour, nil)}, discardLogger())
	runFor(t, s, 100*time.Millisecond)

	if got := c.calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1 immediate run", got)
	}
}

func TestRun_RepeatsOnInterval(t *testing.T) {
	c := &counter{}
	s := NewScheduler([]Job{c.job("collect", 50*time.Millisecond, nil)}, discardLogger())

	// Allow time for at least two full passes (run, sleep interval, run).
	runFor(t, s, 180*time.Millisecond)

	if got := c.calls.Load(); got < 2 {
		t.Errorf("calls = %d, want >= 2", got)
	}
}

func TestRun_FailingJobKeepsSchedule(t *testing.T) {
	c := &counter{}
	s := NewScheduler([]Job{c.job("collect", 50*time.Millisecond, errors.New("search down"))}, discardLogger())
	runFor(t, s, 180*time.Millisecond)

	if got := c.calls.Load(); got < 2 {
		t.Errorf("calls = %d, want >= 2 (errors must not stop the loop)", got)
	}
}

func TestRun_JobsRunIndependently(t *testing.T) {
	slow := make(chan struct{})
	var fastCalls atomic.Int32
	jobs := []Job{
		{
			Name:     "structure",
			Interval: time.Hour,
			Run: func(ctx context.Context) error {
				select {
				case <-slow:
				case <-ctx.Done():
				}
				return ctx.Err()
			},
		},
		{
			Name:     "collect",
			Interval: time.Hour,
			Run: func(_ context.Context) error {
				fastCalls.Add(1)
				return nil
			},
		},
	}
	s := NewScheduler(jobs, discardLogger())
	runFor(t, s, 100*time.Millisecond)
	close(slow)

	if got := fastCalls.Load(); got != 1 {
		t.Errorf("collect calls = %d, want 1 while structure is blocked", got)
	}
}

func TestRun_TimeoutBoundsSingleRun(t *testing.T) {
	var sawDeadline atomic.Bool
	job := Job{
		Name:     "collect",
		Interval: time.Hour,
		Timeout:  20 * time.Millisecond,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			sawDeadline.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
			return ctx.Err()
		},
	}
	s := NewScheduler([]Job{job}, discardLogger())
	runFor(t, s, 100*time.Millisecond)

	if !sawDeadline.Load() {
		t.Error("expected the run to end with DeadlineExceeded")
	}
}

func TestRun_NoJobs(t *testing.T) {
	s := NewScheduler(nil, discardLogger())
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run with no jobs = %v", err)
	}
}
