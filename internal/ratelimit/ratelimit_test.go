package ratelimit

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/amishk599/insightd/internal/model"
)

func TestWait_SameKey_EnforcesMinDelay(t *testing.T) {
	limiter := NewKeyedLimiter(100 * time.Millisecond)
	ctx := context.Background()

	// First call should return immediately.
	if err := limiter.Wait(ctx, "google"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "google"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Should have waited at least ~100ms (allow 80ms for timer jitter).
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_DifferentKeys_NoCrossBlocking(t *testing.T) {
	limiter := NewKeyedLimiter(200 * time.Millisecond)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "google"); err != nil {
		t.Fatalf("google wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "bing"); err != nil {
		t.Fatalf("bing wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected bing wait to be near-instant, got %v", elapsed)
	}
}

func TestWait_ConcurrentCallersQueue(t *testing.T) {
	limiter := NewKeyedLimiter(60 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		go func() {
			if err := limiter.Wait(ctx, "google"); err != nil {
				t.Errorf("wait: %v", err)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 3; i++ {
		<-done
	}

	// Three callers need two full gaps between them.
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("expected >= 100ms for three queued callers, got %v", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewKeyedLimiter(5 * time.Second) // long delay

	// First call to seed the last-call time.
	if err := limiter.Wait(context.Background(), "google"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := limiter.Wait(ctx, "google")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type recordingSearcher struct {
	called bool
}

func (s *recordingSearcher) Crawl(_ context.Context, _ string, _ url.Values) ([]model.FetchResult, error) {
	s.called = true
	return nil, nil
}

func TestRateLimitedSearcher_WaitsBeforeDelegating(t *testing.T) {
	limiter := NewKeyedLimiter(100 * time.Millisecond)
	inner := &recordingSearcher{}
	searcher := NewRateLimitedSearcher(inner, limiter, "google")
	ctx := context.Background()

	if _, err := searcher.Crawl(ctx, "E-7 visa", nil); err != nil {
		t.Fatalf("first crawl: %v", err)
	}
	if !inner.called {
		t.Fatal("inner searcher was not called on first crawl")
	}

	inner.called = false

	start := time.Now()
	if _, err := searcher.Crawl(ctx, "E-7 visa", nil); err != nil {
		t.Fatalf("second crawl: %v", err)
	}
	elapsed := time.Since(start)

	if !inner.called {
		t.Fatal("inner searcher was not called on second crawl")
	}
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait on second crawl, got %v", elapsed)
	}
}

func TestRateLimitedSearcher_CancelledWaitIsSearchError(t *testing.T) {
	limiter := NewKeyedLimiter(5 * time.Second)
	inner := &recordingSearcher{}
	searcher := NewRateLimitedSearcher(inner, limiter, "google")

	if _, err := searcher.Crawl(context.Background(), "a", nil); err != nil {
		t.Fatal(err)
	}
	inner.called = false

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := searcher.Crawl(ctx, "b", nil)

	var se *model.SearchError
	if !errors.As(err, &se) {
		t.Fatalf("expected *model.SearchError, got %v", err)
	}
	if inner.called {
		t.Error("inner searcher should not run when the wait is cancelled")
	}
}
