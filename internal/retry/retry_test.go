package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/amishk599/insightd/internal/ai"
	"github.com/amishk599/insightd/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPolicy(maxRetries int, base time.Duration) Policy {
	return Policy{MaxRetries: maxRetries, BaseDelay: base, Logger: discardLogger()}
}

// mockSearcher calls a function on each invocation, tracking call count.
type mockSearcher struct {
	calls int
	fn    func(attempt int) ([]model.FetchResult, error)
}

func (m *mockSearcher) Crawl(_ context.Context, _ string, _ url.Values) ([]model.FetchResult, error) {
	m.calls++
	return m.fn(m.calls)
}

type mockProvider struct {
	calls int
	fn    func(attempt int) (string, error)
}

func (m *mockProvider) Complete(_ context.Context, _ ai.CompletionRequest) (string, error) {
	m.calls++
	return m.fn(m.calls)
}

func searchErr(status int) error {
	return &model.SearchError{Term: "kw", Err: &model.HTTPError{StatusCode: status, Err: errors.New("upstream")}}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	results := []model.FetchResult{{Link: "https://example.com"}}
	mock := &mockSearcher{fn: func(_ int) ([]model.FetchResult, error) {
		return results, nil
	}}

	rs := NewRetrySearcher(mock, testPolicy(2, 10*time.Millisecond))
	got, err := rs.Crawl(context.Background(), "kw", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected results: %v", got)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_RetriesOn5xx_SucceedsOnSecondAttempt(t *testing.T) {
	mock := &mockSearcher{fn: func(attempt int) ([]model.FetchResult, error) {
		if attempt == 1 {
			return nil, searchErr(503)
		}
		return []model.FetchResult{{Link: "https://example.com"}}, nil
	}}

	rs := NewRetrySearcher(mock, testPolicy(2, 10*time.Millisecond))
	if _, err := rs.Crawl(context.Background(), "kw", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryOn4xx(t *testing.T) {
	mock := &mockSearcher{fn: func(_ int) ([]model.FetchResult, error) {
		return nil, searchErr(403)
	}}

	rs := NewRetrySearcher(mock, testPolicy(2, 10*time.Millisecond))
	_, err := rs.Crawl(context.Background(), "kw", nil)
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 403 {
		t.Fatalf("expected HTTPError with status 403, got %v", err)
	}
	var se *model.SearchError
	if !errors.As(err, &se) {
		t.Error("expected SearchError to survive the retry wrapper")
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", mock.calls)
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	mock := &mockProvider{fn: func(_ int) (string, error) {
		return "", &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	rp := NewRetryProvider(mock, testPolicy(2, 10*time.Millisecond))
	_, err := rp.Complete(context.Background(), ai.CompletionRequest{})
	if err == nil {
		t.Fatal("expected error after max retries, got nil")
	}
	// 1 initial + 2 retries = 3
	if mock.calls != 3 {
		t.Fatalf("expected 3 calls (1 + 2 retries), got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryNoOutput(t *testing.T) {
	mock := &mockProvider{fn: func(_ int) (string, error) {
		return "", fmt.Errorf("llm returned no choices: %w", model.ErrNoOutput)
	}}

	rp := NewRetryProvider(mock, testPolicy(2, 10*time.Millisecond))
	if _, err := rp.Complete(context.Background(), ai.CompletionRequest{}); !errors.Is(err, model.ErrNoOutput) {
		t.Fatalf("expected ErrNoOutput, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryMalformedResponse(t *testing.T) {
	mock := &mockSearcher{fn: func(_ int) ([]model.FetchResult, error) {
		return nil, &model.SearchError{Term: "kw", Err: fmt.Errorf("decode response: %w: unexpected EOF", model.ErrMalformedResponse)}
	}}

	rs := NewRetrySearcher(mock, testPolicy(2, 10*time.Millisecond))
	if _, err := rs.Crawl(context.Background(), "kw", nil); !errors.Is(err, model.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	mock := &mockProvider{fn: func(_ int) (string, error) {
		return "", &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	ctx, cancel := context.WithCancel(context.Background())
	// Cancel immediately so the backoff sleep is interrupted.
	cancel()

	rp := NewRetryProvider(mock, testPolicy(2, time.Second))
	_, err := rp.Complete(ctx, ai.CompletionRequest{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	// Should have made initial call, then been cancelled during backoff.
	if mock.calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", mock.calls)
	}
}

func TestBackoffDelay_PrefersRetryAfter(t *testing.T) {
	p := testPolicy(3, time.Second)
	err := &model.HTTPError{StatusCode: 429, RetryAfter: 42 * time.Second}
	if got := p.backoffDelay(1, err); got != 42*time.Second {
		t.Errorf("backoffDelay = %v, want 42s", got)
	}
}

func TestBackoffDelay_ExponentialWithJitter(t *testing.T) {
	p := testPolicy(3, 100*time.Millisecond)
	got := p.backoffDelay(3, errors.New("network"))
	// 100ms * 2^2 = 400ms ± 30%
	if got < 280*time.Millisecond || got > 520*time.Millisecond {
		t.Errorf("backoffDelay(3) = %v, want within 280ms..520ms", got)
	}
}
