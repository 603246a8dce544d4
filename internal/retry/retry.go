package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"time"

	"github.com/amishk599/insightd/internal/ai"
	"github.com/amishk599/insightd/internal/model"
)

// Policy retries transient failures with exponential backoff and jitter.
type Policy struct {
	MaxRetries int           // additional attempts after the first failure
	BaseDelay  time.Duration // delay before the first retry, doubled on each subsequent retry
	Logger     *slog.Logger
}

// Do calls fn until it succeeds, returns a non-retryable error, or the retry
// budget is spent.
func Do[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err == nil || !isRetryable(err) {
		return v, err
	}

	lastErr := err
	for attempt := 1; attempt <= p.MaxRetries; attempt++ {
		delay := p.backoffDelay(attempt, lastErr)

		p.Logger.Warn("retrying after transient error",
			"op", op,
			"attempt", attempt,
			"max_retries", p.MaxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			var zero T
			return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		v, err = fn(ctx)
		if err == nil || !isRetryable(err) {
			return v, err
		}
		lastErr = err
	}

	var zero T
	return zero, lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// If the error includes a Retry-After duration (HTTP 429), that takes precedence.
func (p Policy) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	// Exponential: baseDelay * 2^(attempt-1)
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	// Apply ±30% jitter
	jitter := float64(delay) * 0.3
	delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)

	return delay
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation: never retry.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// The server answered; asking again will not help.
	if errors.Is(err, model.ErrNoOutput) || errors.Is(err, model.ErrMalformedResponse) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		// 429 Too Many Requests and 5xx are retryable; other 4xx are not.
		return httpErr.StatusCode == 429 || httpErr.StatusCode >= 500
	}

	// Non-HTTP errors (network, DNS) are retryable.
	return true
}

// RetryProvider is a decorator that retries completion calls.
type RetryProvider struct {
	inner  ai.LLMProvider
	policy Policy
}

func NewRetryProvider(inner ai.LLMProvider, policy Policy) *RetryProvider {
	return &RetryProvider{inner: inner, policy: policy}
}

func (r *RetryProvider) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	return Do(ctx, r.policy, "llm complete", func(ctx context.Context) (string, error) {
		return r.inner.Complete(ctx, req)
	})
}

// RetrySearcher is a decorator that retries failed search calls. Page fetch
// failures are per-result and never trigger a retry.
type RetrySearcher struct {
	inner  model.Searcher
	policy Policy
}

func NewRetrySearcher(inner model.Searcher, policy Policy) *RetrySearcher {
	return &RetrySearcher{inner: inner, policy: policy}
}

func (r *RetrySearcher) Crawl(ctx context.Context, term string, params url.Values) ([]model.FetchResult, error) {
	return Do(ctx, r.policy, "search", func(ctx context.Context) ([]model.FetchResult, error) {
		return r.inner.Crawl(ctx, term, params)
	})
}
