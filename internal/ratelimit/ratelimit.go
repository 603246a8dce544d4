package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/amishk599/insightd/internal/model"
)

// KeyedLimiter enforces a minimum delay between requests sharing the same key
// (for example one search API quota).
type KeyedLimiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time
	minDelay time.Duration
}

// NewKeyedLimiter creates a limiter that enforces minDelay between consecutive
// requests with the same key.
func NewKeyedLimiter(minDelay time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until enough time has passed since the last request for key.
// Returns an error if the context is cancelled while waiting.
func (r *KeyedLimiter) Wait(ctx context.Context, key string) error {
	r.mu.Lock()
	last, ok := r.lastCall[key]
	now := time.Now()

	if !ok || now.Sub(last) >= r.minDelay {
		r.lastCall[key] = now
		r.mu.Unlock()
		return nil
	}

	// Reserve the next slot before unlocking so concurrent callers queue
	// behind each other instead of all waking at once.
	next := last.Add(r.minDelay)
	r.lastCall[key] = next
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", key, ctx.Err())
	case <-time.After(time.Until(next)):
	}
	return nil
}

// RateLimitedSearcher is a decorator that waits on the limiter before
// delegating to the wrapped Searcher.
type RateLimitedSearcher struct {
	inner   model.Searcher
	limiter *KeyedLimiter
	key     string
}

// NewRateLimitedSearcher wraps a Searcher. All searchers hitting the same quota
// should share the same limiter and key.
func NewRateLimitedSearcher(inner model.Searcher, limiter *KeyedLimiter, key string) *RateLimitedSearcher {
	return &RateLimitedSearcher{
		inner:   inner,
		limiter: limiter,
		key:     key,
	}
}

// Crawl waits for the limiter, then delegates to the wrapped searcher.
func (s *RateLimitedSearcher) Crawl(ctx context.Context, term string, params url.Values) ([]model.FetchResult, error) {
	if err := s.limiter.Wait(ctx, s.key); err != nil {
		return nil, &model.SearchError{Term: term, Err: err}
	}
	return s.inner.Crawl(ctx, term, params)
}
