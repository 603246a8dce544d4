package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned by store lookups that match no row.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert loses a unique-key race.
	ErrDuplicate = errors.New("duplicate key")

	// ErrNoOutput is returned when the completion provider answers with nothing usable.
	ErrNoOutput = errors.New("no usable completion output")

	// ErrMalformedResponse is returned when a 200 response body cannot be decoded.
	ErrMalformedResponse = errors.New("malformed response body")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// SearchError means the search call itself failed; the keyword's run aborts.
type SearchError struct {
	Term string
	Err  error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %q: %v", e.Term, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// FetchError is a per-URL page fetch failure. It never aborts a batch.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// TransformError is a failed completion stage; the link being processed is skipped.
type TransformError struct {
	Stage string
	Err   error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform stage %s: %v", e.Stage, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}
