package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/insightd/internal/metrics"
	"github.com/amishk599/insightd/internal/model"
)

// Config controls page fetching.
type Config struct {
	Timeout     time.Duration // per-request ceiling
	Concurrency int           // max in-flight requests in FetchAll
	UserAgent   string
	MaxBytes    int64 // bodies are cut at this size
}

// Result is the outcome of fetching one URL. Err is a *model.FetchError when
// the fetch failed; Body is then empty.
type Result struct {
	URL  string
	Body string
	Err  error
}

// Fetcher downloads pages. It never retries.
type Fetcher struct {
	cfg    Config
	client *http.Client
}

// New creates a Fetcher. A zero Concurrency means 5.
func New(cfg Config, client *http.Client) *Fetcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{cfg: cfg, client: client}
}

// Fetch GETs url and returns its body as text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (body string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveFetch(start, err) }()

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &model.FetchError{URL: url, Err: err}
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &model.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &model.FetchError{URL: url, Err: &model.HTTPError{StatusCode: resp.StatusCode}}
	}

	var r io.Reader = resp.Body
	if f.cfg.MaxBytes > 0 {
		r = io.LimitReader(resp.Body, f.cfg.MaxBytes)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", &model.FetchError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	return string(b), nil
}

// FetchAll fetches every URL concurrently and returns exactly one Result per
// input, in input order. One URL's failure or timeout never affects the others.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))

	// Workers never return an error, so the group's context is never cancelled
	// by a sibling.
	var g errgroup.Group
	g.SetLimit(f.cfg.Concurrency)
	for i, u := range urls {
		g.Go(func() error {
			body, err := f.Fetch(ctx, u)
			results[i] = Result{URL: u, Body: body, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
