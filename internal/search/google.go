package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/amishk599/insightd/internal/fetch"
	"github.com/amishk599/insightd/internal/metrics"
	"github.com/amishk599/insightd/internal/model"
)

// maxResults is the largest page the Custom Search API returns per call.
const maxResults = 10

// Config holds Google Custom Search credentials.
type Config struct {
	BaseURL  string // https://www.googleapis.com/customsearch/v1
	APIKey   string
	EngineID string // cx
}

// Hit is one ranked search result.
type Hit struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// PageFetcher fetches a batch of URLs, one result per input in input order.
type PageFetcher interface {
	FetchAll(ctx context.Context, urls []string) []fetch.Result
}

// LinkFilter narrows ranked links before they are fetched.
type LinkFilter interface {
	Apply(links []string) []string
}

// GoogleClient queries the Custom Search JSON API and fetches the hit pages.
type GoogleClient struct {
	cfg     Config
	client  *http.Client
	fetcher PageFetcher
	filter  LinkFilter
}

// NewGoogleClient creates a client. filter may be nil.
func NewGoogleClient(cfg Config, client *http.Client, fetcher PageFetcher, filter LinkFilter) *GoogleClient {
	return &GoogleClient{cfg: cfg, client: client, fetcher: fetcher, filter: filter}
}

type searchResponse struct {
	Items []Hit `json:"items"`
}

// ResultParams returns the extra query parameters asking for n results,
// clamped to what the API accepts.
func ResultParams(n int) url.Values {
	if n < 1 {
		n = 1
	}
	if n > maxResults {
		n = maxResults
	}
	return url.Values{"num": {strconv.Itoa(n)}}
}

// Search returns ranked hits for term. A response without items is an empty
// result, not a failure.
func (c *GoogleClient) Search(ctx context.Context, term string, params url.Values) (hits []Hit, err error) {
	defer func() { metrics.SearchesTotal.WithLabelValues(metrics.Outcome(err)).Inc() }()

	q := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("key", c.cfg.APIKey)
	q.Set("cx", c.cfg.EngineID)
	q.Set("q", term)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &model.SearchError{Term: term, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &model.SearchError{Term: term, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &model.SearchError{Term: term, Err: &model.HTTPError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("search api: %s", body),
		}}
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, &model.SearchError{Term: term, Err: fmt.Errorf("decode response: %w: %w", model.ErrMalformedResponse, err)}
	}

	hits = make([]Hit, 0, len(sr.Items))
	for _, it := range sr.Items {
		if it.Link != "" {
			hits = append(hits, it)
		}
	}
	return hits, nil
}

// Crawl searches for term and fetches every hit page. Results follow the
// search ranking; failed fetches keep their Err and have empty HTML.
func (c *GoogleClient) Crawl(ctx context.Context, term string, params url.Values) ([]model.FetchResult, error) {
	hits, err := c.Search(ctx, term, params)
	if err != nil {
		return nil, err
	}

	links := make([]string, len(hits))
	for i, h := range hits {
		links[i] = h.Link
	}
	if c.filter != nil {
		links = c.filter.Apply(links)
	}
	if len(links) == 0 {
		return nil, nil
	}

	pages := c.fetcher.FetchAll(ctx, links)
	out := make([]model.FetchResult, len(pages))
	for i, p := range pages {
		out[i] = model.FetchResult{
			SearchWord: term,
			Link:       p.URL,
			HTML:       p.Body,
			Err:        p.Err,
		}
	}
	return out, nil
}
