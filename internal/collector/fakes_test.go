package collector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/amishk599/insightd/internal/model"
)

// --- Mock/Fake Implementations ---

// fakeSearcher returns canned results per term, or an error for terms in fail.
type fakeSearcher struct {
	mu      sync.Mutex
	results map[string][]model.FetchResult
	fail    map[string]error
	params  []url.Values
}

func (s *fakeSearcher) Crawl(_ context.Context, term string, params url.Values) ([]model.FetchResult, error) {
	s.mu.Lock()
	s.params = append(s.params, params)
	s.mu.Unlock()
	if err := s.fail[term]; err != nil {
		return nil, &model.SearchError{Term: term, Err: err}
	}
	return s.results[term], nil
}

func page(term, link, html string) model.FetchResult {
	return model.FetchResult{SearchWord: term, Link: link, HTML: html}
}

// fakeSummarizer echoes "summary:<html>" and fails for inputs in fail.
type fakeSummarizer struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (s *fakeSummarizer) Run(_ context.Context, _ string, text string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, text)
	s.mu.Unlock()
	if s.fail[text] {
		return "", &model.TransformError{Stage: "extract", Err: errors.New("model down")}
	}
	return "summary:" + text, nil
}

func (s *fakeSummarizer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// fakeClassifier always answers cat.
type fakeClassifier struct {
	cat      model.Category
	fallback bool
}

func (c *fakeClassifier) Classify(_ context.Context, _ string) (model.Category, bool) {
	return c.cat, c.fallback
}

// memStore is a map-based InsightStore + KeywordStore + StructuredStore.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	byURL      map[string]*model.Insight
	keywords   []model.SearchKeyword
	keywordErr error
	touchErr   map[string]error
	createErr  error
	visa       map[string]model.VisaInfo
	culture    map[string]model.CultureInfo
	industry   map[string]model.IndustryInfo
}

func newMemStore() *memStore {
	return &memStore{
		byURL:    make(map[string]*model.Insight),
		touchErr: make(map[string]error),
		visa:     make(map[string]model.VisaInfo),
		culture:  make(map[string]model.CultureInfo),
		industry: make(map[string]model.IndustryInfo),
	}
}

func (s *memStore) seed(in model.Insight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	in.ID = s.nextID
	s.byURL[in.SourceURL] = &in
}

func (s *memStore) FindInsight(_ context.Context, sourceURL string) (*model.Insight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.byURL[sourceURL]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *in
	return &cp, nil
}

func (s *memStore) CreateInsight(_ context.Context, in *model.Insight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.byURL[in.SourceURL]; ok {
		return model.ErrDuplicate
	}
	s.nextID++
	in.ID = s.nextID
	cp := *in
	s.byURL[in.SourceURL] = &cp
	return nil
}

func (s *memStore) RefreshInsight(_ context.Context, id int64, content string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, in := range s.byURL {
		if in.ID == id {
			in.Content = content
			in.UpdatedAt = at
			return nil
		}
	}
	return model.ErrNotFound
}

func (s *memStore) ListInsights(_ context.Context, f model.InsightFilter) ([]model.Insight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Insight
	for _, in := range s.byURL {
		if f.Category != "" && in.Category != f.Category {
			continue
		}
		out = append(out, *in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) ActiveKeywords(_ context.Context) ([]model.SearchKeyword, error) {
	if s.keywordErr != nil {
		return nil, s.keywordErr
	}
	var out []model.SearchKeyword
	for _, k := range s.keywords {
		if k.IsActive {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *memStore) ListKeywords(_ context.Context) ([]model.SearchKeyword, error) {
	return s.keywords, nil
}

func (s *memStore) AddKeyword(_ context.Context, keyword string) error {
	s.keywords = append(s.keywords, model.SearchKeyword{Keyword: keyword, IsActive: true})
	return nil
}

func (s *memStore) SetKeywordActive(_ context.Context, _ string, _ bool) error { return nil }

func (s *memStore) TouchKeyword(_ context.Context, keyword string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touchErr[keyword]; err != nil {
		return err
	}
	for i := range s.keywords {
		if s.keywords[i].Keyword == keyword {
			t := at
			s.keywords[i].LastSearchedAt = &t
		}
	}
	return nil
}

func (s *memStore) UpsertVisaInfo(_ context.Context, v model.VisaInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visa[v.VisaType] = v
	return nil
}

func (s *memStore) UpsertCultureInfo(_ context.Context, c model.CultureInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.culture[c.CultureType] = c
	return nil
}

func (s *memStore) UpsertIndustryInfo(_ context.Context, i model.IndustryInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.industry[i.IndustryType] = i
	return nil
}

func (s *memStore) ListVisaInfo(_ context.Context) ([]model.VisaInfo, error)         { return nil, nil }
func (s *memStore) ListCultureInfo(_ context.Context) ([]model.CultureInfo, error)   { return nil, nil }
func (s *memStore) ListIndustryInfo(_ context.Context) ([]model.IndustryInfo, error) { return nil, nil }

// recordingNotifier records the statuses passed to Notify.
type recordingNotifier struct {
	got [][]model.KeywordStatus
}

func (n *recordingNotifier) Notify(_ context.Context, statuses []model.KeywordStatus) error {
	n.got = append(n.got, statuses)
	return nil
}

// runeTokenizer treats every rune as one token.
type runeTokenizer struct{}

func (runeTokenizer) Encode(text string) []int {
	out := make([]int, 0, len(text))
	for _, r := range text {
		out = append(out, int(r))
	}
	return out
}

func (runeTokenizer) Decode(tokens []int) string {
	rs := make([]rune, len(tokens))
	for i, t := range tokens {
		rs[i] = rune(t)
	}
	return string(rs)
}

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
