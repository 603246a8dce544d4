package model

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// Category is the closed label set an Insight is filed under.
type Category string

const (
	CategoryVisa     Category = "visa"
	CategoryCulture  Category = "culture"
	CategoryIndustry Category = "industry"
)

// Categories returns every valid category in display order.
func Categories() []Category {
	return []Category{CategoryVisa, CategoryCulture, CategoryIndustry}
}

// ParseCategory normalizes raw (trim + lowercase) and reports whether it names
// a known category.
func ParseCategory(raw string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	switch c {
	case CategoryVisa, CategoryCulture, CategoryIndustry:
		return c, true
	}
	return "", false
}

// CultureTypes is the allow-list for CultureInfo.CultureType.
var CultureTypes = []string{"business", "daily", "social", "food", "housing", "transportation", "entertainment"}

// SearchKeyword is an operator-managed search term.
type SearchKeyword struct {
	ID             int64      `json:"id"`
	Keyword        string     `json:"keyword"` // unique
	IsActive       bool       `json:"is_active"`
	LastSearchedAt *time.Time `json:"last_searched_at"` // nil until the first successful collect
	CreatedAt      time.Time  `json:"created_at"`
}

// FetchResult is one search hit plus its fetched page. It lives for a single
// collect run.
type FetchResult struct {
	SearchWord string
	Link       string
	HTML       string
	Err        error // non-nil when the page fetch failed
}

// OK reports whether the page was fetched and has a body worth summarizing.
func (r FetchResult) OK() bool {
	return r.Err == nil && strings.TrimSpace(r.HTML) != ""
}

// Insight is a categorized summary derived from one source page.
type Insight struct {
	ID         int64     `json:"id"`
	SearchWord string    `json:"search_word"`
	Category   Category  `json:"category"`
	Content    string    `json:"content"`
	SourceURL  string    `json:"source_url"` // unique
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// VisaInfo is keyed by VisaType.
type VisaInfo struct {
	VisaType     string    `json:"visa_type"`
	Requirements []string  `json:"requirements"`
	Process      []string  `json:"process"`
	Duration     string    `json:"duration"`
	UpdatedAt    time.Time `json:"-"`
}

// CultureInfo is keyed by CultureType.
type CultureInfo struct {
	CultureType string    `json:"culture_type"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Tags        []string  `json:"tags"`
	SourceURLs  []string  `json:"source_urls"`
	UpdatedAt   time.Time `json:"-"`
}

// IndustryInfo is keyed by IndustryType.
type IndustryInfo struct {
	IndustryType  string    `json:"industry_type"`
	Description   string    `json:"description"`
	Trends        []string  `json:"trends"`
	Opportunities []string  `json:"opportunities"`
	UpdatedAt     time.Time `json:"-"`
}

// Keyword run outcomes reported by CollectAll.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// KeywordStatus summarizes one keyword's collect run.
type KeywordStatus struct {
	Keyword       string `json:"keyword"`
	InsightsCount int    `json:"insights_count"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
}

// StructureReport summarizes one category of the structured-info job.
type StructureReport struct {
	Category Category `json:"category"`
	Batches  int      `json:"batches"`
	Upserted int      `json:"upserted"`
	Skipped  int      `json:"skipped"`
	Error    string   `json:"error,omitempty"`
}

// InsightFilter narrows ListInsights. Zero values mean "no constraint".
type InsightFilter struct {
	Category   Category
	SearchWord string
	Limit      int
	Offset     int
}

// Searcher queries the search provider and fetches every ranked result page.
type Searcher interface {
	Crawl(ctx context.Context, term string, params url.Values) ([]FetchResult, error)
}

// InsightStore persists Insight rows. CreateInsight returns ErrDuplicate when
// another writer already owns the source URL; FindInsight returns ErrNotFound
// on a miss.
type InsightStore interface {
	FindInsight(ctx context.Context, sourceURL string) (*Insight, error)
	CreateInsight(ctx context.Context, in *Insight) error
	RefreshInsight(ctx context.Context, id int64, content string, updatedAt time.Time) error
	ListInsights(ctx context.Context, f InsightFilter) ([]Insight, error)
}

// KeywordStore persists SearchKeyword rows.
type KeywordStore interface {
	ActiveKeywords(ctx context.Context) ([]SearchKeyword, error)
	ListKeywords(ctx context.Context) ([]SearchKeyword, error)
	AddKeyword(ctx context.Context, keyword string) error
	SetKeywordActive(ctx context.Context, keyword string, active bool) error
	TouchKeyword(ctx context.Context, keyword string, at time.Time) error
}

// StructuredStore upserts and lists the structured-info tables by natural key.
type StructuredStore interface {
	UpsertVisaInfo(ctx context.Context, v VisaInfo) error
	UpsertCultureInfo(ctx context.Context, c CultureInfo) error
	UpsertIndustryInfo(ctx context.Context, i IndustryInfo) error
	ListVisaInfo(ctx context.Context) ([]VisaInfo, error)
	ListCultureInfo(ctx context.Context) ([]CultureInfo, error)
	ListIndustryInfo(ctx context.Context) ([]IndustryInfo, error)
}

// Notifier reports the outcome of a collect-all run.
type Notifier interface {
	Notify(ctx context.Context, statuses []KeywordStatus) error
}
