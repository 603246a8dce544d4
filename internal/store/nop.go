package store

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/amishk599/insightd/internal/model"
)

// DryRunStore is used by collect --dry-run. Keyword reads go to the real store,
// every source URL looks Absent, and writes are discarded, so the whole
// pipeline runs without touching persisted rows.
type DryRunStore struct {
	keywords model.KeywordStore
	nextID   atomic.Int64
}

func NewDryRunStore(keywords model.KeywordStore) *DryRunStore {
	return &DryRunStore{keywords: keywords}
}

func (s *DryRunStore) ActiveKeywords(ctx context.Context) ([]model.SearchKeyword, error) {
	return s.keywords.ActiveKeywords(ctx)
}

func (s *DryRunStore) ListKeywords(ctx context.Context) ([]model.SearchKeyword, error) {
	return s.keywords.ListKeywords(ctx)
}

func (s *DryRunStore) AddKeyword(ctx context.Context, keyword string) error { return nil }
func (s *DryRunStore) SetKeywordActive(ctx context.Context, keyword string, active bool) error {
	return nil
}
func (s *DryRunStore) TouchKeyword(ctx context.Context, keyword string, at time.Time) error {
	return nil
}

func (s *DryRunStore) FindInsight(ctx context.Context, sourceURL string) (*model.Insight, error) {
	return nil, model.ErrNotFound
}

// CreateInsight hands out a fake ID so callers can log it.
func (s *DryRunStore) CreateInsight(ctx context.Context, in *model.Insight) error {
	in.ID = s.nextID.Add(1)
	return nil
}

func (s *DryRunStore) RefreshInsight(ctx context.Context, id int64, content string, updatedAt time.Time) error {
	return nil
}

func (s *DryRunStore) ListInsights(ctx context.Context, f model.InsightFilter) ([]model.Insight, error) {
	return nil, nil
}
