package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/insightd/internal/metrics"
	"github.com/amishk599/insightd/internal/model"
	"github.com/amishk599/insightd/internal/search"
)

// Summarizer turns a fetched page into insight content (the transform chain).
type Summarizer interface {
	Run(ctx context.Context, searchWord, text string) (string, error)
}

// Classifier labels content. The bool reports that the default category was used.
type Classifier interface {
	Classify(ctx context.Context, text string) (model.Category, bool)
}

// Config tunes collect runs.
type Config struct {
	ResultCount        int // default search results per keyword in CollectAll
	KeywordConcurrency int // keywords processed at once in CollectAll
}

// Collector owns the collect pipeline:
// search → fetch → freshness check → summarize → classify → upsert.
type Collector struct {
	searcher   model.Searcher
	summarizer Summarizer
	classifier Classifier
	insights   model.InsightStore
	keywords   model.KeywordStore
	notifier   model.Notifier
	policy     Policy
	cfg        Config
	logger     *slog.Logger
}

// NewCollector creates a collector wired with all its dependencies.
func NewCollector(
	searcher model.Searcher,
	summarizer Summarizer,
	classifier Classifier,
	insights model.InsightStore,
	keywords model.KeywordStore,
	notifier model.Notifier,
	policy Policy,
	cfg Config,
	logger *slog.Logger,
) *Collector {
	if cfg.KeywordConcurrency < 1 {
		cfg.KeywordConcurrency = 1
	}
	if cfg.ResultCount < 1 {
		cfg.ResultCount = 10
	}
	return &Collector{
		searcher:   searcher,
		summarizer: summarizer,
		classifier: classifier,
		insights:   insights,
		keywords:   keywords,
		notifier:   notifier,
		policy:     policy,
		cfg:        cfg,
		logger:     logger,
	}
}

// Collect runs the pipeline for one keyword and returns the insights it
// created or refreshed, in search ranking order. Only a search failure is
// returned as an error; per-link failures are logged and skipped.
func (c *Collector) Collect(ctx context.Context, keyword string, resultCount int) ([]model.Insight, error) {
	return c.collect(ctx, c.logger.With("run_id", uuid.NewString()), keyword, resultCount)
}

func (c *Collector) collect(ctx context.Context, logger *slog.Logger, keyword string, resultCount int) ([]model.Insight, error) {
	logger = logger.With("keyword", keyword)

	results, err := c.searcher.Crawl(ctx, keyword, search.ResultParams(resultCount))
	if err != nil {
		return nil, fmt.Errorf("collecting %q: %w", keyword, err)
	}

	var (
		touched []model.Insight
		skipped int
	)
	for _, r := range results {
		if err := ctx.Err(); err != nil {
			return touched, fmt.Errorf("collecting %q: %w", keyword, err)
		}
		if !r.OK() {
			skipped++
			logger.Debug("skipping link without content", "url", r.Link, "error", r.Err)
			continue
		}

		in, err := c.processLink(ctx, keyword, r)
		if err != nil {
			skipped++
			logger.Warn("link failed", "url", r.Link, "error", err)
			continue
		}
		if in == nil {
			skipped++
			continue
		}
		touched = append(touched, *in)
	}

	logger.Info("collected keyword",
		"results", len(results),
		"touched", len(touched),
		"skipped", skipped,
	)
	return touched, nil
}

// processLink applies the upsert policy to one fetched page. A nil insight
// with a nil error means nothing was written (fresh or lost a create race).
func (c *Collector) processLink(ctx context.Context, keyword string, r model.FetchResult) (*model.Insight, error) {
	existing, err := c.insights.FindInsight(ctx, r.Link)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("looking up insight: %w", err)
	}
	if errors.Is(err, model.ErrNotFound) {
		existing = nil
	}

	decision := c.policy.Evaluate(existing)
	if decision == DecisionSkip {
		metrics.InsightActions.WithLabelValues(decision.String()).Inc()
		return nil, nil
	}

	content, err := c.summarizer.Run(ctx, keyword, r.HTML)
	if err != nil {
		var te *model.TransformError
		stage := "unknown"
		if errors.As(err, &te) {
			stage = te.Stage
		}
		metrics.TransformFailures.WithLabelValues(stage).Inc()
		return nil, err
	}

	now := c.policy.now()
	if decision == DecisionRefresh {
		if err := c.insights.RefreshInsight(ctx, existing.ID, content, now); err != nil {
			return nil, fmt.Errorf("refreshing insight: %w", err)
		}
		metrics.InsightActions.WithLabelValues(decision.String()).Inc()
		refreshed := *existing
		refreshed.Content = content
		refreshed.UpdatedAt = now
		return &refreshed, nil
	}

	category, fellBack := c.classifier.Classify(ctx, content)
	if fellBack {
		metrics.ClassificationFallbacks.Inc()
	}
	in := &model.Insight{
		SearchWord: keyword,
		Category:   category,
		Content:    content,
		SourceURL:  r.Link,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := c.insights.CreateInsight(ctx, in); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			metrics.InsightActions.WithLabelValues("duplicate").Inc()
			return nil, nil
		}
		return nil, fmt.Errorf("creating insight: %w", err)
	}
	metrics.InsightActions.WithLabelValues(decision.String()).Inc()
	return in, nil
}

// CollectAll runs Collect for every active keyword and returns one status per
// keyword in keyword order. A non-positive resultCount uses Config.ResultCount.
// Failing to load keywords is the only error.
func (c *Collector) CollectAll(ctx context.Context, resultCount int) ([]model.KeywordStatus, error) {
	logger := c.logger.With("run_id", uuid.NewString())
	if resultCount < 1 {
		resultCount = c.cfg.ResultCount
	}

	keywords, err := c.keywords.ActiveKeywords(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading active keywords: %w", err)
	}
	logger.Info("collect run started", "keywords", len(keywords))

	statuses := make([]model.KeywordStatus, len(keywords))

	var g errgroup.Group
	g.SetLimit(c.cfg.KeywordConcurrency)
	for i, kw := range keywords {
		g.Go(func() error {
			statuses[i] = c.runKeyword(ctx, logger, kw.Keyword, resultCount)
			return nil
		})
	}
	_ = g.Wait()

	if c.notifier != nil {
		if err := c.notifier.Notify(ctx, statuses); err != nil {
			logger.Error("run notification failed", "error", err)
		}
	}
	return statuses, nil
}

func (c *Collector) runKeyword(ctx context.Context, logger *slog.Logger, keyword string, resultCount int) model.KeywordStatus {
	start := time.Now()
	defer func() { metrics.CollectDuration.Observe(time.Since(start).Seconds()) }()

	status := model.KeywordStatus{Keyword: keyword}
	touched, err := c.collect(ctx, logger, keyword, resultCount)
	if err == nil {
		err = c.keywords.TouchKeyword(ctx, keyword, c.policy.now())
	}
	if err != nil {
		status.Status = model.StatusError
		status.Error = err.Error()
		logger.Error("keyword run failed", "keyword", keyword, "error", err)
	} else {
		status.Status = model.StatusSuccess
		status.InsightsCount = len(touched)
	}
	metrics.KeywordRuns.WithLabelValues(status.Status).Inc()
	return status
}
