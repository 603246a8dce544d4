package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/amishk599/insightd/internal/ai"
	"github.com/amishk599/insightd/internal/metrics"
	"github.com/amishk599/insightd/internal/model"
)

// StructuredExtractor turns combined insight text into structured rows.
type StructuredExtractor interface {
	ExtractVisa(ctx context.Context, text string) ([]model.VisaInfo, error)
	ExtractCulture(ctx context.Context, text string) ([]model.CultureInfo, error)
	ExtractIndustry(ctx context.Context, text string) ([]model.IndustryInfo, error)
}

// Structurer rebuilds the structured-info tables from stored insights.
type Structurer struct {
	insights       model.InsightStore
	structured     model.StructuredStore
	extractor      StructuredExtractor
	tokenizer      ai.Tokenizer
	maxInputTokens int
	logger         *slog.Logger
}

func NewStructurer(
	insights model.InsightStore,
	structured model.StructuredStore,
	extractor StructuredExtractor,
	tokenizer ai.Tokenizer,
	maxInputTokens int,
	logger *slog.Logger,
) *Structurer {
	return &Structurer{
		insights:       insights,
		structured:     structured,
		extractor:      extractor,
		tokenizer:      tokenizer,
		maxInputTokens: maxInputTokens,
		logger:         logger,
	}
}

// Run processes every category and returns one report per category. A
// category's failure is recorded in its report and joined into the returned
// error; the other categories still run.
func (s *Structurer) Run(ctx context.Context) ([]model.StructureReport, error) {
	if s.maxInputTokens > 0 && s.tokenizer == nil {
		return nil, ai.ErrNoTokenizer
	}
	logger := s.logger.With("run_id", uuid.NewString())

	var (
		reports []model.StructureReport
		errs    []error
	)
	for _, cat := range model.Categories() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		rep, err := s.runCategory(ctx, cat)
		if err != nil {
			rep.Error = err.Error()
			errs = append(errs, fmt.Errorf("structuring %s: %w", cat, err))
			logger.Error("structuring category failed", "category", cat, "error", err)
		} else {
			logger.Info("structured category",
				"category", cat,
				"batches", rep.Batches,
				"upserted", rep.Upserted,
				"skipped", rep.Skipped,
			)
		}
		reports = append(reports, rep)
	}
	return reports, errors.Join(errs...)
}

func (s *Structurer) runCategory(ctx context.Context, cat model.Category) (model.StructureReport, error) {
	rep := model.StructureReport{Category: cat}

	insights, err := s.insights.ListInsights(ctx, model.InsightFilter{Category: cat})
	if err != nil {
		return rep, err
	}
	contents := make([]string, 0, len(insights))
	for _, in := range insights {
		if c := strings.TrimSpace(in.Content); c != "" {
			contents = append(contents, c)
		}
	}

	var errs []error
	for _, batch := range Batch(s.tokenizer, contents, s.maxInputTokens) {
		rep.Batches++
		upserted, skipped, err := s.structureBatch(ctx, cat, ai.CombineContents(batch))
		rep.Upserted += upserted
		rep.Skipped += skipped
		if err != nil {
			errs = append(errs, err)
		}
	}
	metrics.StructuredUpserts.WithLabelValues(string(cat)).Add(float64(rep.Upserted))
	return rep, errors.Join(errs...)
}

func (s *Structurer) structureBatch(ctx context.Context, cat model.Category, text string) (upserted, skipped int, err error) {
	switch cat {
	case model.CategoryVisa:
		rows, err := s.extractor.ExtractVisa(ctx, text)
		if err != nil {
			return 0, 0, err
		}
		for _, v := range rows {
			v.VisaType = strings.TrimSpace(v.VisaType)
			if v.VisaType == "" {
				skipped++
				continue
			}
			if err := s.structured.UpsertVisaInfo(ctx, v); err != nil {
				return upserted, skipped, err
			}
			upserted++
		}
	case model.CategoryCulture:
		rows, err := s.extractor.ExtractCulture(ctx, text)
		if err != nil {
			return 0, 0, err
		}
		for _, c := range rows {
			c.CultureType = strings.ToLower(strings.TrimSpace(c.CultureType))
			if !slices.Contains(model.CultureTypes, c.CultureType) {
				skipped++
				continue
			}
			if err := s.structured.UpsertCultureInfo(ctx, c); err != nil {
				return upserted, skipped, err
			}
			upserted++
		}
	case model.CategoryIndustry:
		rows, err := s.extractor.ExtractIndustry(ctx, text)
		if err != nil {
			return 0, 0, err
		}
		for _, i := range rows {
			i.IndustryType = strings.TrimSpace(i.IndustryType)
			if i.IndustryType == "" {
				skipped++
				continue
			}
			if err := s.structured.UpsertIndustryInfo(ctx, i); err != nil {
				return upserted, skipped, err
			}
			upserted++
		}
	}
	return upserted, skipped, nil
}

// Batch groups contents, in order, so each group's token count stays within
// budget. A single content over budget is cut down and sent alone. A
// non-positive budget or a nil tokenizer yields one batch.
func Batch(tok ai.Tokenizer, contents []string, budget int) [][]string {
	if len(contents) == 0 {
		return nil
	}
	if budget <= 0 || tok == nil {
		return [][]string{contents}
	}

	var (
		batches [][]string
		cur     []string
		used    int
	)
	for _, c := range contents {
		n := ai.CountTokens(tok, c)
		if n > budget {
			c = ai.Truncate(tok, c, budget)
			n = budget
		}
		// The "\n\n" separator costs at most two tokens.
		cost := n
		if len(cur) > 0 {
			cost += 2
		}
		if len(cur) > 0 && used+cost > budget {
			batches = append(batches, cur)
			cur, used, cost = nil, 0, n
		}
		cur = append(cur, c)
		used += cost
	}
	if len(cur) > 0 {
		batches = append(batches, cur)
	}
	return batches
}
