package ai

import (
	"context"
	"log/slog"

	"github.com/amishk599/insightd/internal/model"
)

// Classifier labels summarized text with a category. It never fails: provider
// errors, empty answers and unknown labels all resolve to the fallback.
type Classifier struct {
	stage    Stage
	fallback model.Category
	logger   *slog.Logger
}

// NewClassifier wraps a stage whose instructions ask for a bare category code.
func NewClassifier(stage Stage, fallback model.Category, logger *slog.Logger) *Classifier {
	return &Classifier{
		stage:    stage,
		fallback: fallback,
		logger:   logger,
	}
}

// Classify returns the category for text and whether the fallback was used.
func (c *Classifier) Classify(ctx context.Context, text string) (model.Category, bool) {
	raw, err := c.stage.Transform(ctx, "", text)
	if err != nil {
		c.logger.Warn("classification failed, using default category",
			"default", c.fallback,
			"error", err,
		)
		return c.fallback, true
	}

	cat, ok := model.ParseCategory(raw)
	if !ok {
		c.logger.Warn("unrecognized category label, using default",
			"label", raw,
			"default", c.fallback,
		)
		return c.fallback, true
	}
	return cat, false
}
