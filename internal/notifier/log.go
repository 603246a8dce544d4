package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/insightd/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes run summaries to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each keyword status via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs one line per keyword and a closing summary line.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(_ context.Context, statuses []model.KeywordStatus) error {
	total, failed := 0, 0
	for _, s := range statuses {
		args := []any{"keyword", s.Keyword, "status", s.Status, "insights", s.InsightsCount}
		if s.Error != "" {
			args = append(args, "error", s.Error)
			failed++
		}
		total += s.InsightsCount
		n.logger.Info("keyword result", args...)
	}
	n.logger.Info("collect run summary",
		"keywords", len(statuses),
		"failed", failed,
		"insights", total,
	)
	return nil
}
