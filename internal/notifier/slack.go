package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/insightd/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier posts run summaries to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts one summary message per run.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends a single Block Kit message summarizing the run. An empty run
// sends nothing.
func (s *SlackNotifier) Notify(ctx context.Context, statuses []model.KeywordStatus) error {
	if len(statuses) == 0 {
		return nil
	}

	body, err := json.Marshal(buildPayload(statuses))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(ctx, body)
	if err != nil {
		return err
	}
	if status == http.StatusTooManyRequests {
		s.logger.Warn("slack rate limited, retrying", "retry_after", retryAfter.String())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryAfter):
		}

		status, _, err = s.post(ctx, body)
		if err != nil {
			return fmt.Errorf("retry: %w", err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", status)
		}
		s.logger.Info("slack summary sent", "keywords", len(statuses), "retried", true)
		return nil
	}

	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	s.logger.Info("slack summary sent", "keywords", len(statuses))
	return nil
}

func (s *SlackNotifier) post(ctx context.Context, body []byte) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	if secs <= 0 {
		secs = 1
	}
	return resp.StatusCode, time.Duration(secs) * time.Second, nil
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendTestMessage sends a sample run summary to verify the integration works.
func SendTestMessage(ctx context.Context, n model.Notifier) error {
	return n.Notify(ctx, []model.KeywordStatus{
		{Keyword: "insightd test", InsightsCount: 1, Status: model.StatusSuccess},
	})
}

func buildPayload(statuses []model.KeywordStatus) slackPayload {
	total, failed := 0, 0
	for _, s := range statuses {
		total += s.InsightsCount
		if s.Status == model.StatusError {
			failed++
		}
	}
	summary := fmt.Sprintf("Collect run finished: %d keywords, %d insights, %d failed", len(statuses), total, failed)

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "📚 Insight collection"},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Keywords:*\n" + strconv.Itoa(len(statuses))},
				{Type: "mrkdwn", Text: "*Insights:*\n" + strconv.Itoa(total)},
				{Type: "mrkdwn", Text: "*Failed:*\n" + strconv.Itoa(failed)},
				{Type: "mrkdwn", Text: "*Finished:*\n" + time.Now().UTC().Format(time.RFC1123)},
			},
		},
	}

	var lines []string
	for _, s := range statuses {
		if s.Status == model.StatusError {
			lines = append(lines, fmt.Sprintf("❌ *%s*: %s", s.Keyword, s.Error))
			continue
		}
		lines = append(lines, fmt.Sprintf("✅ *%s*: %d insights", s.Keyword, s.InsightsCount))
	}
	blocks = append(blocks,
		slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: strings.Join(lines, "\n")},
		},
		slackBlock{Type: "divider"},
	)

	return slackPayload{Text: summary, Blocks: blocks}
}
