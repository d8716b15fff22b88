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

	"github.com/amishk599/jobpulse/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier sends the run digest to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	opts       MessageOptions
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts one digest per run to Slack.
func NewSlackNotifier(webhookURL string, opts MessageOptions, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		opts:       opts.withDefaults(),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends the digest as Block Kit. If Slack rejects it, a plain-text
// fallback with only the count is sent; an error is returned only when both
// sends fail.
func (s *SlackNotifier) Notify(ctx context.Context, added []model.Listing) error {
	err := s.post(ctx, buildPayload(added, s.opts))
	if err == nil {
		s.logger.Info("slack digest sent", "listings", len(added))
		return nil
	}
	s.logger.Error("slack digest failed, sending plain-text fallback", "error", err)

	if err := s.post(ctx, slackPayload{Text: FallbackMessage(len(added), s.opts.Label)}); err != nil {
		return fmt.Errorf("slack fallback: %w", err)
	}
	s.logger.Info("slack fallback sent", "listings", len(added))
	return nil
}

func (s *SlackNotifier) post(ctx context.Context, payload slackPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.do(ctx, body)
	if err != nil {
		return err
	}

	if status == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(retryAfter)
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(secs) * time.Second):
		}

		status, _, err = s.do(ctx, body)
		if err != nil {
			return fmt.Errorf("retry: %w", err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", status)
		}
		return nil
	}

	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	return nil
}

func (s *SlackNotifier) do(ctx context.Context, body []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, resp.Header.Get("Retry-After"), nil
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text,omitempty"`
	Blocks []slackBlock `json:"blocks,omitempty"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string     `json:"type"`
	Text  *slackText `json:"text,omitempty"`
	URL   string     `json:"url,omitempty"`
	Style string     `json:"style,omitempty"`
}

var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func buildPayload(added []model.Listing, opts MessageOptions) slackPayload {
	if len(added) == 0 {
		lines := []string{fmt.Sprintf("No new %s positions found today from ATS sites.", opts.Label), "", "Searched:"}
		for _, p := range searchedPlatforms {
			lines = append(lines, "• "+p)
		}
		return slackPayload{
			Text: "Daily job search complete: no new jobs",
			Blocks: []slackBlock{
				{Type: "header", Text: &slackText{Type: "plain_text", Text: "🔍 Daily Job Search Complete"}},
				{Type: "section", Text: &slackText{Type: "mrkdwn", Text: slackEscaper.Replace(strings.Join(lines, "\n"))}},
			},
		}
	}

	headline := fmt.Sprintf("🎯 %d New %s Jobs Found!", len(added), opts.Label)
	blocks := []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: headline}},
	}

	shown, rest := opts.listed(added)
	for _, l := range shown {
		title := slackEscaper.Replace(truncateTitle(orNA(l.Title), opts.TitleMaxLen))
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("*<%s|%s>*", l.Link, title)},
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Company:*\n" + slackEscaper.Replace(orNA(l.Company))},
				{Type: "mrkdwn", Text: "*Location:*\n" + slackEscaper.Replace(orNA(l.City()))},
			},
		})
	}

	if rest > 0 {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("_... and %d more jobs!_", rest)},
		})
	}

	if opts.DashboardURL != "" {
		blocks = append(blocks, slackBlock{
			Type: "actions",
			Elements: []slackElement{
				{
					Type:  "button",
					Text:  &slackText{Type: "plain_text", Text: "View Full Dashboard"},
					URL:   opts.DashboardURL,
					Style: "primary",
				},
			},
		})
	}
	blocks = append(blocks, slackBlock{Type: "divider"})

	return slackPayload{Text: headline, Blocks: blocks}
}
