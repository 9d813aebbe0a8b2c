package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oppscan/oppscan/internal/qualifier"
)

// Ensure SlackNotifier implements Notifier.
var _ Notifier = (*SlackNotifier)(nil)

// SlackNotifier sends candidate alerts to a Slack channel via Incoming
// Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts each candidate to Slack
// via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends each candidate as a separate Slack message using Block Kit.
// Returns an error only if ALL messages fail. Individual failures are
// logged.
func (s *SlackNotifier) Notify(candidates []qualifier.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}

	failures := 0
	for i, c := range candidates {
		if i > 0 {
			time.Sleep(500 * time.Millisecond)
		}

		if err := s.sendMessage(c); err != nil {
			s.logger.Error("slack notification failed", "company", c.Company, "role", c.Role, "error", err)
			failures++
		}
	}

	sent := len(candidates) - failures
	if failures == len(candidates) {
		return fmt.Errorf("all %d slack notifications failed", failures)
	}
	s.logger.Info("slack notifications complete", "sent", sent, "failed", failures)
	return nil
}

func (s *SlackNotifier) sendMessage(c qualifier.Candidate) error {
	payload := buildPayload(c)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := resp.Header.Get("Retry-After")
		secs, _ := strconv.Atoi(retryAfter)
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)
		time.Sleep(time.Duration(secs) * time.Second)

		resp2, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		defer resp2.Body.Close()

		if resp2.StatusCode != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", resp2.StatusCode)
		}
		s.logger.Info("slack message sent", "company", c.Company, "role", c.Role, "retried", true)
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	s.logger.Info("slack message sent", "company", c.Company, "role", c.Role)
	return nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
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
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style"`
}

// SendTestMessage sends a dummy candidate notification to verify the
// integration works.
func SendTestMessage(n Notifier) error {
	testCandidate := qualifier.Candidate{
		CandidateID: "test-001",
		ListingID:   "test-001",
		Company:     "Oppscan Test",
		Role:        "Test Notification — Integration Verified",
		URL:         "https://news.ycombinator.com/jobs",
		Score:       100,
		RoleType:    qualifier.RoleGeneral,
		Location:    "remote",
		QualifiedAt: time.Now().UTC(),
	}
	return n.Notify([]qualifier.Candidate{testCandidate})
}

func buildPayload(c qualifier.Candidate) slackPayload {
	salaryText := "Not listed"
	if c.Salary != nil {
		salaryText = fmt.Sprintf("%.0f - %.0f %s", c.Salary.Min, c.Salary.Max, c.Salary.Currency)
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "🎯 " + c.Company + ": " + c.Role},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Score:*\n%.2f", c.Score)},
				{Type: "mrkdwn", Text: "*Role Type:*\n" + c.RoleType},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Salary:*\n" + salaryText},
				{Type: "mrkdwn", Text: "*Location:*\n" + string(c.Location)},
			},
		},
	}

	if len(c.AIMLSignals) > 0 || len(c.FintechSignals) > 0 {
		signals := append(append([]string{}, c.AIMLSignals...), c.FintechSignals...)
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Signals:* " + strings.Join(signals, ", ")},
		})
	}

	blocks = append(blocks,
		slackBlock{
			Type: "actions",
			Elements: []slackElement{
				{
					Type:  "button",
					Text:  slackText{Type: "plain_text", Text: "View Listing"},
					URL:   c.URL,
					Style: "primary",
				},
			},
		},
		slackBlock{Type: "divider"},
	)

	return slackPayload{Blocks: blocks}
}
