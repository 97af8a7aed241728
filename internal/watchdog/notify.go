package watchdog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/charterstone/planner-mcp/internal/graph"
)

// Notifier posts signal alerts to a Teams incoming webhook as adaptive
// cards. An empty webhook URL disables it.
type Notifier struct {
	webhookURL string
	httpClient graph.HTTPDoer
	logger     *slog.Logger
}

// NewNotifier creates a webhook notifier. httpClient may be nil.
func NewNotifier(webhookURL string, httpClient graph.HTTPDoer, logger *slog.Logger) *Notifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends the alert card. Errors are returned so the caller can log
// them, but a failed notification never blocks task creation.
func (n *Notifier) Notify(ctx context.Context, signal Signal) error {
	if n.webhookURL == "" {
		return nil
	}

	color := "Good"
	strategy := "BizDev Forecast"
	if signal.Type == SignalDistress {
		color = "Attention"
		strategy = "Turnaround"
	}

	card := map[string]any{
		"type": "message",
		"attachments": []map[string]any{{
			"contentType": "application/vnd.microsoft.card.adaptive",
			"content": map[string]any{
				"$schema": "http://adaptivecards.io/schemas/adaptive-card.json",
				"type":    "AdaptiveCard",
				"version": "1.2",
				"body": []map[string]any{
					{"type": "TextBlock", "text": fmt.Sprintf("%s SIGNAL", signal.Type), "weight": "Bolder", "size": "Large", "color": color},
					{"type": "TextBlock", "text": fmt.Sprintf("**Trigger:** %s", strings.ToUpper(signal.Keyword)), "isSubtle": true},
					{"type": "TextBlock", "text": signal.Title, "wrap": true},
					{"type": "FactSet", "facts": []map[string]any{
						{"title": "Strategy", "value": strategy},
					}},
				},
				"actions": []map[string]any{
					{"type": "Action.OpenUrl", "title": "Read Intel", "url": signal.Link},
				},
			},
		}},
	}

	encoded, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("encode alert card: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("webhook returned %d", res.StatusCode)
	}
	return nil
}
