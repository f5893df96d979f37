package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type webhookPayload struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"text"`
}

// WebhookNotifier posts new-item messages as JSON to an HTTP endpoint
// (chat incoming webhooks, automation services and the like).
type WebhookNotifier struct {
	endpoint string
	language string
	client   *http.Client
	logger   *zap.Logger
}

func NewWebhookNotifier(endpoint, language string, logger *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		endpoint: endpoint,
		language: language,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger.Named("notifier"),
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, title, url string) error {
	body, err := json.Marshal(webhookPayload{
		Title: title,
		URL:   url,
		Text:  FormatMessage(n.language, title, url),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook answered %d", resp.StatusCode)
	}
	n.logger.Debug("notification sent", zap.String("url", url))
	return nil
}
