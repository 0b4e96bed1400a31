package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Notifier delivers an operator alert.
type Notifier interface {
	Notify(ctx context.Context, subject, body string)
}

// LogNotifier writes alerts to the log. It is the fallback when no webhook
// is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify logs the alert at error level.
func (n *LogNotifier) Notify(_ context.Context, subject, body string) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("operator alert", "subject", subject, "body", body)
}

// WebhookNotifier POSTs alerts as JSON to a configured URL.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(url string, timeout time.Duration, logger *slog.Logger) *WebhookNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type webhookPayload struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notify posts the alert in a background goroutine. Failures are logged and
// otherwise dropped; no delivery guarantee is offered.
func (n *WebhookNotifier) Notify(ctx context.Context, subject, body string) {
	payload, err := json.Marshal(webhookPayload{Subject: subject, Body: body})
	if err != nil {
		n.logger.Error("marshal alert payload", "err", err)
		return
	}

	go func() {
		// Detach from the caller's context so a finished request does not
		// cancel the delivery, but keep the client timeout.
		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, n.url, bytes.NewReader(payload))
		if err != nil {
			n.logger.Error("create alert request", "err", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.httpClient.Do(req)
		if err != nil {
			n.logger.Error("deliver alert", "subject", subject, "err", err)
			return
		}
		resp.Body.Close()

		if resp.StatusCode >= 400 {
			n.logger.Error("alert rejected", "subject", subject, "status", resp.StatusCode)
		}
	}()
}
