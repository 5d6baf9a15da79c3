package feishu

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"SentimentMonitor/internal/ports"
)

// Webhook posts plain-text messages to a group bot.
type Webhook struct {
	url    string
	http   *resty.Client
	logger *slog.Logger
}

var _ ports.MessageSink = (*Webhook)(nil)

// NewWebhook builds a sink for the given bot URL.
func NewWebhook(url string, logger *slog.Logger) *Webhook {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Webhook{
		url:    url,
		http:   resty.New().SetTimeout(10 * time.Second),
		logger: logger.With("component", "feishu_webhook"),
	}
}

// Send reports success only for HTTP 200 with code 0.
func (w *Webhook) Send(ctx context.Context, text string) bool {
	if w.url == "" {
		w.logger.Warn("webhook url not configured")
		return false
	}

	var out envelope
	resp, err := w.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"msg_type": "text",
			"content":  map[string]string{"text": text},
		}).
		SetResult(&out).
		Post(w.url)
	if err != nil {
		w.logger.Error("webhook request failed", "error", err)
		return false
	}
	if resp.StatusCode() != 200 {
		w.logger.Error("webhook unexpected status", "status", resp.StatusCode())
		return false
	}
	if out.Code != 0 {
		w.logger.Error("webhook rejected", "code", out.Code, "msg", out.Msg)
		return false
	}

	w.logger.Info("webhook message sent")
	return true
}
