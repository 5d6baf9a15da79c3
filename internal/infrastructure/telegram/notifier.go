package telegram

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"SentimentMonitor/internal/ports"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	// maxMessageRunes is the Bot API limit for one message.
	maxMessageRunes = 4096
)

// Notifier sends reports to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *resty.Client
	logger   *slog.Logger
}

var _ ports.MessageSink = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client:   resty.New().SetTimeout(5 * time.Second),
		logger:   logger.With("component", "telegram"),
	}
}

// Configured reports whether both token and chat are set.
func (n *Notifier) Configured() bool {
	return n.botToken != "" && n.chatID != ""
}

// Send posts plain text, splitting it into chunks within the message limit.
func (n *Notifier) Send(ctx context.Context, text string) bool {
	if !n.Configured() {
		n.logger.Warn("telegram notifier misconfigured")
		return false
	}

	for _, part := range split(text, maxMessageRunes) {
		resp, err := n.client.R().
			SetContext(ctx).
			SetFormData(map[string]string{
				"chat_id": n.chatID,
				"text":    part,
			}).
			Post(n.apiBase + "/bot" + n.botToken + "/sendMessage")
		if err != nil {
			n.logger.Error("telegram request failed", "error", err)
			return false
		}
		if resp.IsError() {
			n.logger.Error("telegram error", "status", resp.Status())
			return false
		}
	}
	return true
}

func split(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}
	var parts []string
	for len(runes) > 0 {
		n := min(limit, len(runes))
		parts = append(parts, string(runes[:n]))
		runes = runes[n:]
	}
	return parts
}
