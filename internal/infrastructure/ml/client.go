package ml

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"SentimentMonitor/internal/ports"
)

// maxTextRunes caps the text sent per request; the service truncates anyway.
const maxTextRunes = 2000

// Client talks to an external sentiment scoring service.
type Client struct {
	endpoint string
	apiKey   string
	http     *resty.Client
}

var _ ports.SentimentModel = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		http:     resty.New().SetTimeout(15 * time.Second),
	}
}

// Score posts the text and returns the positive-class probability.
func (c *Client) Score(ctx context.Context, text string) (float64, error) {
	if c.endpoint == "" {
		return 0, errors.New("sentiment endpoint not configured")
	}

	if r := []rune(text); len(r) > maxTextRunes {
		text = string(r[:maxTextRunes])
	}

	var resp struct {
		Score *float64 `json:"score"`
	}
	if err := c.post(ctx, "/sentiment", map[string]any{"text": text}, &resp); err != nil {
		return 0, err
	}
	if resp.Score == nil {
		return 0, errors.New("sentiment response missing score")
	}

	return *resp.Score, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload)
	if c.apiKey != "" {
		req.SetAuthToken(c.apiKey)
	}
	if v != nil {
		req.SetResult(v)
	}

	resp, err := req.Post(c.endpoint + path)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("unexpected status %s", resp.Status())
	}

	return nil
}
