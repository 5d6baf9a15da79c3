package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"SentimentMonitor/internal/config"
	"SentimentMonitor/internal/ports"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("llm client not configured")

// maxErrorDetail caps, in runes, the response text quoted in errors.
const maxErrorDetail = 1024

// Client implements ports.TextGenerator against OpenAI-compatible chat completion APIs.
type Client struct {
	baseURL     string
	model       string
	apiKey      string
	temperature float64
	http        *resty.Client
}

var _ ports.TextGenerator = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClient builds a client from configuration.
func NewClient(cfg config.LLMConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		temperature: cfg.Temperature,
		http:        resty.New().SetTimeout(timeout),
	}
}

// Configured reports whether Complete can be attempted.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != "" && c.baseURL != "" && c.model != ""
}

// Complete sends one system and one user message and returns the trimmed reply.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(chatRequest{
			Model:       c.model,
			Messages:    messages,
			MaxTokens:   maxTokens,
			Temperature: c.temperature,
		}).
		SetResult(&out).
		SetError(&out).
		Post(c.baseURL + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if resp.IsError() {
		detail := strings.TrimSpace(string(resp.Body()))
		if out.Error != nil && out.Error.Message != "" {
			detail = out.Error.Message
		}
		if r := []rune(detail); len(r) > maxErrorDetail {
			detail = string(r[:maxErrorDetail])
		}
		return "", fmt.Errorf("chat completion error %s: %s", resp.Status(), detail)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}

	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
