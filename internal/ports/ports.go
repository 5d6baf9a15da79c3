package ports

import (
	"context"
	"time"

	"SentimentMonitor/internal/domain"
)

// CredentialStore persists opaque session state (cookies, browser context) keyed by source name.
type CredentialStore interface {
	// Load returns nil state and nil error when nothing was persisted.
	Load(ctx context.Context, source string) ([]byte, error)
	Save(ctx context.Context, source string, state []byte) error
}

// RecordSink stores a deduplicated batch, performing its own existence check by domain.Record.RecordID.
type RecordSink interface {
	UpsertIfNew(ctx context.Context, records []domain.Record) (domain.SinkResult, error)
}

// MessageSink delivers report text to a chat channel (Feishu webhook, Telegram, etc.).
type MessageSink interface {
	Send(ctx context.Context, text string) bool
}

// TextGenerator completes prompts via an LLM API.
type TextGenerator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// SentimentModel scores text in [0,1]; higher is more positive.
type SentimentModel interface {
	Score(ctx context.Context, text string) (float64, error)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// RecordCollector gathers raw records for terms from the named platforms.
// Per-platform failures are reported in the results, never as a call error.
type RecordCollector interface {
	Collect(ctx context.Context, platforms, terms []string, maxUnits int) ([]domain.Record, []domain.PlatformResult)
}
