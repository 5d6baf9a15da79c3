package processing

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"SentimentMonitor/internal/domain"
	"SentimentMonitor/internal/ports"
)

// SentimentStats aggregates a scoring batch for reporting.
type SentimentStats struct {
	Positive int
	Negative int
	Neutral  int
	Total    int
	Failed   int
	Average  float64
}

// SentimentScorer delegates numeric scoring to a model and derives labels from thresholds.
type SentimentScorer struct {
	model    ports.SentimentModel
	positive float64
	negative float64
	logger   *slog.Logger
}

// NewSentimentScorer wires a model; zero thresholds fall back to 0.6 / 0.4.
func NewSentimentScorer(model ports.SentimentModel, positive, negative float64, logger *slog.Logger) *SentimentScorer {
	if positive <= 0 {
		positive = domain.DefaultPositiveThreshold
	}
	if negative <= 0 {
		negative = domain.DefaultNegativeThreshold
	}
	return &SentimentScorer{
		model:    model,
		positive: positive,
		negative: negative,
		logger:   orDiscard(logger),
	}
}

// Score returns (neutral, 0.5) for blank text or any model failure.
func (s *SentimentScorer) Score(ctx context.Context, text string) domain.Sentiment {
	sentiment, _ := s.score(ctx, text)
	return sentiment
}

// score reports false when the model errored or answered out of range.
func (s *SentimentScorer) score(ctx context.Context, text string) (domain.Sentiment, bool) {
	if strings.TrimSpace(text) == "" || s.model == nil {
		return domain.Neutral(), true
	}

	score, err := s.model.Score(ctx, text)
	if err != nil {
		s.logger.Error("sentiment scoring failed", "error", err)
		return domain.Neutral(), false
	}
	if math.IsNaN(score) || score < 0 || score > 1 {
		s.logger.Warn("sentiment score out of range", "score", score)
		return domain.Neutral(), false
	}

	score = math.Round(score*10000) / 10000
	return domain.Sentiment{
		Label: domain.LabelFor(score, s.positive, s.negative),
		Score: score,
	}, true
}

// ScoreRecord scores title and summary together and returns an augmented copy.
func (s *SentimentScorer) ScoreRecord(ctx context.Context, rec domain.Record) domain.Record {
	return rec.WithSentiment(s.Score(ctx, scoringText(rec)))
}

func scoringText(rec domain.Record) string {
	return rec.Title + " " + rec.Content
}

// ScoreMany scores every record in order; failures degrade per record and are counted in Failed.
func (s *SentimentScorer) ScoreMany(ctx context.Context, records []domain.Record) ([]domain.Record, SentimentStats) {
	s.logger.Info("sentiment scoring started", "records", len(records))

	scored := make([]domain.Record, 0, len(records))
	failed := 0
	for i, rec := range records {
		sentiment, ok := s.score(ctx, scoringText(rec))
		if !ok {
			failed++
		}
		scored = append(scored, rec.WithSentiment(sentiment))
		if (i+1)%20 == 0 {
			s.logger.Debug("sentiment progress", "done", i+1, "total", len(records))
		}
	}

	stats := Statistics(scored)
	stats.Failed = failed
	s.logger.Info("sentiment scoring done",
		"positive", stats.Positive, "negative", stats.Negative, "neutral", stats.Neutral,
		"failed", stats.Failed, "avg", stats.Average)
	return scored, stats
}

// Statistics counts labels; unscored records count as neutral.
func Statistics(records []domain.Record) SentimentStats {
	stats := SentimentStats{Total: len(records)}
	var total float64
	for _, rec := range records {
		if rec.Sentiment == nil {
			stats.Neutral++
			continue
		}
		switch rec.Sentiment.Label {
		case domain.LabelPositive:
			stats.Positive++
		case domain.LabelNegative:
			stats.Negative++
		default:
			stats.Neutral++
		}
		total += rec.Sentiment.Score
	}
	if len(records) > 0 {
		stats.Average = math.Round(total/float64(len(records))*10000) / 10000
	}
	return stats
}
