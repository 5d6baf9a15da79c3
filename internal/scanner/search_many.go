package scanner

import (
	"context"
	"log/slog"

	"SentimentMonitor/internal/domain"
)

// SearchMany runs src for each term in order, keeping the first record seen per URL.
// A failing term is logged and skipped; only a negative maxUnits or a cancelled
// context stops the batch.
func SearchMany(ctx context.Context, src Source, terms []string, maxUnits int, pacer *Pacer, logger *slog.Logger) ([]domain.Record, error) {
	if err := CheckUnits(maxUnits); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var (
		collected []domain.Record
		seen      = map[string]struct{}{}
	)

	for i, term := range terms {
		if i > 0 {
			if err := pacer.Delay(ctx); err != nil {
				return collected, err
			}
		}

		logger.Info("search term", "source", src.Name(), "term", term)
		records, err := src.Search(ctx, term, maxUnits)
		if err != nil {
			logger.Error("search term failed", "source", src.Name(), "term", term, "error", err)
			if ctx.Err() != nil {
				return collected, ctx.Err()
			}
			continue
		}

		added := 0
		for _, rec := range records {
			if _, dup := seen[rec.URL]; dup {
				continue
			}
			seen[rec.URL] = struct{}{}
			collected = append(collected, rec)
			added++
		}
		logger.Debug("term collected", "source", src.Name(), "term", term, "records", len(records), "new", added)
	}

	logger.Info("search batch done", "source", src.Name(), "terms", len(terms), "records", len(collected))
	return collected, nil
}
