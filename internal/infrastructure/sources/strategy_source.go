package sources

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"SentimentMonitor/internal/domain"
	"SentimentMonitor/internal/scanner"
)

// StrategySource runs registered adapters for a set of terms. Platforms run
// concurrently; each adapter stays sequential inside.
type StrategySource struct {
	registry *scanner.Registry
	pacer    *scanner.Pacer
	logger   *slog.Logger
}

// NewStrategySource wires the adapter registry with the between-term pacer.
func NewStrategySource(reg *scanner.Registry, pacer *scanner.Pacer, log *slog.Logger) *StrategySource {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &StrategySource{registry: reg, pacer: pacer, logger: log}
}

// Collect searches every platform key in keys and concatenates results in key order.
// A platform failure is reported in its PlatformResult and never aborts the others.
func (s *StrategySource) Collect(ctx context.Context, keys, terms []string, maxUnits int) ([]domain.Record, []domain.PlatformResult) {
	if err := scanner.CheckUnits(maxUnits); err != nil {
		results := make([]domain.PlatformResult, 0, len(keys))
		for _, key := range keys {
			results = append(results, domain.PlatformResult{Key: key, Err: err})
		}
		return nil, results
	}

	s.logger.Debug("collect", "platforms", len(keys), "terms", len(terms), "max_units", maxUnits)

	perKey := make([][]domain.Record, len(keys))
	results := make([]domain.PlatformResult, len(keys))
	var wg sync.WaitGroup
	for i, key := range keys {
		results[i].Key = key
		src, err := s.registry.Resolve(key)
		if err != nil {
			results[i].Err = err
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			perKey[i], results[i].Err = s.collectOne(ctx, key, src, terms, maxUnits)
			results[i].Records = len(perKey[i])
		}()
	}
	wg.Wait()

	var aggregated []domain.Record
	for i, res := range results {
		if res.Err != nil {
			s.logger.Error("platform failed", "platform", res.Key, "error", res.Err)
		} else {
			s.logger.Info("platform collected", "platform", res.Key, "records", res.Records)
		}
		aggregated = append(aggregated, perKey[i]...)
	}

	s.logger.Debug("strategy source done", "total_records", len(aggregated))
	return aggregated, results
}

// collectOne brackets the search with session load and save for adapters that hold one.
func (s *StrategySource) collectOne(ctx context.Context, key string, src scanner.Source, terms []string, maxUnits int) ([]domain.Record, error) {
	logger := s.logger.With("platform", key)

	holder, hasSession := src.(scanner.SessionHolder)
	if hasSession {
		if err := holder.LoadSession(ctx); err != nil {
			logger.Warn("load session failed", "error", err)
		}
	}

	records, err := scanner.SearchMany(ctx, src, terms, maxUnits, s.pacer, logger)

	if hasSession {
		if saveErr := holder.SaveSession(ctx); saveErr != nil {
			logger.Warn("save session failed", "error", saveErr)
		}
	}
	if err != nil {
		return records, fmt.Errorf("platform %s: %w", key, err)
	}
	return records, nil
}
