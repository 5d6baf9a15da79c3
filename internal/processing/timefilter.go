package processing

import (
	"log/slog"
	"time"

	"SentimentMonitor/internal/domain"
)

// TimeStats breaks down a time-filter pass.
type TimeStats struct {
	Kept        int
	TooOld      int
	NoTimestamp int
}

// TimeFilter keeps records published within a rolling window.
type TimeFilter struct {
	hours  int
	logger *slog.Logger
}

// NewTimeFilter builds a filter with a default window in hours.
func NewTimeFilter(hours int, logger *slog.Logger) *TimeFilter {
	return &TimeFilter{hours: hours, logger: orDiscard(logger)}
}

// Hours is the configured default window.
func (f *TimeFilter) Hours() int {
	return f.hours
}

// Filter keeps records with no timestamp or published after ref - maxAgeHours. Order is preserved.
func (f *TimeFilter) Filter(records []domain.Record, maxAgeHours int, ref time.Time) ([]domain.Record, TimeStats) {
	var stats TimeStats
	if len(records) == 0 {
		return nil, stats
	}

	cutoff := ref.Add(-time.Duration(maxAgeHours) * time.Hour)
	kept := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		switch {
		case rec.PublishedAt == nil:
			stats.NoTimestamp++
			kept = append(kept, rec)
		case rec.PublishedAt.After(cutoff):
			kept = append(kept, rec)
		default:
			stats.TooOld++
		}
	}
	stats.Kept = len(kept)

	f.logger.Info("time filter", "kept", stats.Kept, "too_old", stats.TooOld, "no_timestamp", stats.NoTimestamp, "hours", maxAgeHours)
	return kept, stats
}

// FilterRecent applies the configured window.
func (f *TimeFilter) FilterRecent(records []domain.Record, ref time.Time) ([]domain.Record, TimeStats) {
	return f.Filter(records, f.hours, ref)
}

// FilterByDate keeps only records published on day's calendar date; undated records are dropped.
func (f *TimeFilter) FilterByDate(records []domain.Record, day time.Time) []domain.Record {
	y, m, d := day.Date()
	var kept []domain.Record
	for _, rec := range records {
		if rec.PublishedAt == nil {
			continue
		}
		py, pm, pd := rec.PublishedAt.In(day.Location()).Date()
		if py == y && pm == m && pd == d {
			kept = append(kept, rec)
		}
	}
	f.logger.Info("date filter", "day", day.Format("2006-01-02"), "in", len(records), "kept", len(kept))
	return kept
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
