package report

import (
	"cmp"
	"slices"
	"time"

	"SentimentMonitor/internal/domain"
)

const (
	// TextHighlights is the per-label highlight cap for the plain text report.
	TextHighlights = 3
	// MarkdownHighlights is the per-label highlight cap for the markdown report.
	MarkdownHighlights = 5
)

// Count is one row of a grouping.
type Count struct {
	Name  string
	Count int
}

// Highlight is a record surfaced in the report body.
type Highlight struct {
	Title  string
	Author string
	Term   string
	URL    string
	Score  float64
}

// Model is the aggregated view a report is rendered from.
type Model struct {
	Date        time.Time
	Total       int
	ByPlatform  []Count
	ByTerm      []Count
	BySentiment []Count
	Negative    []Highlight
	Positive    []Highlight
}

// Assemble aggregates records for date with the default highlight cap.
func Assemble(records []domain.Record, date time.Time) Model {
	return AssembleWithLimit(records, date, TextHighlights)
}

// AssembleWithLimit is Assemble with an explicit per-label highlight cap.
// Highlights are the first records encountered, not the highest scored.
func AssembleWithLimit(records []domain.Record, date time.Time, limit int) Model {
	platforms := map[string]int{}
	terms := map[string]int{}
	sentiments := map[string]int{}
	m := Model{Date: date, Total: len(records)}

	for _, rec := range records {
		platforms[rec.Source.DisplayName()]++
		terms[rec.SearchTerm]++
		if rec.Sentiment == nil {
			continue
		}
		sentiments[rec.Sentiment.Label.DisplayName()]++

		switch rec.Sentiment.Label {
		case domain.LabelNegative:
			if len(m.Negative) < limit {
				m.Negative = append(m.Negative, highlightOf(rec))
			}
		case domain.LabelPositive:
			if len(m.Positive) < limit {
				m.Positive = append(m.Positive, highlightOf(rec))
			}
		}
	}

	m.ByPlatform = sortedCounts(platforms)
	m.ByTerm = sortedCounts(terms)
	m.BySentiment = sortedCounts(sentiments)
	return m
}

// CountOf returns the count for name in a grouping, 0 when absent.
func CountOf(counts []Count, name string) int {
	for _, c := range counts {
		if c.Name == name {
			return c.Count
		}
	}
	return 0
}

func highlightOf(rec domain.Record) Highlight {
	return Highlight{
		Title:  rec.Title,
		Author: rec.Author,
		Term:   rec.SearchTerm,
		URL:    rec.URL,
		Score:  rec.Sentiment.Score,
	}
}

func sortedCounts(groups map[string]int) []Count {
	if len(groups) == 0 {
		return nil
	}
	counts := make([]Count, 0, len(groups))
	for name, n := range groups {
		counts = append(counts, Count{Name: name, Count: n})
	}
	slices.SortFunc(counts, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return counts
}
