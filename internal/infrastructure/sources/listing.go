package sources

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"SentimentMonitor/internal/domain"
	"SentimentMonitor/internal/extract"
	"SentimentMonitor/internal/ports"
	"SentimentMonitor/internal/scanner"
)

// Options carries the collaborators every adapter shares.
type Options struct {
	Pacer  *scanner.Pacer
	Store  ports.CredentialStore
	Logger *slog.Logger
	// Now overrides the extraction clock.
	Now func() time.Time
}

func (o Options) logger(component string) *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger.With("component", component)
}

// extractAll parses html and extracts every item of the first matching list selector.
func extractAll(html string, ex *extract.Extractor, term string, itemSelectors []string) ([]domain.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var records []domain.Record
	extract.Items(doc.Selection, itemSelectors...).Each(func(_ int, item *goquery.Selection) {
		if rec, ok := ex.Extract(item, term); ok {
			records = append(records, rec)
		}
	})
	return records, nil
}

// collector keeps the first record per URL within one Search call.
type collector struct {
	seen    map[string]struct{}
	records []domain.Record
}

func newCollector() *collector {
	return &collector{seen: map[string]struct{}{}}
}

// add appends unseen records and returns how many were new.
func (c *collector) add(records []domain.Record) int {
	added := 0
	for _, rec := range records {
		if _, dup := c.seen[rec.URL]; dup {
			continue
		}
		c.seen[rec.URL] = struct{}{}
		c.records = append(c.records, rec)
		added++
	}
	return added
}
