package processing

import (
	"sync"

	"SentimentMonitor/internal/domain"
)

// DedupProcessor drops records already seen by URL or by content fingerprint.
// Seen-state lives as long as the instance.
type DedupProcessor struct {
	mu         sync.Mutex
	seenURLs   map[string]struct{}
	seenHashes map[string]struct{}
}

// NewDedupProcessor returns a processor with empty seen-state.
func NewDedupProcessor() *DedupProcessor {
	return &DedupProcessor{
		seenURLs:   map[string]struct{}{},
		seenHashes: map[string]struct{}{},
	}
}

// Deduplicate keeps first occurrences in input order and records both fingerprints of each kept record.
func (d *DedupProcessor) Deduplicate(records []domain.Record) []domain.Record {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.seenURLs == nil {
		d.seenURLs = map[string]struct{}{}
	}
	if d.seenHashes == nil {
		d.seenHashes = map[string]struct{}{}
	}

	unique := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		urlHash := rec.URLFingerprint()
		if _, ok := d.seenURLs[urlHash]; ok {
			continue
		}
		contentHash := rec.ContentFingerprint()
		if _, ok := d.seenHashes[contentHash]; ok {
			continue
		}
		d.seenURLs[urlHash] = struct{}{}
		d.seenHashes[contentHash] = struct{}{}
		unique = append(unique, rec)
	}
	return unique
}

// Reset clears all seen-state.
func (d *DedupProcessor) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.seenURLs)
	clear(d.seenHashes)
}

// Seen reports how many distinct URLs have been accepted.
func (d *DedupProcessor) Seen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seenURLs)
}
