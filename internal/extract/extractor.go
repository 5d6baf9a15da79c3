package extract

import (
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"SentimentMonitor/internal/domain"
	"SentimentMonitor/internal/textnorm"
)

const (
	maxAuthorRunes   = 50
	defaultClockSkew = 5 * time.Minute
)

// UntitledPlaceholder is the title given to link-only items when an extractor allows them.
const UntitledPlaceholder = "无标题"

// Extractor holds the per-field strategy lists for one source shape.
type Extractor struct {
	Source  domain.Source
	BaseURL string

	Title   Strategies
	Link    Strategies
	Author  Strategies
	Summary Strategies
	Time    Strategies

	Likes    Strategies
	Comments Strategies
	Shares   Strategies

	// DefaultAuthor replaces an unresolved author; empty means domain.UnknownAuthor.
	DefaultAuthor string
	// AllowUntitled keeps link-only items under UntitledPlaceholder.
	AllowUntitled bool
	// ParseTime defaults to textnorm.ParseTime.
	ParseTime func(text string, ref time.Time) (time.Time, bool)
	// Now defaults to time.Now.
	Now func() time.Time

	mu          sync.Mutex
	lastFetched time.Time
}

// Extract builds a record from one item fragment. It reports false when the
// fragment does not carry enough to identify a record; it never panics on
// missing elements.
func (e *Extractor) Extract(item *goquery.Selection, term string) (domain.Record, bool) {
	if item == nil || item.Length() == 0 {
		return domain.Record{}, false
	}

	title := e.Title.First(item, nil)
	link := e.resolve(e.Link.First(item, nil))

	if title == "" && link == "" {
		return domain.Record{}, false
	}
	if title == "" {
		if !e.AllowUntitled {
			return domain.Record{}, false
		}
		title = UntitledPlaceholder
	}
	if link == "" {
		return domain.Record{}, false
	}

	fetchedAt := e.fetchTime()

	author := e.Author.First(item, PlausibleAuthor)
	if author == "" {
		author = e.DefaultAuthor
		if author == "" {
			author = domain.UnknownAuthor
		}
	}

	record := domain.Record{
		Title:      title,
		Author:     author,
		Content:    e.Summary.First(item, nil),
		URL:        link,
		Source:     e.Source,
		SearchTerm: term,
		FetchedAt:  fetchedAt,
		Engagement: domain.Engagement{
			Likes:    textnorm.ParseCount(e.Likes.First(item, nil)),
			Comments: textnorm.ParseCount(e.Comments.First(item, nil)),
			Shares:   textnorm.ParseCount(e.Shares.First(item, nil)),
		},
	}

	if published, ok := e.publishedAt(item, fetchedAt); ok {
		record.PublishedAt = &published
	}

	return record, true
}

// PlausibleAuthor guards against selectors that collide with the timestamp or body text.
func PlausibleAuthor(value string) bool {
	return utf8.RuneCountInString(value) < maxAuthorRunes && !textnorm.LooksLikeTime(value)
}

func (e *Extractor) publishedAt(item *goquery.Selection, ref time.Time) (time.Time, bool) {
	parse := e.ParseTime
	if parse == nil {
		parse = textnorm.ParseTime
	}

	var published time.Time
	found := e.Time.First(item, func(text string) bool {
		parsed, ok := parse(text, ref)
		if ok {
			published = parsed
		}
		return ok
	})
	if found == "" {
		return time.Time{}, false
	}
	return textnorm.ClampFuture(published, ref, defaultClockSkew), true
}

// fetchTime never goes backwards for one extractor.
func (e *Extractor) fetchTime() time.Time {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	t := now()

	e.mu.Lock()
	defer e.mu.Unlock()
	if t.Before(e.lastFetched) {
		t = e.lastFetched
	}
	e.lastFetched = t
	return t
}

func (e *Extractor) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(e.BaseURL)
	if err != nil || e.BaseURL == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return strings.TrimSuffix(e.BaseURL, "/") + href
	}
	return base.ResolveReference(ref).String()
}
