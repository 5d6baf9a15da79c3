package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"SentimentMonitor/internal/domain"
	"SentimentMonitor/internal/extract"
	"SentimentMonitor/internal/scanner"
)

const (
	xhsBaseURL    = "https://www.xiaohongshu.com"
	XHSSessionKey = "xhs"
	// XHSDefaultAuthor is used when a note card carries no author.
	XHSDefaultAuthor = "小红书用户"
)

var (
	xhsItems = []string{
		"section.note-item",
		"div.note-item",
		"a.cover.ld.mask",
		`[class*="note-item"]`,
		"div[data-v-a264b01c]",
	}
	// Embedded state patterns, tried in order when the card DOM yields nothing.
	xhsStateExprs = []*regexp.Regexp{
		regexp.MustCompile(`"noteCard":\s*\{[^}]*?"title":\s*"([^"]+)"[^}]*?"noteId":\s*"([^"]+)"`),
		regexp.MustCompile(`"title":\s*"([^"]{5,})"[^}]*?"id":\s*"([a-z0-9]{24})"`),
	}
)

// XHSNotes crawls Xiaohongshu note search results with scroll iterations.
type XHSNotes struct {
	browser   Browser
	extractor *extract.Extractor
	session   session
	pacer     *scanner.Pacer
	logger    *slog.Logger
	now       func() time.Time
}

var (
	_ scanner.Source        = (*XHSNotes)(nil)
	_ scanner.SessionHolder = (*XHSNotes)(nil)
)

// NewXHSNotes wires the adapter to a browser and optional credential store.
func NewXHSNotes(browser Browser, opts Options) *XHSNotes {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &XHSNotes{
		browser: browser,
		extractor: &extract.Extractor{
			Source:  domain.SourceSocialPlatform,
			BaseURL: xhsBaseURL,
			Title:   extract.TextSelectors(".title", ".note-title", "span.title", ".desc"),
			Link:    extract.Strategies{extract.OwnAttr("href"), extract.Attr("a", "href")},
			Author:  extract.TextSelectors(".author", ".nickname", ".name", ".author-name"),
			Time:    extract.TextSelectors(".time", ".date", `[class*="time"]`),
			Likes: extract.TextSelectors(
				".like-count", ".count", ".like span", `[class*="like"] span`,
			),
			DefaultAuthor: XHSDefaultAuthor,
			AllowUntitled: true,
			Now:           now,
		},
		session: session{store: opts.Store, key: XHSSessionKey, site: xhsBaseURL, browser: browser},
		pacer:   opts.Pacer,
		logger:  opts.logger("source.xhs"),
		now:     now,
	}
}

// Name identifies the adapter's source shape.
func (x *XHSNotes) Name() domain.Source {
	return domain.SourceSocialPlatform
}

// LoadSession applies persisted cookies to the browser.
func (x *XHSNotes) LoadSession(ctx context.Context) error {
	loaded, err := x.session.load(ctx)
	if err != nil {
		return err
	}
	x.logger.Info("session loaded", "cookies", loaded)
	return nil
}

// SaveSession persists the browser's cookies.
func (x *XHSNotes) SaveSession(ctx context.Context) error {
	return x.session.save(ctx)
}

// Search opens the time-sorted result page and scrolls up to maxUnits times.
func (x *XHSNotes) Search(ctx context.Context, term string, maxUnits int) ([]domain.Record, error) {
	if err := scanner.CheckUnits(maxUnits); err != nil {
		return nil, err
	}
	if maxUnits == 0 {
		return nil, nil
	}

	if err := x.browser.Open(ctx, xhsSearchURL(term)); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		x.logger.Warn("search page failed", "term", term, "error", err)
		return nil, nil
	}
	if strings.Contains(strings.ToLower(x.browser.URL()), "login") {
		return nil, fmt.Errorf("xhs search %q: %w", term, domain.ErrNotLoggedIn)
	}

	c := newCollector()
	for i := range maxUnits {
		if challenged(x.browser.URL(), x.browser.HTML()) {
			x.logger.Warn("verification challenge, stopping", "term", term, "iteration", i, "url", x.browser.URL(), "error", domain.ErrChallenge)
			break
		}

		added := c.add(x.parseNotes(term))
		x.logger.Debug("iteration collected", "term", term, "iteration", i, "new", added, "total", len(c.records))
		if added == 0 && i > 0 {
			x.logger.Info("no more notes", "term", term, "iteration", i)
			break
		}
		if i == maxUnits-1 {
			break
		}

		if err := x.pacer.Wait(ctx); err != nil {
			return c.records, err
		}
		if err := x.browser.Scroll(ctx); err != nil {
			if ctx.Err() != nil {
				return c.records, ctx.Err()
			}
			x.logger.Warn("scroll failed", "term", term, "iteration", i, "error", err)
			break
		}
	}
	return c.records, nil
}

func (x *XHSNotes) parseNotes(term string) []domain.Record {
	html := x.browser.HTML()
	records, err := extractAll(html, x.extractor, term, xhsItems)
	if err != nil {
		x.logger.Warn("page parse failed", "term", term, "error", err)
	}
	if len(records) > 0 {
		return records
	}
	return x.parseEmbeddedState(html, term)
}

// parseEmbeddedState recovers notes from the page's serialized state.
func (x *XHSNotes) parseEmbeddedState(html, term string) []domain.Record {
	var (
		records []domain.Record
		seen    = map[string]struct{}{}
		fetched = x.now()
	)
	for _, expr := range xhsStateExprs {
		for _, m := range expr.FindAllStringSubmatch(html, -1) {
			title, id := m[1], m[2]
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			records = append(records, domain.Record{
				Title:      title,
				Author:     XHSDefaultAuthor,
				URL:        xhsBaseURL + "/explore/" + id,
				Source:     domain.SourceSocialPlatform,
				SearchTerm: term,
				FetchedAt:  fetched,
			})
		}
	}
	return records
}

func xhsSearchURL(term string) string {
	q := url.Values{}
	q.Set("keyword", term)
	q.Set("source", "web_search_result_notes")
	q.Set("sort", "time_descending")
	return xhsBaseURL + "/search_result?" + q.Encode()
}
