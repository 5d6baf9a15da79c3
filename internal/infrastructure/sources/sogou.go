package sources

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"sync"
	"time"

	"SentimentMonitor/internal/domain"
	"SentimentMonitor/internal/extract"
	"SentimentMonitor/internal/scanner"
	"SentimentMonitor/internal/textnorm"
)

const (
	sogouBaseURL   = "https://weixin.sogou.com"
	sogouSearchURL = sogouBaseURL + "/weixin"
	// SogouDefaultAuthor is used when no account name can be extracted.
	SogouDefaultAuthor = "未知公众号"
)

var (
	sogouItems      = []string{"ul.news-list > li", "div.txt-box"}
	bareEpochExpr   = regexp.MustCompile(`^\d{10}$`)
	timeConvertExpr = regexp.MustCompile(`timeConvert\(\s*'?\d{10}`)
)

// SogouSearch crawls the Sogou WeChat article search listing page by page.
type SogouSearch struct {
	browser   Browser
	extractor *extract.Extractor
	pacer     *scanner.Pacer
	logger    *slog.Logger

	warmOnce sync.Once
}

var _ scanner.Source = (*SogouSearch)(nil)

// NewSogouSearch wires the adapter to a browser.
func NewSogouSearch(browser Browser, opts Options) *SogouSearch {
	return &SogouSearch{
		browser:   browser,
		extractor: newSogouExtractor(domain.SourceSearchIndex, sogouSearchAuthors(), sogouSearchTimes(), opts.Now),
		pacer:     opts.Pacer,
		logger:    opts.logger("source.sogou"),
	}
}

// Name identifies the adapter's source shape.
func (s *SogouSearch) Name() domain.Source {
	return domain.SourceSearchIndex
}

// Search walks up to maxUnits result pages for term.
func (s *SogouSearch) Search(ctx context.Context, term string, maxUnits int) ([]domain.Record, error) {
	if err := scanner.CheckUnits(maxUnits); err != nil {
		return nil, err
	}
	if maxUnits == 0 {
		return nil, nil
	}
	s.warmUp(ctx)

	c := newCollector()
	for page := 1; page <= maxUnits; page++ {
		if page > 1 {
			if err := s.pacer.Wait(ctx); err != nil {
				return c.records, err
			}
		}

		if err := s.browser.Open(ctx, sogouPageURL(term, page, false)); err != nil {
			if ctx.Err() != nil {
				return c.records, ctx.Err()
			}
			s.logger.Warn("page fetch failed", "term", term, "page", page, "error", err)
			break
		}
		if challenged(s.browser.URL(), s.browser.HTML()) {
			s.logger.Warn("verification challenge, stopping", "term", term, "page", page, "url", s.browser.URL(), "error", domain.ErrChallenge)
			break
		}

		records, err := extractAll(s.browser.HTML(), s.extractor, term, sogouItems)
		if err != nil {
			s.logger.Warn("page parse failed", "term", term, "page", page, "error", err)
			break
		}
		added := c.add(records)
		s.logger.Debug("page collected", "term", term, "page", page, "new", added, "total", len(c.records))
		if added == 0 {
			s.logger.Info("no more results", "term", term, "page", page)
			break
		}
	}
	return c.records, nil
}

// RealURL resolves a Sogou redirect link to the article address with a single
// non-following request. Errors fall back to the input.
func (s *SogouSearch) RealURL(ctx context.Context, sogouURL string) string {
	resolver, ok := s.browser.(interface {
		Location(ctx context.Context, rawURL string) (string, error)
	})
	if !ok {
		return sogouURL
	}
	target, err := resolver.Location(ctx, sogouURL)
	if err != nil {
		s.logger.Warn("resolve real url failed", "url", sogouURL, "error", err)
		return sogouURL
	}
	return target
}

// warmUp visits the home page once so the jar carries Sogou's cookies.
func (s *SogouSearch) warmUp(ctx context.Context) {
	s.warmOnce.Do(func() {
		if err := s.browser.Open(ctx, sogouBaseURL); err != nil {
			s.logger.Warn("session warm-up failed", "error", err)
		}
	})
}

func sogouPageURL(term string, page int, byTime bool) string {
	q := url.Values{}
	q.Set("type", "2")
	q.Set("query", term)
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if byTime {
		q.Set("sort", "1")
	}
	return sogouSearchURL + "?" + q.Encode()
}

func newSogouExtractor(src domain.Source, authors, times extract.Strategies, now func() time.Time) *extract.Extractor {
	return &extract.Extractor{
		Source:        src,
		BaseURL:       sogouBaseURL,
		Title:         extract.TextSelectors("h3 a", "a.tit"),
		Link:          extract.Strategies{extract.Attr("h3 a", "href"), extract.Attr("a.tit", "href")},
		Author:        authors,
		Summary:       extract.TextSelectors("p.txt-info", "p.content"),
		Time:          times,
		DefaultAuthor: SogouDefaultAuthor,
		ParseTime:     parseSogouTime,
		Now:           now,
	}
}

func sogouSearchAuthors() extract.Strategies {
	return extract.TextSelectors(
		"a.account",
		"div.s-p a:first-of-type",
		"p.s-p a:first-of-type",
		".account",
		`a[uigs*="account"]`,
		"div.s-p a",
		"span.all-time-y2",
		"a[data-z]",
	)
}

func sogouSearchTimes() extract.Strategies {
	return append(
		extract.TextSelectors("span.s2", "div.s-p span:last-child", "span.time"),
		extract.Attr("span[data-lastmodified]", "data-lastmodified"),
		extract.Attr("div.s-p", "t"),
	)
}

// parseSogouTime reads the unix timestamps Sogou renders through scripts and
// attributes before falling back to display text.
func parseSogouTime(text string, ref time.Time) (time.Time, bool) {
	if bareEpochExpr.MatchString(text) || timeConvertExpr.MatchString(text) {
		return textnorm.ParseEpoch(text, ref.Location())
	}
	return textnorm.ParseTime(text, ref)
}
