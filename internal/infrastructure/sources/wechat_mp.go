package sources

import (
	"context"
	"fmt"
	"log/slog"

	"SentimentMonitor/internal/domain"
	"SentimentMonitor/internal/extract"
	"SentimentMonitor/internal/scanner"
)

const (
	mpBaseURL    = "https://mp.weixin.qq.com"
	MPSessionKey = "wechat_mp"
)

var mpNextPage = []string{"a#sogou_next", ".p-next", `a:contains("下一页")`}

// WechatMP searches official-account articles through a logged-in browser
// session, newest first, paging by following the next link.
type WechatMP struct {
	browser   Browser
	extractor *extract.Extractor
	session   session
	pacer     *scanner.Pacer
	logger    *slog.Logger
	loggedIn  bool
}

var (
	_ scanner.Source        = (*WechatMP)(nil)
	_ scanner.SessionHolder = (*WechatMP)(nil)
)

// NewWechatMP wires the adapter to a browser and credential store.
func NewWechatMP(browser Browser, opts Options) *WechatMP {
	authors := extract.TextSelectors(
		"a.account",
		"div.s-p a:first-of-type",
		"p.s-p a",
		".account",
		`a[uigs*="account"]`,
	)
	times := append(
		extract.TextSelectors("span.s2", "div.s-p span", "span.time", `span[class*="time"]`, ".s-p > span:last-child"),
		extract.Attr("div.s-p", "t"),
	)
	return &WechatMP{
		browser:   browser,
		extractor: newSogouExtractor(domain.SourceOfficialAccount, authors, times, opts.Now),
		session:   session{store: opts.Store, key: MPSessionKey, site: mpBaseURL, browser: browser},
		pacer:     opts.Pacer,
		logger:    opts.logger("source.wechat_mp"),
	}
}

// Name identifies the adapter's source shape.
func (w *WechatMP) Name() domain.Source {
	return domain.SourceOfficialAccount
}

// LoadSession applies persisted cookies; without them Search refuses to run.
func (w *WechatMP) LoadSession(ctx context.Context) error {
	loaded, err := w.session.load(ctx)
	if err != nil {
		return err
	}
	w.loggedIn = loaded
	w.logger.Info("session loaded", "logged_in", loaded)
	return nil
}

// SaveSession persists the browser's cookies.
func (w *WechatMP) SaveSession(ctx context.Context) error {
	return w.session.save(ctx)
}

// Search walks up to maxUnits pages of time-sorted results for term.
func (w *WechatMP) Search(ctx context.Context, term string, maxUnits int) ([]domain.Record, error) {
	if err := scanner.CheckUnits(maxUnits); err != nil {
		return nil, err
	}
	if !w.loggedIn {
		return nil, fmt.Errorf("official account search %q: %w", term, domain.ErrNotLoggedIn)
	}
	if maxUnits == 0 {
		return nil, nil
	}

	if err := w.browser.Open(ctx, sogouPageURL(term, 0, true)); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		w.logger.Warn("search page failed", "term", term, "error", err)
		return nil, nil
	}

	c := newCollector()
	for page := range maxUnits {
		if challenged(w.browser.URL(), w.browser.HTML()) {
			w.logger.Warn("verification challenge, stopping", "term", term, "page", page+1, "url", w.browser.URL(), "error", domain.ErrChallenge)
			break
		}

		records, err := extractAll(w.browser.HTML(), w.extractor, term, sogouItems)
		if err != nil {
			w.logger.Warn("page parse failed", "term", term, "page", page+1, "error", err)
			break
		}
		added := c.add(records)
		w.logger.Debug("page collected", "term", term, "page", page+1, "new", added, "total", len(c.records))
		if added == 0 && page > 0 {
			break
		}
		if page == maxUnits-1 {
			break
		}

		if err := w.pacer.Wait(ctx); err != nil {
			return c.records, err
		}
		followed, err := w.browser.Follow(ctx, mpNextPage...)
		if err != nil {
			if ctx.Err() != nil {
				return c.records, ctx.Err()
			}
			w.logger.Warn("next page failed", "term", term, "page", page+1, "error", err)
			break
		}
		if !followed {
			break
		}
	}
	return c.records, nil
}
