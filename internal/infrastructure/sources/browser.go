package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Browser is the page-level surface adapters drive. One Browser belongs to one
// adapter for its lifetime and is not shared.
type Browser interface {
	Open(ctx context.Context, rawURL string) error
	// URL is the address of the current page after redirects.
	URL() string
	HTML() string
	// Scroll asks the page for more content.
	Scroll(ctx context.Context) error
	// Follow opens the first link matching any selector; false means none matched.
	Follow(ctx context.Context, selectors ...string) (bool, error)
	Cookies(site string) []*http.Cookie
	SetCookies(site string, cookies []*http.Cookie)
}

// HTTPBrowser is a Browser over plain HTTP requests. Scrolling re-fetches the
// current page, which suits server-rendered listings.
type HTTPBrowser struct {
	client *resty.Client

	mu      sync.Mutex
	current string
	html    string
}

var _ Browser = (*HTTPBrowser)(nil)

// NewHTTPBrowser configures a resty client with a cookie jar; a nil client gets a fresh one.
func NewHTTPBrowser(client *resty.Client, timeout time.Duration, userAgent string) *HTTPBrowser {
	if client == nil {
		client = resty.New()
	}
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	return &HTTPBrowser{client: client}
}

// Open fetches rawURL and makes it the current page.
func (b *HTTPBrowser) Open(ctx context.Context, rawURL string) error {
	resp, err := b.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return fmt.Errorf("open %s: %w", rawURL, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("open %s: status %s", rawURL, resp.Status())
	}

	final := rawURL
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		final = raw.Request.URL.String()
	}

	b.mu.Lock()
	b.current = final
	b.html = resp.String()
	b.mu.Unlock()
	return nil
}

// URL returns the current page address.
func (b *HTTPBrowser) URL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// HTML returns the current page body.
func (b *HTTPBrowser) HTML() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.html
}

// Scroll re-fetches the current page.
func (b *HTTPBrowser) Scroll(ctx context.Context) error {
	current := b.URL()
	if current == "" {
		return fmt.Errorf("scroll: no page open")
	}
	return b.Open(ctx, current)
}

// Follow resolves the first matching anchor against the current page and opens it.
func (b *HTTPBrowser) Follow(ctx context.Context, selectors ...string) (bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(b.HTML()))
	if err != nil {
		return false, fmt.Errorf("parse page: %w", err)
	}

	for _, sel := range selectors {
		href, ok := doc.Find(sel).First().Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" || strings.HasPrefix(href, "javascript:") {
			continue
		}
		next, err := resolveAgainst(b.URL(), href)
		if err != nil {
			return false, err
		}
		return true, b.Open(ctx, next)
	}
	return false, nil
}

// Cookies returns the jar's cookies for site.
func (b *HTTPBrowser) Cookies(site string) []*http.Cookie {
	jar := b.client.GetClient().Jar
	u, err := url.Parse(site)
	if jar == nil || err != nil {
		return nil
	}
	return jar.Cookies(u)
}

// SetCookies stores cookies in the jar for site.
func (b *HTTPBrowser) SetCookies(site string, cookies []*http.Cookie) {
	jar := b.client.GetClient().Jar
	u, err := url.Parse(site)
	if jar == nil || err != nil {
		return
	}
	jar.SetCookies(u, cookies)
}

// Location issues one request without following redirects and returns the
// redirect target, or rawURL when the response is not a redirect.
func (b *HTTPBrowser) Location(ctx context.Context, rawURL string) (string, error) {
	noFollow := resty.NewWithClient(&http.Client{
		Jar:       b.client.GetClient().Jar,
		Timeout:   b.client.GetClient().Timeout,
		Transport: b.client.GetClient().Transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	})
	noFollow.SetHeaders(map[string]string{"User-Agent": b.client.Header.Get("User-Agent")})

	resp, err := noFollow.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return rawURL, fmt.Errorf("resolve %s: %w", rawURL, err)
	}
	switch resp.StatusCode() {
	case http.StatusMovedPermanently, http.StatusFound:
		if loc := resp.Header().Get("Location"); loc != "" {
			return loc, nil
		}
	}
	return rawURL, nil
}

func resolveAgainst(base, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse link %s: %w", href, err)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse page url %s: %w", base, err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}
