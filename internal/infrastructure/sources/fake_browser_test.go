package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// fakeBrowser serves canned pages keyed by URL.
type fakeBrowser struct {
	pages    map[string]string
	redirect map[string]string
	fail     map[string]error
	scrolls  []string

	current  string
	html     string
	opened   []string
	scrolled int
	cookies  map[string][]*http.Cookie
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		pages:    map[string]string{},
		redirect: map[string]string{},
		fail:     map[string]error{},
		cookies:  map[string][]*http.Cookie{},
	}
}

func (f *fakeBrowser) Open(_ context.Context, rawURL string) error {
	f.opened = append(f.opened, rawURL)
	if err := f.fail[rawURL]; err != nil {
		return err
	}
	target := rawURL
	if to, ok := f.redirect[rawURL]; ok {
		target = to
	}
	html, ok := f.pages[target]
	if !ok {
		return fmt.Errorf("open %s: status 404", target)
	}
	f.current, f.html = target, html
	return nil
}

func (f *fakeBrowser) URL() string  { return f.current }
func (f *fakeBrowser) HTML() string { return f.html }

func (f *fakeBrowser) Scroll(context.Context) error {
	if f.scrolled >= len(f.scrolls) {
		return errors.New("no more scroll content")
	}
	f.html = f.scrolls[f.scrolled]
	f.scrolled++
	return nil
}

func (f *fakeBrowser) Follow(ctx context.Context, selectors ...string) (bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(f.html))
	if err != nil {
		return false, err
	}
	for _, sel := range selectors {
		if href, ok := doc.Find(sel).First().Attr("href"); ok && href != "" {
			next, err := resolveAgainst(f.current, href)
			if err != nil {
				return false, err
			}
			return true, f.Open(ctx, next)
		}
	}
	return false, nil
}

func (f *fakeBrowser) Cookies(site string) []*http.Cookie { return f.cookies[site] }

func (f *fakeBrowser) SetCookies(site string, cookies []*http.Cookie) {
	f.cookies[site] = append(f.cookies[site], cookies...)
}

// memoryStore is an in-memory credential store.
type memoryStore struct {
	mu    sync.Mutex
	state map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{state: map[string][]byte{}}
}

func (m *memoryStore) Load(_ context.Context, source string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state[source], nil
}

func (m *memoryStore) Save(_ context.Context, source string, state []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state[source] = state
	return nil
}
