package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"SentimentMonitor/internal/ports"
)

type storedCookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain,omitempty"`
	Path   string `json:"path,omitempty"`
}

// session moves a browser's cookies for one site in and out of a credential store.
type session struct {
	store   ports.CredentialStore
	key     string
	site    string
	browser Browser
}

// load reports whether any persisted cookies were applied.
func (s session) load(ctx context.Context) (bool, error) {
	if s.store == nil {
		return false, nil
	}
	state, err := s.store.Load(ctx, s.key)
	if err != nil {
		return false, fmt.Errorf("load %s session: %w", s.key, err)
	}
	if len(state) == 0 {
		return false, nil
	}

	var stored []storedCookie
	if err := json.Unmarshal(state, &stored); err != nil {
		return false, fmt.Errorf("decode %s session: %w", s.key, err)
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		if c.Name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path})
	}
	s.browser.SetCookies(s.site, cookies)
	return len(cookies) > 0, nil
}

// save leaves the stored state untouched when the jar holds nothing for the site.
func (s session) save(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	cookies := s.browser.Cookies(s.site)
	if len(cookies) == 0 {
		return nil
	}
	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path})
	}
	state, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s session: %w", s.key, err)
	}
	if err := s.store.Save(ctx, s.key, state); err != nil {
		return fmt.Errorf("save %s session: %w", s.key, err)
	}
	return nil
}

// challenged detects anti-bot verification pages.
func challenged(pageURL, html string) bool {
	return strings.Contains(pageURL, "antispider") ||
		strings.Contains(html, "验证码") ||
		strings.Contains(html, "antispider")
}
