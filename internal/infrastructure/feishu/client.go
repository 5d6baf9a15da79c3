package feishu

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the open platform API root.
const DefaultBaseURL = "https://open.feishu.cn/open-apis"

// envelope is the common shape of every open platform response.
type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e envelope) err(op string) error {
	if e.Code == 0 {
		return nil
	}
	return fmt.Errorf("%s: code %d: %s", op, e.Code, e.Msg)
}

// tokenSource fetches and caches a tenant access token.
type tokenSource struct {
	http      *resty.Client
	baseURL   string
	appID     string
	appSecret string
	now       func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

func newTokenSource(http *resty.Client, baseURL, appID, appSecret string) *tokenSource {
	return &tokenSource{
		http:      http,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		appID:     appID,
		appSecret: appSecret,
		now:       time.Now,
	}
}

// Token returns a cached token until one minute before it expires.
func (s *tokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expires) {
		return s.token, nil
	}

	var out struct {
		envelope
		TenantAccessToken string `json:"tenant_access_token"`
		Expire            int    `json:"expire"`
	}
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"app_id": s.appID, "app_secret": s.appSecret}).
		SetResult(&out).
		Post(s.baseURL + "/auth/v3/tenant_access_token/internal")
	if err != nil {
		return "", fmt.Errorf("tenant token: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("tenant token: unexpected status %s", resp.Status())
	}
	if err := out.err("tenant token"); err != nil {
		return "", err
	}

	ttl := time.Duration(out.Expire)*time.Second - time.Minute
	if ttl <= 0 {
		ttl = time.Minute
	}
	s.token = out.TenantAccessToken
	s.expires = s.now().Add(ttl)
	return s.token, nil
}
