package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"SentimentMonitor/internal/infrastructure/credentials"
	"SentimentMonitor/internal/infrastructure/sources"
	"SentimentMonitor/internal/scanner"
)

// CheckItem is one line of the configuration self-test.
type CheckItem struct {
	Name   string
	OK     bool
	Detail string
}

// Check validates configuration and optional collaborators. With probe set it
// also runs a one-page search against the search index.
func (a *Application) Check(ctx context.Context, probe bool) []CheckItem {
	var items []CheckItem
	add := func(name string, ok bool, format string, args ...any) {
		items = append(items, CheckItem{Name: name, OK: ok, Detail: fmt.Sprintf(format, args...)})
	}

	terms := a.cfg.Search.Keywords
	add("keywords", len(terms) > 0, "%s", strings.Join(terms, ", "))

	rules := a.relevanceRules()
	add("relevance rules", len(rules) > 0, "%d terms", len(rules))

	if a.bitable.Configured() {
		add("feishu bitable", true, "table %s", a.cfg.Feishu.Bitable.TableID)
	} else {
		add("feishu bitable", false, "appId, appSecret, bitable.appToken and bitable.tableId are required")
	}
	add("feishu webhook", a.cfg.Feishu.Webhook.URL != "", "%s", configured(a.cfg.Feishu.Webhook.URL != ""))
	add("telegram", a.telegram.Configured(), "%s", configured(a.telegram.Configured()))

	if a.llm.Configured() {
		add("llm", true, "model %s", a.cfg.LLM.Model)
	} else {
		add("llm", false, "apiKey missing, briefings disabled")
	}

	if a.cfg.Sentiment.Endpoint != "" {
		add("sentiment model", true, "service %s", a.cfg.Sentiment.Endpoint)
	} else {
		add("sentiment model", true, "built-in lexicon")
	}

	switch {
	case a.cfg.Storage.DSN == "":
		add("sql storage", false, "dsn not set")
	case a.sqlErr != nil:
		add("sql storage", false, "%v", a.sqlErr)
	default:
		n, err := a.sql.Count(ctx)
		if err != nil {
			add("sql storage", false, "%v", err)
		} else {
			add("sql storage", true, "%s, %d records", a.cfg.Storage.Driver, n)
		}
	}

	store := credentials.NewFileStore(a.cfg.Credentials.Dir)
	for _, s := range []struct{ platform, key string }{
		{PlatformXHS, sources.XHSSessionKey},
		{PlatformMP, sources.MPSessionKey},
	} {
		path := store.Path(s.key)
		_, err := os.Stat(path)
		add("session "+s.platform, err == nil, "%s", path)
	}

	if probe {
		items = append(items, a.probe(ctx))
	}
	return items
}

func (a *Application) probe(ctx context.Context) CheckItem {
	src, err := a.registry.Resolve(PlatformWechat)
	if err != nil {
		return CheckItem{Name: "search probe", Detail: err.Error()}
	}
	term := "Monolith"
	if len(a.cfg.Search.Keywords) > 0 {
		term = a.cfg.Search.Keywords[0]
	}
	records, err := scanner.SearchMany(ctx, src, []string{term}, 1, nil, a.logger)
	if err != nil {
		return CheckItem{Name: "search probe", Detail: err.Error()}
	}
	return CheckItem{Name: "search probe", OK: len(records) > 0, Detail: fmt.Sprintf("%d records for %q", len(records), term)}
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}
