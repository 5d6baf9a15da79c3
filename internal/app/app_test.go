package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SentimentMonitor/internal/config"
	"SentimentMonitor/internal/domain"
	"SentimentMonitor/internal/logging"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	cfg.Credentials.Dir = t.TempDir()
	cfg.Feishu = config.FeishuConfig{}
	cfg.Notifications = config.NotificationConfig{}
	cfg.LLM.APIKey = ""
	cfg.Storage.DSN = ""
	cfg.Sentiment.Endpoint = ""
	return cfg
}

func findItem(t *testing.T, items []CheckItem, name string) CheckItem {
	t.Helper()
	for _, it := range items {
		if it.Name == name {
			return it
		}
	}
	t.Fatalf("check item %q missing", name)
	return CheckItem{}
}

func TestPlatforms(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Platforms.Enabled = []string{PlatformWechat, PlatformXHS}
	a := New(context.Background(), cfg, logging.Discard())
	t.Cleanup(func() { _ = a.Close() })

	keys, err := a.Platforms(PlatformAll)
	require.NoError(t, err)
	assert.Equal(t, []string{PlatformWechat, PlatformXHS}, keys)

	keys, err = a.Platforms(PlatformMP)
	require.NoError(t, err)
	assert.Equal(t, []string{PlatformMP}, keys)

	_, err = a.Platforms("weibo")
	assert.ErrorIs(t, err, ErrUnknownPlatform)

	a.cfg.Platforms.Enabled = nil
	keys, err = a.Platforms("")
	require.NoError(t, err)
	assert.Equal(t, []string{PlatformMP, PlatformWechat, PlatformXHS}, keys)
}

func TestRegistryCapsScrolls(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Search.MaxScrolls = 2
	a := New(context.Background(), cfg, logging.Discard())

	src, err := a.registry.Resolve(PlatformXHS)
	require.NoError(t, err)
	capped, ok := src.(*scrollCapped)
	require.True(t, ok)
	assert.Equal(t, 2, capped.maxScrolls)
	assert.Equal(t, domain.SourceSocialPlatform, capped.Name())
}

func TestCheckReportsCollaborators(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Storage = config.StorageConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "records.db")}
	cfg.LLM.APIKey = "sk-test"
	a := New(context.Background(), cfg, logging.Discard())
	t.Cleanup(func() { _ = a.Close() })

	items := a.Check(context.Background(), false)

	assert.True(t, findItem(t, items, "keywords").OK)
	assert.True(t, findItem(t, items, "relevance rules").OK)
	assert.False(t, findItem(t, items, "feishu bitable").OK)
	assert.False(t, findItem(t, items, "feishu webhook").OK)
	assert.True(t, findItem(t, items, "llm").OK)
	assert.Equal(t, "built-in lexicon", findItem(t, items, "sentiment model").Detail)

	sql := findItem(t, items, "sql storage")
	assert.True(t, sql.OK)
	assert.Contains(t, sql.Detail, "0 records")

	assert.False(t, findItem(t, items, "session xhs").OK)
}

func TestCheckReportsBrokenStorage(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Storage = config.StorageConfig{Driver: "oracle", DSN: "x"}
	a := New(context.Background(), cfg, logging.Discard())

	sql := findItem(t, a.Check(context.Background(), false), "sql storage")
	assert.False(t, sql.OK)
	assert.Contains(t, sql.Detail, "unknown storage driver")
}
