package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"SentimentMonitor/internal/app"
	"SentimentMonitor/internal/domain"
	"SentimentMonitor/internal/processing"
	"SentimentMonitor/internal/usecase"
)

func TestRenderSummary(t *testing.T) {
	rec := domain.Record{
		Title:      "砺思资本完成新基金募集",
		Author:     "投资界",
		URL:        "https://mp.weixin.qq.com/s/1",
		Source:     domain.SourceSearchIndex,
		SearchTerm: "砺思资本",
	}.WithSentiment(domain.Sentiment{Label: domain.LabelPositive, Score: 0.8})

	out := renderSummary(usecase.RunResult{
		RunID:     "run-1",
		StartedAt: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC),
		Records:   []domain.Record{rec},
		Platforms: []domain.PlatformResult{{Key: "wechat", Records: 1}, {Key: "xhs", Err: errors.New("not logged in")}},
		Stages:    []domain.StageStats{domain.NewStageStats("dedup", 2, 1)},
		Time:      processing.TimeStats{Kept: 2, TooOld: 3, NoTimestamp: 1},
		Sentiment: processing.SentimentStats{Total: 1, Failed: 1},
		Sink:      domain.SinkResult{Succeeded: 1},
		Delivered: []string{"feishu_webhook"},
	}, true)

	for _, want := range []string{"run-1", "2026-01-10 09:00:00", "not logged in", "2 → 1 (-1)", "砺思资本", "积极", "成功 1, 失败 0, 跳过 0", "feishu_webhook", "[1] 砺思资本完成新基金募集 [积极]", "过期 3, 无时间 1", "分析失败"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderChecks(t *testing.T) {
	out := renderChecks([]app.CheckItem{
		{Name: "keywords", OK: true, Detail: "Monolith"},
		{Name: "llm", Detail: "apiKey missing"},
	})
	assert.Contains(t, out, "✓ keywords")
	assert.Contains(t, out, "✗ llm")
	assert.Contains(t, out, "apiKey missing")
}

func TestCrawlFlagsDefaults(t *testing.T) {
	f := crawlCmd.Flags()
	platform, err := f.GetString("platform")
	assert.NoError(t, err)
	assert.Equal(t, "wechat", platform)

	at, err := scheduleCmd.Flags().GetString("at")
	assert.NoError(t, err)
	assert.Empty(t, at)
}
