package processing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SentimentMonitor/internal/domain"
)

var ref = time.Date(2026, 1, 10, 12, 0, 0, 0, time.Local)

func at(hoursAgo int) *time.Time {
	t := ref.Add(-time.Duration(hoursAgo) * time.Hour)
	return &t
}

func rec(title, url string) domain.Record {
	return domain.Record{
		Title:      title,
		Author:     "author",
		URL:        url,
		Source:     domain.SourceSearchIndex,
		SearchTerm: "Monolith",
		FetchedAt:  ref,
	}
}

func titles(records []domain.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Title)
	}
	return out
}

func TestTimeFilterKeepsRecentAndUndated(t *testing.T) {
	t.Parallel()

	a, b, c, d := rec("a", "u/a"), rec("b", "u/b"), rec("c", "u/c"), rec("d", "u/d")
	a.PublishedAt = at(1)
	b.PublishedAt = at(30)
	d.PublishedAt = at(23)

	f := NewTimeFilter(24, nil)
	kept, stats := f.FilterRecent([]domain.Record{a, b, c, d}, ref)

	assert.Equal(t, []string{"a", "c", "d"}, titles(kept))
	assert.Equal(t, TimeStats{Kept: 3, TooOld: 1, NoTimestamp: 1}, stats)
}

func TestTimeFilterMonotonicInWindow(t *testing.T) {
	t.Parallel()

	var records []domain.Record
	for h := range 50 {
		r := rec(fmt.Sprintf("r%d", h), fmt.Sprintf("u/%d", h))
		r.PublishedAt = at(h)
		records = append(records, r)
	}
	records = append(records, rec("undated", "u/undated"))

	f := NewTimeFilter(24, nil)
	prev := -1
	for _, hours := range []int{1, 6, 12, 24, 48, 72} {
		kept, _ := f.Filter(records, hours, ref)
		assert.GreaterOrEqual(t, len(kept), prev, "hours=%d", hours)
		prev = len(kept)
	}
}

func TestTimeFilterEmptyInput(t *testing.T) {
	t.Parallel()

	kept, stats := NewTimeFilter(24, nil).FilterRecent(nil, ref)
	assert.Empty(t, kept)
	assert.Zero(t, stats)
}

func TestFilterByDate(t *testing.T) {
	t.Parallel()

	a, b, c := rec("a", "u/a"), rec("b", "u/b"), rec("c", "u/c")
	a.PublishedAt = at(2)
	b.PublishedAt = at(20)

	kept := NewTimeFilter(24, nil).FilterByDate([]domain.Record{a, b, c}, ref)
	assert.Equal(t, []string{"a"}, titles(kept))
}

func TestRelevanceFilterScenario(t *testing.T) {
	t.Parallel()

	records := []domain.Record{
		rec("Monolith 完成新一轮投资", "u/1"),
		rec("Monolith 乐队巡演", "u/2"),
		rec("石碑 Monolith 游戏评测", "u/3"),
		rec("一家专注投资的机构", "u/4"),
		rec("Monolith 架构设计", "u/5"),
	}
	rules := map[string][]string{"Monolith": {"投资", "融资"}}
	f := NewRelevanceFilter(rules, []string{}, nil)

	kept := f.Filter(records)
	removed := f.Removed(records)

	assert.Equal(t, []string{"Monolith 完成新一轮投资", "一家专注投资的机构"}, titles(kept))
	assert.Equal(t, []string{"Monolith 乐队巡演", "石碑 Monolith 游戏评测", "Monolith 架构设计"}, titles(removed))
}

func TestRelevanceFilterMatchesContentAndAuthorCaseInsensitive(t *testing.T) {
	t.Parallel()

	f := NewRelevanceFilter(map[string][]string{"Monolith": {"VC"}}, []string{}, nil)

	byContent := rec("Monolith", "u/1")
	byContent.Content = "a top-tier vc fund"
	byAuthor := rec("Monolith", "u/2")
	byAuthor.Author = "Vc Weekly"
	neither := rec("Monolith", "u/3")

	assert.True(t, f.IsRelevant(byContent))
	assert.True(t, f.IsRelevant(byAuthor))
	assert.False(t, f.IsRelevant(neither))
}

func TestRelevanceFilterWhitelistAndUnknownTerm(t *testing.T) {
	t.Parallel()

	f := NewRelevanceFilter(map[string][]string{"曹曦": {"投资"}, "Monolith": {"投资"}}, nil, nil)

	wl := rec("无关内容", "u/1")
	wl.SearchTerm = "曹曦"
	unknown := rec("无关内容", "u/2")
	unknown.SearchTerm = "其他"

	assert.True(t, f.IsRelevant(wl))
	assert.True(t, f.IsRelevant(unknown))
}

func TestRelevanceFilterPreservesOrder(t *testing.T) {
	t.Parallel()

	f := NewRelevanceFilter(nil, nil, nil)
	records := []domain.Record{
		rec("1 投资", "u/1"), rec("2", "u/2"), rec("3 基金", "u/3"), rec("4 资本", "u/4"),
	}
	assert.Equal(t, []string{"1 投资", "3 基金", "4 资本"}, titles(f.Filter(records)))
}

func TestLoadRelevanceRules(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(dir, "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("relevance_keywords:\n  Foo:\n    - bar\n"), 0o600))

		rules := LoadRelevanceRules(path, nil)
		assert.Equal(t, map[string][]string{"Foo": {"bar"}}, rules)
	})

	t.Run("missing", func(t *testing.T) {
		rules := LoadRelevanceRules(filepath.Join(dir, "absent.yaml"), nil)
		assert.Equal(t, DefaultRelevanceRules(), rules)
	})

	t.Run("broken", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("relevance_keywords: [::"), 0o600))

		rules := LoadRelevanceRules(path, nil)
		assert.Equal(t, DefaultRelevanceRules(), rules)
	})
}

func TestDedupDropsByURLAndContent(t *testing.T) {
	t.Parallel()

	a := rec("same", "u/1")
	sameURL := rec("other", "u/1")
	sameContent := rec("same", "u/2")
	distinct := rec("distinct", "u/3")

	d := NewDedupProcessor()
	kept := d.Deduplicate([]domain.Record{a, sameURL, sameContent, distinct})

	assert.Equal(t, []string{"same", "distinct"}, titles(kept))
	assert.Equal(t, 2, d.Seen())
}

func TestDedupIdempotentAndStateful(t *testing.T) {
	t.Parallel()

	records := []domain.Record{rec("a", "u/a"), rec("b", "u/b"), rec("a", "u/a"), rec("c", "u/c")}

	d := NewDedupProcessor()
	first := d.Deduplicate(records)
	assert.Equal(t, []string{"a", "b", "c"}, titles(first))
	assert.Empty(t, d.Deduplicate(first))

	assert.Equal(t, first, NewDedupProcessor().Deduplicate(first))

	d.Reset()
	assert.Zero(t, d.Seen())
	assert.Equal(t, first, d.Deduplicate(records))
}

func TestDedupZeroValueUsable(t *testing.T) {
	t.Parallel()

	var d DedupProcessor
	kept := d.Deduplicate([]domain.Record{rec("a", "u/a"), rec("a", "u/a")})
	assert.Equal(t, []string{"a"}, titles(kept))
	assert.Equal(t, 1, d.Seen())
}

func TestScoreManyCountsModelFailures(t *testing.T) {
	t.Parallel()

	records := []domain.Record{rec("a", "u/1"), rec("b", "u/2")}
	scored, stats := NewSentimentScorer(&stubModel{err: errors.New("model down")}, 0, 0, nil).ScoreMany(context.Background(), records)

	require.Len(t, scored, 2)
	assert.Equal(t, domain.Neutral(), *scored[0].Sentiment)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 2, stats.Neutral)

	_, stats = NewSentimentScorer(&stubModel{score: 0.8}, 0, 0, nil).ScoreMany(context.Background(), records)
	assert.Zero(t, stats.Failed)
}

type stubModel struct {
	score float64
	err   error
	calls int
}

func (m *stubModel) Score(context.Context, string) (float64, error) {
	m.calls++
	return m.score, m.err
}

func TestSentimentScorerLabels(t *testing.T) {
	t.Parallel()

	cases := []struct {
		score float64
		label domain.Label
	}{
		{0.9, domain.LabelPositive},
		{0.6, domain.LabelPositive},
		{0.59, domain.LabelNeutral},
		{0.41, domain.LabelNeutral},
		{0.4, domain.LabelNegative},
		{0.05, domain.LabelNegative},
	}
	for _, tc := range cases {
		s := NewSentimentScorer(&stubModel{score: tc.score}, 0, 0, nil)
		got := s.Score(context.Background(), "text")
		assert.Equal(t, tc.label, got.Label, "score=%v", tc.score)
		assert.InDelta(t, tc.score, got.Score, 1e-9)
	}
}

func TestSentimentScorerDegradesToNeutral(t *testing.T) {
	t.Parallel()

	blank := &stubModel{score: 0.9}
	s := NewSentimentScorer(blank, 0, 0, nil)
	assert.Equal(t, domain.Neutral(), s.Score(context.Background(), "   "))
	assert.Zero(t, blank.calls)

	for _, m := range []*stubModel{
		{err: errors.New("model down")},
		{score: math.NaN()},
		{score: 1.5},
	} {
		got := NewSentimentScorer(m, 0, 0, nil).Score(context.Background(), "text")
		assert.Equal(t, domain.Neutral(), got)
	}
}

func TestSentimentScorerRoundsScore(t *testing.T) {
	t.Parallel()

	got := NewSentimentScorer(&stubModel{score: 0.123456}, 0, 0, nil).Score(context.Background(), "x")
	assert.InDelta(t, 0.1235, got.Score, 1e-12)
}

func TestScoreManyCopiesAndCounts(t *testing.T) {
	t.Parallel()

	records := []domain.Record{rec("很成功", "u/1"), rec("亏损 风险", "u/2"), rec("平常", "u/3")}
	s := NewSentimentScorer(NewLexiconModel(), 0, 0, nil)

	scored, stats := s.ScoreMany(context.Background(), records)

	require.Len(t, scored, 3)
	for _, r := range records {
		assert.Nil(t, r.Sentiment)
	}
	for _, r := range scored {
		require.NotNil(t, r.Sentiment)
		switch {
		case r.Sentiment.Score >= domain.DefaultPositiveThreshold:
			assert.Equal(t, domain.LabelPositive, r.Sentiment.Label)
		case r.Sentiment.Score <= domain.DefaultNegativeThreshold:
			assert.Equal(t, domain.LabelNegative, r.Sentiment.Label)
		default:
			assert.Equal(t, domain.LabelNeutral, r.Sentiment.Label)
		}
	}
	assert.Equal(t, 1, stats.Positive)
	assert.Equal(t, 1, stats.Negative)
	assert.Equal(t, 1, stats.Neutral)
	assert.Equal(t, 3, stats.Total)
	assert.InDelta(t, 0.45, stats.Average, 1e-9)
}

func TestLexiconModelBounds(t *testing.T) {
	t.Parallel()

	m := NewLexiconModel()
	ctx := context.Background()

	neutral, err := m.Score(ctx, "今天天气")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, neutral, 1e-9)

	high, _ := m.Score(ctx, "成功 成功 成功 成功 突破 领先")
	low, _ := m.Score(ctx, "失败 亏损 暴雷 危机 裁员")
	assert.InDelta(t, 1.0, high, 1e-9)
	assert.InDelta(t, 0.0, low, 1e-9)
}
