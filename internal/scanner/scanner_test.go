package scanner

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SentimentMonitor/internal/domain"
)

type stubSource struct {
	results map[string][]domain.Record
	errs    map[string]error
	calls   []string
}

func (s *stubSource) Name() domain.Source { return domain.SourceSearchIndex }

func (s *stubSource) Search(_ context.Context, term string, maxUnits int) ([]domain.Record, error) {
	s.calls = append(s.calls, term)
	if err := s.errs[term]; err != nil {
		return nil, err
	}
	return s.results[term], nil
}

func rec(term, url string) domain.Record {
	return domain.Record{Title: term + url, URL: url, SearchTerm: term, Source: domain.SourceSearchIndex}
}

func TestSearchManyIsolatesFailingTerm(t *testing.T) {
	t.Parallel()

	src := &stubSource{
		results: map[string][]domain.Record{"A": {rec("A", "u1"), rec("A", "u2")}},
		errs:    map[string]error{"B": errors.New("connection reset")},
	}

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	got, err := SearchMany(context.Background(), src, []string{"A", "B"}, 2, NoPacing(), logger)
	require.NoError(t, err)

	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, "A", r.SearchTerm)
	}
	assert.Equal(t, []string{"A", "B"}, src.calls)
	assert.Contains(t, logs.String(), "search term failed")
	assert.Contains(t, logs.String(), "term=B")
	assert.Contains(t, logs.String(), "connection reset")
}

func TestSearchManyDedupsByURLAcrossTerms(t *testing.T) {
	t.Parallel()

	src := &stubSource{results: map[string][]domain.Record{
		"A": {rec("A", "u1"), rec("A", "u2")},
		"B": {rec("B", "u2"), rec("B", "u3")},
	}}

	got, err := SearchMany(context.Background(), src, []string{"A", "B"}, 1, NoPacing(), nil)
	require.NoError(t, err)

	urls := make([]string, 0, len(got))
	for _, r := range got {
		urls = append(urls, r.URL)
	}
	assert.Equal(t, []string{"u1", "u2", "u3"}, urls)
	assert.Equal(t, "A", got[1].SearchTerm, "first occurrence wins")
}

func TestSearchManyRejectsNegativeUnits(t *testing.T) {
	t.Parallel()

	_, err := SearchMany(context.Background(), &stubSource{}, []string{"A"}, -1, NoPacing(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSearchManyStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &stubSource{}
	_, err := SearchMany(ctx, src, []string{"A", "B"}, 1, NewPacer(time.Second, 0, 0), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"A"}, src.calls)
}

func TestPacerSpacesRequests(t *testing.T) {
	t.Parallel()

	p := NewPacer(20*time.Millisecond, 0, 0)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, p.Wait(ctx))
	require.NoError(t, p.Wait(ctx))
	require.NoError(t, p.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestPacerJitterRange(t *testing.T) {
	t.Parallel()

	p := NewPacer(0, 5*time.Millisecond, 10*time.Millisecond)
	for range 50 {
		j := p.jitter()
		assert.GreaterOrEqual(t, j, 5*time.Millisecond)
		assert.Less(t, j, 10*time.Millisecond)
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register("wechat", &stubSource{})

	_, err := reg.Resolve("wechat")
	require.NoError(t, err)
	_, err = reg.Resolve("weibo")
	assert.Error(t, err)
	assert.Equal(t, []string{"wechat"}, reg.Keys())
}
