package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SentimentMonitor/internal/domain"
)

func openTestSink(t *testing.T) *SQLSink {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "nested", "records.db")
	sink, err := Open(context.Background(), DriverSQLite, dsn, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })
	return sink
}

func sampleRecords(n int) []domain.Record {
	published := time.Date(2026, 1, 9, 8, 0, 0, 0, time.UTC)
	out := make([]domain.Record, n)
	for i := range out {
		out[i] = domain.Record{
			Title:       fmt.Sprintf("记录 %d", i),
			Author:      "投资界",
			URL:         fmt.Sprintf("https://example.com/%d", i),
			Source:      domain.SourceSearchIndex,
			SearchTerm:  "Monolith",
			PublishedAt: &published,
			FetchedAt:   published.Add(time.Hour),
			Engagement:  domain.Engagement{Likes: i},
		}
	}
	out[0] = out[0].WithSentiment(domain.Sentiment{Label: domain.LabelNegative, Score: 0.2})
	return out
}

func TestUpsertIfNewInsertsOnce(t *testing.T) {
	t.Parallel()

	sink := openTestSink(t)
	ctx := context.Background()
	recs := sampleRecords(3)

	result, err := sink.UpsertIfNew(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, domain.SinkResult{Succeeded: 3}, result)

	result, err = sink.UpsertIfNew(ctx, append(recs, sampleRecords(5)[3:]...))
	require.NoError(t, err)
	assert.Equal(t, domain.SinkResult{Succeeded: 2, Skipped: 3}, result)

	n, err := sink.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestUpsertIfNewDuplicateWithinBatch(t *testing.T) {
	t.Parallel()

	sink := openTestSink(t)
	rec := sampleRecords(1)[0]

	result, err := sink.UpsertIfNew(context.Background(), []domain.Record{rec, rec})
	require.NoError(t, err)
	assert.Equal(t, domain.SinkResult{Succeeded: 1, Skipped: 1}, result)
}

func TestUpsertIfNewStoresSentiment(t *testing.T) {
	t.Parallel()

	sink := openTestSink(t)
	ctx := context.Background()
	recs := sampleRecords(2)
	_, err := sink.UpsertIfNew(ctx, recs)
	require.NoError(t, err)

	var label *string
	var score *float64
	row := sink.db.QueryRowContext(ctx,
		"SELECT sentiment_label, sentiment_score FROM monitored_records WHERE record_id = ?", recs[0].RecordID())
	require.NoError(t, row.Scan(&label, &score))
	require.NotNil(t, label)
	assert.Equal(t, "negative", *label)
	assert.InDelta(t, 0.2, *score, 1e-9)

	row = sink.db.QueryRowContext(ctx,
		"SELECT sentiment_label FROM monitored_records WHERE record_id = ?", recs[1].RecordID())
	require.NoError(t, row.Scan(&label))
	assert.Nil(t, label)
}

func TestExistingQueryDialects(t *testing.T) {
	t.Parallel()

	ids := []string{"a", "b"}

	pg := NewSQLSink(nil, DriverPostgres, nil)
	query, args, err := pg.existingQuery(ids).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT record_id FROM monitored_records WHERE record_id = ANY($1)", query)
	assert.Equal(t, []any{pq.StringArray(ids)}, args)

	lite := NewSQLSink(nil, DriverSQLite, nil)
	query, args, err = lite.existingQuery(ids).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT record_id FROM monitored_records WHERE record_id IN (?,?)", query)
	assert.Equal(t, []any{"a", "b"}, args)
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "mysql", "dsn", nil)
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
