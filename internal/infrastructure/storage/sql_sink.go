package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"

	"SentimentMonitor/internal/domain"
	"SentimentMonitor/internal/ports"
)

const recordsTable = "monitored_records"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrUnknownDriver is returned by Open for drivers other than postgres and sqlite.
var ErrUnknownDriver = errors.New("unknown storage driver")

const schema = `CREATE TABLE IF NOT EXISTS monitored_records (
	record_id       TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	author          TEXT NOT NULL DEFAULT '',
	content         TEXT NOT NULL DEFAULT '',
	url             TEXT NOT NULL,
	platform        TEXT NOT NULL DEFAULT '',
	source          TEXT NOT NULL DEFAULT '',
	search_term     TEXT NOT NULL DEFAULT '',
	published_at    TIMESTAMP NULL,
	fetched_at      TIMESTAMP NOT NULL,
	sentiment_label TEXT NULL,
	sentiment_score DOUBLE PRECISION NULL,
	likes           INTEGER NOT NULL DEFAULT 0,
	comments        INTEGER NOT NULL DEFAULT 0,
	shares          INTEGER NOT NULL DEFAULT 0
)`

// SQLSink persists records into a relational table keyed by RecordID.
type SQLSink struct {
	db      *sql.DB
	driver  string
	builder sq.StatementBuilderType
	logger  *slog.Logger
}

var _ ports.RecordSink = (*SQLSink)(nil)

// Open connects using the named driver and ensures the schema exists.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*SQLSink, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	if driver == DriverSQLite {
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	sink := NewSQLSink(db, driver, logger)
	if err := sink.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sink, nil
}

// ensureDir creates the parent directory of a plain sqlite file path.
func ensureDir(dsn string) error {
	if dsn == "" || strings.HasPrefix(dsn, "file:") || strings.HasPrefix(dsn, ":memory:") {
		return nil
	}
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	return nil
}

// NewSQLSink wires an existing sql.DB.
func NewSQLSink(db *sql.DB, driver string, logger *slog.Logger) *SQLSink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if driver == DriverPostgres {
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return &SQLSink{
		db:      db,
		driver:  driver,
		builder: builder,
		logger:  logger.With("component", "sql_sink", "driver", driver),
	}
}

// EnsureSchema creates the records table when missing.
func (s *SQLSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *SQLSink) Close() error {
	return s.db.Close()
}

// UpsertIfNew inserts records whose RecordID is not stored yet.
func (s *SQLSink) UpsertIfNew(ctx context.Context, records []domain.Record) (domain.SinkResult, error) {
	if len(records) == 0 {
		return domain.SinkResult{}, nil
	}

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.RecordID())
	}
	existing, err := s.existing(ctx, ids)
	if err != nil {
		return domain.SinkResult{}, err
	}

	var result domain.SinkResult
	for _, rec := range records {
		id := rec.RecordID()
		if existing[id] {
			result.Skipped++
			continue
		}
		inserted, err := s.insert(ctx, rec)
		switch {
		case err != nil:
			result.Failed++
			s.logger.Error("insert record failed", "record_id", id, "error", err)
		case inserted:
			result.Succeeded++
			existing[id] = true
		default:
			result.Skipped++
		}
	}

	s.logger.Info("records stored",
		"succeeded", result.Succeeded, "failed", result.Failed, "skipped", result.Skipped)
	return result, nil
}

// Count returns the number of stored records.
func (s *SQLSink) Count(ctx context.Context) (int, error) {
	query, args, err := s.builder.Select("COUNT(*)").From(recordsTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func (s *SQLSink) existingQuery(ids []string) sq.SelectBuilder {
	q := s.builder.Select("record_id").From(recordsTable)
	if s.driver == DriverPostgres {
		return q.Where("record_id = ANY(?)", pq.StringArray(ids))
	}
	return q.Where(sq.Eq{"record_id": ids})
}

func (s *SQLSink) existing(ctx context.Context, ids []string) (map[string]bool, error) {
	query, args, err := s.existingQuery(ids).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build existing query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query existing: %w", err)
	}

	result := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan id: %w", err)
		}
		result[id] = true
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

func (s *SQLSink) insert(ctx context.Context, rec domain.Record) (bool, error) {
	var (
		published sql.NullTime
		label     sql.NullString
		score     sql.NullFloat64
	)
	if rec.PublishedAt != nil {
		published = sql.NullTime{Time: rec.PublishedAt.UTC(), Valid: true}
	}
	if rec.Sentiment != nil {
		label = sql.NullString{String: string(rec.Sentiment.Label), Valid: true}
		score = sql.NullFloat64{Float64: rec.Sentiment.Score, Valid: true}
	}
	fetched := rec.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now()
	}

	query, args, err := s.builder.Insert(recordsTable).
		Columns("record_id", "title", "author", "content", "url", "platform", "source", "search_term",
			"published_at", "fetched_at", "sentiment_label", "sentiment_score", "likes", "comments", "shares").
		Values(rec.RecordID(), rec.Title, rec.Author, rec.Content, rec.URL, rec.Source.DisplayName(), string(rec.Source), rec.SearchTerm,
			published, fetched.UTC(), label, score, rec.Engagement.Likes, rec.Engagement.Comments, rec.Engagement.Shares).
		Suffix("ON CONFLICT (record_id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return true, nil
	}
	return n > 0, nil
}
