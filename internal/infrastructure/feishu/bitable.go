package feishu

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"SentimentMonitor/internal/config"
	"SentimentMonitor/internal/domain"
	"SentimentMonitor/internal/ports"
)

const (
	listPageSize     = 500
	createBatchSize  = 100
	defaultBatchGap  = 500 * time.Millisecond
	recordIDField    = "记录ID"
	pendingSentiment = "待分析"
)

// BitableSink appends new records to a Feishu bitable, skipping record IDs already present.
type BitableSink struct {
	http     *resty.Client
	tokens   *tokenSource
	baseURL  string
	appToken string
	tableID  string
	batchGap time.Duration
	logger   *slog.Logger
}

var _ ports.RecordSink = (*BitableSink)(nil)

// NewBitableSink wires the sink from configuration.
func NewBitableSink(cfg config.FeishuConfig, logger *slog.Logger) *BitableSink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	base = strings.TrimSuffix(base, "/")
	http := resty.New().SetTimeout(30 * time.Second)
	return &BitableSink{
		http:     http,
		tokens:   newTokenSource(http, base, cfg.AppID, cfg.AppSecret),
		baseURL:  base,
		appToken: cfg.Bitable.AppToken,
		tableID:  cfg.Bitable.TableID,
		batchGap: defaultBatchGap,
		logger:   logger.With("component", "feishu_bitable"),
	}
}

// Configured reports whether credentials and table coordinates are all present.
func (s *BitableSink) Configured() bool {
	return s.tokens.appID != "" && s.tokens.appSecret != "" && s.appToken != "" && s.tableID != ""
}

// UpsertIfNew writes records whose RecordID is absent from the table.
// An unconfigured sink counts every record as failed.
func (s *BitableSink) UpsertIfNew(ctx context.Context, records []domain.Record) (domain.SinkResult, error) {
	if len(records) == 0 {
		return domain.SinkResult{}, nil
	}
	if !s.Configured() {
		s.logger.Error("feishu bitable not configured")
		return domain.SinkResult{Failed: len(records)}, nil
	}

	existing, err := s.existingIDs(ctx)
	if err != nil {
		s.logger.Error("list existing records failed", "error", err)
	}

	var result domain.SinkResult
	fresh := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		if _, ok := existing[rec.RecordID()]; ok {
			result.Skipped++
			continue
		}
		fresh = append(fresh, rec)
	}
	s.logger.Info("bitable filter", "new", len(fresh), "existing", result.Skipped)

	for start := 0; start < len(fresh); start += createBatchSize {
		end := min(start+createBatchSize, len(fresh))
		batch := fresh[start:end]

		created, err := s.batchCreate(ctx, batch)
		if err != nil {
			result.Failed += len(batch)
			s.logger.Error("batch create failed", "size", len(batch), "error", err)
		} else {
			result.Succeeded += created
			s.logger.Info("batch created", "size", created)
		}

		if end < len(fresh) && s.batchGap > 0 {
			select {
			case <-ctx.Done():
				result.Failed += len(fresh) - end
				return result, ctx.Err()
			case <-time.After(s.batchGap):
			}
		}
	}

	return result, nil
}

// existingIDs pages through the table. A failing page ends listing and returns what was gathered.
func (s *BitableSink) existingIDs(ctx context.Context) (map[string]struct{}, error) {
	ids := map[string]struct{}{}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return ids, err
	}

	fieldNames, _ := json.Marshal([]string{recordIDField})
	pageToken := ""
	for {
		var out struct {
			envelope
			Data struct {
				Items []struct {
					Fields map[string]json.RawMessage `json:"fields"`
				} `json:"items"`
				HasMore   bool   `json:"has_more"`
				PageToken string `json:"page_token"`
			} `json:"data"`
		}

		req := s.http.R().
			SetContext(ctx).
			SetAuthToken(token).
			SetQueryParam("page_size", strconv.Itoa(listPageSize)).
			SetQueryParam("field_names", string(fieldNames)).
			SetResult(&out)
		if pageToken != "" {
			req.SetQueryParam("page_token", pageToken)
		}

		resp, err := req.Get(s.recordsURL())
		if err != nil {
			return ids, fmt.Errorf("list records: %w", err)
		}
		if resp.IsError() {
			return ids, fmt.Errorf("list records: unexpected status %s", resp.Status())
		}
		if err := out.err("list records"); err != nil {
			return ids, err
		}

		for _, item := range out.Data.Items {
			if id := textValue(item.Fields[recordIDField]); id != "" {
				ids[id] = struct{}{}
			}
		}

		if !out.Data.HasMore || out.Data.PageToken == "" {
			break
		}
		pageToken = out.Data.PageToken
	}

	s.logger.Info("existing records", "count", len(ids))
	return ids, nil
}

func (s *BitableSink) batchCreate(ctx context.Context, batch []domain.Record) (int, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return 0, err
	}

	type row struct {
		Fields map[string]any `json:"fields"`
	}
	rows := make([]row, 0, len(batch))
	for _, rec := range batch {
		rows = append(rows, row{Fields: BuildFields(rec)})
	}

	var out struct {
		envelope
		Data struct {
			Records []json.RawMessage `json:"records"`
		} `json:"data"`
	}
	resp, err := s.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(map[string]any{"records": rows}).
		SetResult(&out).
		Post(s.recordsURL() + "/batch_create")
	if err != nil {
		return 0, fmt.Errorf("batch create: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("batch create: unexpected status %s", resp.Status())
	}
	if err := out.err("batch create"); err != nil {
		return 0, err
	}
	return len(out.Data.Records), nil
}

func (s *BitableSink) recordsURL() string {
	return fmt.Sprintf("%s/bitable/v1/apps/%s/tables/%s/records", s.baseURL, s.appToken, s.tableID)
}

// BuildFields maps a record onto the table columns. Empty values are omitted.
func BuildFields(rec domain.Record) map[string]any {
	sentiment := pendingSentiment
	if rec.Sentiment != nil {
		sentiment = rec.Sentiment.Label.DisplayName()
	}

	fields := map[string]any{
		"标题":          rec.Title,
		"作者":          rec.Author,
		"内容摘要":        truncateRunes(rec.Content, 500),
		"平台":          rec.Source.DisplayName(),
		"关键词":         rec.SearchTerm,
		"情感标注":        sentiment,
		recordIDField: rec.RecordID(),
	}

	if rec.URL != "" {
		text := truncateRunes(rec.Title, 30)
		if text == "" {
			text = "查看原文"
		}
		fields["原文链接"] = map[string]string{"link": rec.URL, "text": text}
	}
	if rec.PublishedAt != nil {
		fields["发布日期"] = rec.PublishedAt.UnixMilli()
	}
	if !rec.FetchedAt.IsZero() {
		fields["采集日期"] = rec.FetchedAt.UnixMilli()
	}
	if rec.Sentiment != nil {
		fields["情感分数"] = strconv.FormatFloat(rec.Sentiment.Score, 'f', -1, 64)
	}

	for k, v := range fields {
		if str, ok := v.(string); ok && str == "" {
			delete(fields, k)
		}
	}
	return fields
}

// textValue reads a text cell, which the API returns either as a string or as rich-text segments.
func textValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}
	var segments []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &segments); err == nil {
		var b strings.Builder
		for _, seg := range segments {
			b.WriteString(seg.Text)
		}
		return b.String()
	}
	return ""
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
