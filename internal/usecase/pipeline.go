package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"SentimentMonitor/internal/config"
	"SentimentMonitor/internal/domain"
	"SentimentMonitor/internal/ports"
	"SentimentMonitor/internal/processing"
	"SentimentMonitor/internal/report"
)

// Stage names reported in RunResult.Stages.
const (
	StageCollect   = "collect"
	StageTime      = "time_filter"
	StageRelevance = "relevance_filter"
	StageDedup     = "dedup"
)

// NamedSink labels a record sink for logs and results.
type NamedSink struct {
	Name string
	Sink ports.RecordSink
}

// NamedMessenger labels a message sink.
type NamedMessenger struct {
	Name string
	Sink ports.MessageSink
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Collector  ports.RecordCollector
	TimeFilter *processing.TimeFilter
	Relevance  *processing.RelevanceFilter
	Scorer     *processing.SentimentScorer
	Briefer    *report.Briefer
	Sinks      []NamedSink
	Messengers []NamedMessenger
	Monitor    config.Monitor
	Location   *time.Location
	Now        func() time.Time
	Logger     *slog.Logger
}

// RunOptions selects the platforms and optional stages of one run.
type RunOptions struct {
	Platforms []string
	Filter    bool
	Analyze   bool
	Save      bool
	Briefing  bool
	Notify    bool
}

// RunResult summarizes one pipeline execution.
type RunResult struct {
	RunID     string
	StartedAt time.Time
	Records   []domain.Record
	Platforms []domain.PlatformResult
	Stages    []domain.StageStats
	Time      processing.TimeStats
	Sentiment processing.SentimentStats
	Sink      domain.SinkResult
	Report    string
	Briefing  string
	Delivered []string
}

// Stage returns the stats for a named stage.
func (r RunResult) Stage(name string) (domain.StageStats, bool) {
	for _, st := range r.Stages {
		if st.Stage == name {
			return st, true
		}
	}
	return domain.StageStats{}, false
}

// Pipeline implements the collect, filter, score, report and deliver workflow.
type Pipeline struct {
	collector  ports.RecordCollector
	timeFilter *processing.TimeFilter
	relevance  *processing.RelevanceFilter
	scorer     *processing.SentimentScorer
	briefer    *report.Briefer
	sinks      []NamedSink
	messengers []NamedMessenger
	monitor    config.Monitor
	loc        *time.Location
	now        func() time.Time
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		collector:  deps.Collector,
		timeFilter: deps.TimeFilter,
		relevance:  deps.Relevance,
		scorer:     deps.Scorer,
		briefer:    deps.Briefer,
		sinks:      deps.Sinks,
		messengers: deps.Messengers,
		monitor:    deps.Monitor,
		loc:        deps.Location,
		now:        deps.Now,
		logger:     deps.Logger,
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.loc == nil {
		p.loc = time.Local
	}
	if p.timeFilter == nil {
		p.timeFilter = processing.NewTimeFilter(p.monitor.MaxAgeHours, p.logger)
	}
	return p
}

// Run executes one pass. Collaborator failures degrade into the result; only
// invalid arguments are returned as errors.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (RunResult, error) {
	started := p.now().In(p.loc)
	result := RunResult{RunID: uuid.NewString(), StartedAt: started}
	logger := p.logger.With("run_id", result.RunID)

	if p.monitor.MaxUnitsPerSource < 0 {
		return result, fmt.Errorf("%w: max units per source %d", domain.ErrInvalidArgument, p.monitor.MaxUnitsPerSource)
	}

	logger.Info("run started", "platforms", opts.Platforms, "terms", p.monitor.SearchTerms)

	var records []domain.Record
	if p.collector != nil && len(p.monitor.SearchTerms) > 0 {
		records, result.Platforms = p.collector.Collect(ctx, opts.Platforms, p.monitor.SearchTerms, p.monitor.MaxUnitsPerSource)
	} else {
		logger.Warn("nothing to collect", "collector", p.collector != nil, "terms", len(p.monitor.SearchTerms))
	}
	result.Stages = append(result.Stages, domain.NewStageStats(StageCollect, len(records), len(records)))

	in := len(records)
	records, result.Time = p.timeFilter.Filter(records, p.monitor.MaxAgeHours, started)
	result.Stages = append(result.Stages, domain.NewStageStats(StageTime, in, len(records)))

	if opts.Filter && p.relevance != nil {
		in = len(records)
		records = p.relevance.Filter(records)
		result.Stages = append(result.Stages, domain.NewStageStats(StageRelevance, in, len(records)))
	}

	in = len(records)
	records = processing.NewDedupProcessor().Deduplicate(records)
	result.Stages = append(result.Stages, domain.NewStageStats(StageDedup, in, len(records)))

	if opts.Analyze && p.scorer != nil {
		records, result.Sentiment = p.scorer.ScoreMany(ctx, records)
	} else {
		result.Sentiment = processing.Statistics(records)
	}
	result.Records = records

	if opts.Save {
		result.Sink = p.store(ctx, logger, records)
	}

	model := report.Assemble(records, started)
	result.Report = report.RenderText(model, p.now().In(p.loc))
	if opts.Briefing {
		result.Briefing = p.briefer.Briefing(ctx, model, records)
		result.Report = report.Full(result.Report, result.Briefing)
	}

	if opts.Notify {
		result.Delivered = p.deliver(ctx, logger, result.Report)
	}

	logger.Info("run finished",
		"records", len(records),
		"too_old", result.Time.TooOld,
		"no_timestamp", result.Time.NoTimestamp,
		"score_failed", result.Sentiment.Failed,
		"stored", result.Sink.Succeeded,
		"skipped", result.Sink.Skipped,
		"failed", result.Sink.Failed,
		"delivered", len(result.Delivered),
		"elapsed", p.now().Sub(started).Round(time.Millisecond))
	return result, nil
}

func (p *Pipeline) store(ctx context.Context, logger *slog.Logger, records []domain.Record) domain.SinkResult {
	var total domain.SinkResult
	if len(p.sinks) == 0 {
		logger.Warn("no record sink configured, skipping storage")
		return total
	}
	for _, s := range p.sinks {
		res, err := s.Sink.UpsertIfNew(ctx, records)
		if err != nil {
			logger.Error("record sink failed", "sink", s.Name, "error", err)
			if res == (domain.SinkResult{}) {
				res.Failed = len(records)
			}
		}
		logger.Info("record sink", "sink", s.Name, "succeeded", res.Succeeded, "failed", res.Failed, "skipped", res.Skipped)
		total.Succeeded += res.Succeeded
		total.Failed += res.Failed
		total.Skipped += res.Skipped
	}
	return total
}

func (p *Pipeline) deliver(ctx context.Context, logger *slog.Logger, text string) []string {
	if len(p.messengers) == 0 {
		logger.Info("no message sink configured, report kept local")
		return nil
	}
	var delivered []string
	for _, m := range p.messengers {
		if m.Sink.Send(ctx, text) {
			delivered = append(delivered, m.Name)
			continue
		}
		logger.Warn("report delivery failed", "sink", m.Name)
	}
	return delivered
}
