package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"SentimentMonitor/internal/config"
	"SentimentMonitor/internal/domain"
	"SentimentMonitor/internal/infrastructure/credentials"
	"SentimentMonitor/internal/infrastructure/feishu"
	"SentimentMonitor/internal/infrastructure/llm"
	"SentimentMonitor/internal/infrastructure/ml"
	"SentimentMonitor/internal/infrastructure/scheduler"
	"SentimentMonitor/internal/infrastructure/sources"
	"SentimentMonitor/internal/infrastructure/storage"
	"SentimentMonitor/internal/infrastructure/telegram"
	"SentimentMonitor/internal/logging"
	"SentimentMonitor/internal/ports"
	"SentimentMonitor/internal/processing"
	"SentimentMonitor/internal/report"
	"SentimentMonitor/internal/scanner"
	"SentimentMonitor/internal/usecase"
)

// Platform keys accepted by the CLI.
const (
	PlatformWechat = "wechat"
	PlatformXHS    = "xhs"
	PlatformMP     = "mp"
	PlatformAll    = "all"
)

// ErrUnknownPlatform is returned for platform names without an adapter.
var ErrUnknownPlatform = errors.New("unknown platform")

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *scanner.Registry
	pipeline *usecase.Pipeline

	bitable  *feishu.BitableSink
	webhook  *feishu.Webhook
	telegram *telegram.Notifier
	llm      *llm.Client
	sql      *storage.SQLSink
	sqlErr   error
}

// New builds the application; optional collaborators that fail to initialize are logged and left out.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	a := &Application{cfg: cfg, logger: baseLogger}
	a.registry = a.buildRegistry()

	a.bitable = feishu.NewBitableSink(cfg.Feishu, baseLogger)
	a.webhook = feishu.NewWebhook(cfg.Feishu.Webhook.URL, baseLogger)
	a.telegram = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID, baseLogger)
	a.llm = llm.NewClient(cfg.LLM)

	if cfg.Storage.DSN != "" {
		a.sql, a.sqlErr = storage.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN, baseLogger)
		if a.sqlErr != nil {
			baseLogger.Error("sql storage unavailable", "driver", cfg.Storage.Driver, "error", a.sqlErr)
		}
	}

	var sinks []usecase.NamedSink
	if a.bitable.Configured() {
		sinks = append(sinks, usecase.NamedSink{Name: "feishu_bitable", Sink: a.bitable})
	}
	if a.sql != nil {
		sinks = append(sinks, usecase.NamedSink{Name: "sql", Sink: a.sql})
	}

	var messengers []usecase.NamedMessenger
	if cfg.Feishu.Webhook.URL != "" {
		messengers = append(messengers, usecase.NamedMessenger{Name: "feishu_webhook", Sink: a.webhook})
	}
	if a.telegram.Configured() {
		messengers = append(messengers, usecase.NamedMessenger{Name: "telegram", Sink: a.telegram})
	}

	var generator ports.TextGenerator
	if a.llm.Configured() {
		generator = a.llm
	}

	monitor := cfg.Monitor()
	monitor.RelevanceRules = a.relevanceRules()

	jitterMin, jitterMax := cfg.Search.Jitter()
	betweenTerms := scanner.NewPacer(cfg.Search.RequestDelay(), jitterMin, jitterMax)

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Collector:  sources.NewStrategySource(a.registry, betweenTerms, baseLogger.With("component", "source")),
		TimeFilter: processing.NewTimeFilter(monitor.MaxAgeHours, baseLogger.With("component", "time_filter")),
		Relevance: processing.NewRelevanceFilter(monitor.RelevanceRules, cfg.Relevance.Whitelist,
			baseLogger.With("component", "relevance_filter")),
		Scorer: processing.NewSentimentScorer(a.sentimentModel(), cfg.Sentiment.PositiveThreshold,
			cfg.Sentiment.NegativeThreshold, baseLogger.With("component", "sentiment")),
		Briefer:    report.NewBriefer(generator, cfg.LLM.MaxTokens, baseLogger.With("component", "briefing")),
		Sinks:      sinks,
		Messengers: messengers,
		Monitor:    monitor,
		Location:   cfg.Scheduler.Location(),
		Logger:     baseLogger.With("component", "pipeline"),
	})

	return a
}

func (a *Application) buildRegistry() *scanner.Registry {
	search := a.cfg.Search
	store := credentials.NewFileStore(a.cfg.Credentials.Dir)
	jitterMin, jitterMax := search.Jitter()

	opts := func(component string) sources.Options {
		return sources.Options{
			Pacer:  scanner.NewPacer(search.RequestDelay(), jitterMin, jitterMax),
			Store:  store,
			Logger: a.logger.With("platform", component),
		}
	}
	browser := func() *sources.HTTPBrowser {
		return sources.NewHTTPBrowser(nil, search.Timeout(), search.UserAgent)
	}

	registry := scanner.NewRegistry()
	registry.Register(PlatformWechat, sources.NewSogouSearch(browser(), opts(PlatformWechat)))
	registry.Register(PlatformXHS, &scrollCapped{
		XHSNotes:   sources.NewXHSNotes(browser(), opts(PlatformXHS)),
		maxScrolls: search.MaxScrolls,
	})
	registry.Register(PlatformMP, sources.NewWechatMP(browser(), opts(PlatformMP)))
	return registry
}

// scrollCapped bounds social platform scrolling independently of the page budget.
type scrollCapped struct {
	*sources.XHSNotes
	maxScrolls int
}

func (s *scrollCapped) Search(ctx context.Context, term string, maxUnits int) ([]domain.Record, error) {
	if s.maxScrolls > 0 && maxUnits > s.maxScrolls {
		maxUnits = s.maxScrolls
	}
	return s.XHSNotes.Search(ctx, term, maxUnits)
}

func (a *Application) relevanceRules() map[string][]string {
	if a.cfg.Relevance.RulesFile != "" {
		return processing.LoadRelevanceRules(a.cfg.Relevance.RulesFile, a.logger)
	}
	if len(a.cfg.Relevance.Rules) > 0 {
		return a.cfg.Relevance.Rules
	}
	return processing.DefaultRelevanceRules()
}

func (a *Application) sentimentModel() ports.SentimentModel {
	if a.cfg.Sentiment.Endpoint != "" {
		return ml.NewClient(a.cfg.Sentiment.Endpoint, a.cfg.Sentiment.APIKey)
	}
	return processing.NewLexiconModel()
}

// Platforms expands a CLI platform name into registry keys.
func (a *Application) Platforms(name string) ([]string, error) {
	if name == "" || name == PlatformAll {
		if len(a.cfg.Platforms.Enabled) == 0 {
			return a.registry.Keys(), nil
		}
		for _, key := range a.cfg.Platforms.Enabled {
			if _, err := a.registry.Resolve(key); err != nil {
				return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, key)
			}
		}
		return slices.Clone(a.cfg.Platforms.Enabled), nil
	}
	if _, err := a.registry.Resolve(name); err != nil {
		return nil, fmt.Errorf("%w: %s (known: %v)", ErrUnknownPlatform, name, a.registry.Keys())
	}
	return []string{name}, nil
}

// Run performs a single pipeline execution.
func (a *Application) Run(ctx context.Context, opts usecase.RunOptions) (usecase.RunResult, error) {
	return a.pipeline.Run(ctx, opts)
}

// Schedule runs the pipeline daily at "HH:MM" until ctx is cancelled.
func (a *Application) Schedule(ctx context.Context, at string, runNow bool, opts usecase.RunOptions) error {
	if at == "" {
		at = a.cfg.Scheduler.DailyAt
	}
	driver, err := scheduler.NewDailyScheduler(at, a.cfg.Scheduler.Location(), a.logger)
	if err != nil {
		return err
	}

	daily := usecase.NewScheduler(driver, a.pipeline, opts, a.logger)
	if runNow {
		daily.RunOnce(ctx, time.Now())
	}
	if err := daily.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "at", at, "timezone", a.cfg.Scheduler.Location().String())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return daily.Stop(stopCtx)
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.sql != nil {
		return a.sql.Close()
	}
	return nil
}
