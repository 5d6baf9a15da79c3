package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"SentimentMonitor/internal/app"
	"SentimentMonitor/internal/config"
	"SentimentMonitor/internal/logging"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:          "sentimentmonitor",
	Short:        "Keyword sentiment monitoring for WeChat and Xiaohongshu",
	Long:         `Crawls search results for the configured keywords, filters and scores them, and publishes a daily report.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config (default $SENTIMENT_MONITOR_CONFIG or config/monitor.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging level (debug, info, warn, error)")

	rootCmd.AddCommand(crawlCmd, scheduleCmd, checkCmd)
}

// bootstrap loads configuration and builds the application for a command.
func bootstrap(ctx context.Context) (*app.Application, *slog.Logger) {
	cfg := config.Load(configPath)
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	logger := logging.New(cfg.Logging.Level)
	return app.New(ctx, cfg, logger), logger
}
