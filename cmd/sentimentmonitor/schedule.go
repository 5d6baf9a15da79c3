package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"SentimentMonitor/internal/usecase"
)

var scheduleFlags struct {
	at       string
	runNow   bool
	platform string
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the daily task at a fixed time",
	Long:  `Runs collection, filtering, scoring, storage and report delivery every day until interrupted.`,
	Args:  cobra.NoArgs,
	RunE:  runSchedule,
}

func init() {
	f := scheduleCmd.Flags()
	f.StringVar(&scheduleFlags.at, "at", "", "daily run time HH:MM (default scheduler.dailyAt)")
	f.BoolVar(&scheduleFlags.runNow, "run-now", false, "run once immediately before waiting")
	f.StringVarP(&scheduleFlags.platform, "platform", "p", "all", "platform to crawl: wechat, xhs, mp or all")
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, logger := bootstrap(ctx)
	defer application.Close()

	platforms, err := application.Platforms(scheduleFlags.platform)
	if err != nil {
		return err
	}

	opts := usecase.RunOptions{
		Platforms: platforms,
		Filter:    true,
		Analyze:   true,
		Save:      true,
		Notify:    true,
	}
	if err := application.Schedule(ctx, scheduleFlags.at, scheduleFlags.runNow, opts); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	logger.Info("scheduler stopped")
	return nil
}
