package main

import (
	"github.com/spf13/cobra"

	"SentimentMonitor/internal/usecase"
)

var crawlFlags struct {
	platform string
	save     bool
	analyze  bool
	filter   bool
	briefing bool
	notify   bool
	report   bool
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run one collection pass",
	Long:  `Collects records for every configured keyword, then filters, scores, stores and reports them according to the flags.`,
	Args:  cobra.NoArgs,
	RunE:  runCrawl,
}

func init() {
	f := crawlCmd.Flags()
	f.StringVarP(&crawlFlags.platform, "platform", "p", "wechat", "platform to crawl: wechat, xhs, mp or all")
	f.BoolVar(&crawlFlags.save, "save", false, "store new records in the configured sinks")
	f.BoolVar(&crawlFlags.analyze, "analyze", false, "score sentiment")
	f.BoolVar(&crawlFlags.filter, "filter", false, "drop records failing the relevance rules")
	f.BoolVar(&crawlFlags.briefing, "briefing", false, "generate the AI briefing and send the full report")
	f.BoolVar(&crawlFlags.notify, "notify", false, "send the report to message sinks even without --briefing")
	f.BoolVar(&crawlFlags.report, "print-report", false, "print the report text")
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, _ := bootstrap(ctx)
	defer application.Close()

	platforms, err := application.Platforms(crawlFlags.platform)
	if err != nil {
		return err
	}

	result, err := application.Run(ctx, usecase.RunOptions{
		Platforms: platforms,
		Filter:    crawlFlags.filter,
		Analyze:   crawlFlags.analyze,
		Save:      crawlFlags.save,
		Briefing:  crawlFlags.briefing,
		Notify:    crawlFlags.briefing || crawlFlags.notify,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if crawlFlags.briefing || crawlFlags.report {
		printReport(out, result.Report)
	}
	printSummary(out, result, crawlFlags.analyze)
	return nil
}
