package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"SentimentMonitor/internal/app"
	"SentimentMonitor/internal/domain"
	"SentimentMonitor/internal/report"
	"SentimentMonitor/internal/usecase"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#45475A")).Padding(0, 1)
)

const latestShown = 10

func printReport(w io.Writer, text string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, text)
}

func printSummary(w io.Writer, result usecase.RunResult, analyzed bool) {
	fmt.Fprintln(w, renderSummary(result, analyzed))
}

func renderSummary(result usecase.RunResult, analyzed bool) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("采集完成") + "\n")
	row(&b, "运行ID", result.RunID)
	row(&b, "完成时间", result.StartedAt.Format(time.DateTime))
	row(&b, "文章总数", fmt.Sprintf("%d", len(result.Records)))

	for _, p := range result.Platforms {
		status := okStyle.Render(fmt.Sprintf("%d 篇", p.Records))
		if p.Err != nil {
			status = failStyle.Render(p.Err.Error())
		}
		row(&b, "平台 "+p.Key, status)
	}
	for _, st := range result.Stages {
		row(&b, "阶段 "+st.Stage, fmt.Sprintf("%d → %d (-%d)", st.In, st.Kept, st.Removed))
	}
	if t := result.Time; t.TooOld > 0 || t.NoTimestamp > 0 {
		row(&b, "时间过滤", fmt.Sprintf("过期 %d, 无时间 %d", t.TooOld, t.NoTimestamp))
	}

	model := report.Assemble(result.Records, result.StartedAt)
	b.WriteString("\n" + titleStyle.Render("按关键词统计") + "\n")
	for _, c := range model.ByTerm {
		row(&b, c.Name, fmt.Sprintf("%d 篇", c.Count))
	}

	if analyzed {
		b.WriteString("\n" + titleStyle.Render("情感分析统计") + "\n")
		for _, c := range model.BySentiment {
			row(&b, c.Name, fmt.Sprintf("%d 篇 (%.1f%%)", c.Count, pct(c.Count, model.Total)))
		}
		if result.Sentiment.Failed > 0 {
			row(&b, "分析失败", failStyle.Render(fmt.Sprintf("%d 篇", result.Sentiment.Failed)))
		}
	}

	if s := result.Sink; s != (domain.SinkResult{}) {
		row(&b, "存储", fmt.Sprintf("成功 %d, 失败 %d, 跳过 %d", s.Succeeded, s.Failed, s.Skipped))
	}
	if len(result.Delivered) > 0 {
		row(&b, "已发送", strings.Join(result.Delivered, ", "))
	}

	if n := min(latestShown, len(result.Records)); n > 0 {
		b.WriteString("\n" + titleStyle.Render(fmt.Sprintf("最新 %d 篇文章", n)) + "\n")
		for i, rec := range result.Records[:n] {
			suffix := ""
			if rec.Sentiment != nil {
				suffix = " [" + rec.Sentiment.Label.DisplayName() + "]"
			}
			fmt.Fprintf(&b, "[%d] %s%s\n", i+1, rec.Title, suffix)
			b.WriteString(labelStyle.Render(fmt.Sprintf("    来源: %s | 关键词: %s", rec.Author, rec.SearchTerm)) + "\n")
			b.WriteString(labelStyle.Render("    链接: "+rec.URL) + "\n")
		}
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func printChecks(w io.Writer, items []app.CheckItem) {
	fmt.Fprintln(w, renderChecks(items))
}

func renderChecks(items []app.CheckItem) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("配置检查") + "\n")
	for _, it := range items {
		mark := okStyle.Render("✓")
		if !it.OK {
			mark = failStyle.Render("✗")
		}
		fmt.Fprintf(&b, "%s %s %s\n", mark, it.Name, labelStyle.Render(it.Detail))
	}
	return strings.TrimRight(b.String(), "\n")
}

func row(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-12s", label)) + " " + value + "\n")
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}
