package report

import (
	"fmt"
	"strings"
	"time"
)

const rule = "========================================"

var sentimentEmoji = map[string]string{"积极": "😊", "消极": "😟", "中立": "😐"}

// RenderText formats the plain text daily report.
func RenderText(m Model, generatedAt time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 舆情监测日报 - %s\n", m.Date.Format("2006年01月02日"))
	b.WriteString(rule + "\n\n")
	b.WriteString("📈 今日概览\n")
	fmt.Fprintf(&b, "• 采集文章总数: %d 篇\n\n", m.Total)

	writeGroup(&b, "📱 平台分布:", m.ByPlatform, m.Total, nil)
	writeGroup(&b, "🔑 关键词分布:", m.ByTerm, m.Total, nil)
	writeGroup(&b, "💬 情感分析:", m.BySentiment, m.Total, sentimentEmoji)

	b.WriteString("📌 重点内容摘要:\n")
	b.WriteString(strings.Repeat("-", len(rule)) + "\n")
	writeHighlights(&b, "⚠️ 需关注（消极内容）:", m.Negative)
	writeHighlights(&b, "✅ 正面报道:", m.Positive)

	b.WriteString("\n" + rule + "\n")
	fmt.Fprintf(&b, "报告生成时间: %s", generatedAt.Format(time.DateTime))
	return b.String()
}

// RenderMarkdown formats the markdown daily report with tables and links.
func RenderMarkdown(m Model, generatedAt time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# 舆情监测日报 - %s\n\n", m.Date.Format("2006年01月02日"))
	b.WriteString("## 📈 今日概览\n\n")
	b.WriteString("| 指标 | 数值 |\n|------|------|\n")
	fmt.Fprintf(&b, "| 采集文章总数 | %d 篇 |\n\n", m.Total)

	writeTable(&b, "## 📱 平台分布", "平台", m.ByPlatform, m.Total)
	writeTable(&b, "## 🔑 关键词分布", "关键词", m.ByTerm, m.Total)
	writeTable(&b, "## 💬 情感分析", "情感", m.BySentiment, m.Total)

	b.WriteString("## 📌 重点内容\n\n")
	writeLinkedHighlights(&b, "### ⚠️ 需关注（消极内容）", m.Negative)
	writeLinkedHighlights(&b, "### ✅ 正面报道", m.Positive)

	b.WriteString("---\n")
	fmt.Fprintf(&b, "*报告生成时间: %s*", generatedAt.Format(time.DateTime))
	return b.String()
}

// Full prepends the AI briefing block when one exists.
func Full(text, briefing string) string {
	if strings.TrimSpace(briefing) == "" {
		return text
	}
	return "🤖 AI智能简报\n" + rule + "\n" + briefing + "\n\n" + rule + "\n\n" + text
}

func writeGroup(b *strings.Builder, title string, counts []Count, total int, emoji map[string]string) {
	if len(counts) == 0 {
		return
	}
	b.WriteString(title + "\n")
	for _, c := range counts {
		name := c.Name
		if e, ok := emoji[name]; ok {
			name = e + " " + name
		}
		fmt.Fprintf(b, "  • %s: %d 篇 (%.1f%%)\n", name, c.Count, percent(c.Count, total))
	}
	b.WriteString("\n")
}

func writeTable(b *strings.Builder, title, column string, counts []Count, total int) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(b, "%s\n\n| %s | 数量 | 占比 |\n|------|------|------|\n", title, column)
	for _, c := range counts {
		fmt.Fprintf(b, "| %s | %d | %.1f%% |\n", c.Name, c.Count, percent(c.Count, total))
	}
	b.WriteString("\n")
}

func writeHighlights(b *strings.Builder, title string, items []Highlight) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n" + title + "\n")
	for i, h := range items {
		fmt.Fprintf(b, "  %d. %s...\n", i+1, truncate(h.Title, 40))
		fmt.Fprintf(b, "     来源: %s | 关键词: %s\n", h.Author, h.Term)
	}
}

func writeLinkedHighlights(b *strings.Builder, title string, items []Highlight) {
	if len(items) == 0 {
		return
	}
	b.WriteString(title + "\n\n")
	for i, h := range items {
		fmt.Fprintf(b, "%d. **%s**\n", i+1, h.Title)
		fmt.Fprintf(b, "   - 来源: %s\n", h.Author)
		fmt.Fprintf(b, "   - 关键词: %s\n", h.Term)
		fmt.Fprintf(b, "   - [查看原文](%s)\n\n", h.URL)
	}
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
