package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"SentimentMonitor/internal/domain"
	"SentimentMonitor/internal/ports"
)

const (
	// EmptyBriefing is returned without calling the generator when there is nothing to summarize.
	EmptyBriefing = "今日暂无相关舆情内容。"

	briefingRecords    = 20
	defaultBriefTokens = 2000
)

const briefingSystemPrompt = `你是一位资深的舆情分析专家，为公司高管团队撰写每日舆情监测报告。

你的职责是：
1. 全面分析今日与公司相关的舆情动态
2. 识别潜在风险和机会
3. 提供有价值的洞察和建议
4. 使用专业、清晰的语言

报告格式应当：
- 结构清晰，层次分明
- 重点突出，便于快速阅读
- 数据支撑，有理有据
- 语言精炼，避免冗余`

const briefingSections = `请生成舆情简报，包含以下部分：

【一、今日要点】
用2-3句话概括今日舆情的核心态势和关键发现。

【二、重点关注】
列出需要管理层特别关注的事项，包括：
- 消极内容分析（如有）
- 潜在风险预警
- 值得关注的新动态

【三、内容分析】
对各关键词相关内容进行简要分析，包括：
- 传播渠道特点
- 关键话题走向
- 舆论情绪变化

【四、建议与行动】
基于今日舆情给出具体、可执行的建议。

【五、明日关注】
预判明日可能的舆情走向和需关注的风险点。

请确保报告专业、详尽，为管理层决策提供有力支撑。`

// Briefer asks a text generator for the executive narrative over a report.
type Briefer struct {
	gen       ports.TextGenerator
	maxTokens int
	logger    *slog.Logger
}

// NewBriefer returns a briefer; a nil generator disables briefings.
func NewBriefer(gen ports.TextGenerator, maxTokens int, logger *slog.Logger) *Briefer {
	if maxTokens <= 0 {
		maxTokens = defaultBriefTokens
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Briefer{gen: gen, maxTokens: maxTokens, logger: logger}
}

// Briefing returns the generated narrative, or "" when the generator is absent or fails.
func (b *Briefer) Briefing(ctx context.Context, m Model, records []domain.Record) string {
	if len(records) == 0 {
		return EmptyBriefing
	}
	if b == nil || b.gen == nil {
		return ""
	}

	b.logger.Info("requesting briefing", "records", len(records))
	text, err := b.gen.Complete(ctx, briefingSystemPrompt, BriefingPrompt(m, records), b.maxTokens)
	if err != nil {
		b.logger.Error("briefing failed", "error", err)
		return ""
	}
	return strings.TrimSpace(text)
}

// BriefingPrompt renders the user prompt: stats plus the first 20 records.
func BriefingPrompt(m Model, records []domain.Record) string {
	const bar = "═══════════════════════════════════════════"

	positive := CountOf(m.BySentiment, domain.LabelPositive.DisplayName())
	negative := CountOf(m.BySentiment, domain.LabelNegative.DisplayName())
	neutral := CountOf(m.BySentiment, domain.LabelNeutral.DisplayName())

	terms := make([]string, 0, len(m.ByTerm))
	for _, c := range m.ByTerm {
		terms = append(terms, fmt.Sprintf("%s: %d篇", c.Name, c.Count))
	}

	var p strings.Builder
	p.WriteString("请根据以下今日舆情监测数据，生成一份详细的高管舆情简报：\n\n")
	p.WriteString(bar + "\n📊 今日数据概览\n" + bar + "\n")
	fmt.Fprintf(&p, "• 监测文章总数: %d 篇\n", m.Total)
	p.WriteString("• 情感分布:\n")
	fmt.Fprintf(&p, "  - 积极: %d 篇 (%.1f%%)\n", positive, percent(positive, m.Total))
	fmt.Fprintf(&p, "  - 消极: %d 篇 (%.1f%%)\n", negative, percent(negative, m.Total))
	fmt.Fprintf(&p, "  - 中立: %d 篇 (%.1f%%)\n", neutral, percent(neutral, m.Total))
	fmt.Fprintf(&p, "• 关键词热度: %s\n\n", strings.Join(terms, ", "))

	p.WriteString(bar + "\n📰 文章详情\n" + bar + "\n")
	for i, rec := range records[:min(len(records), briefingRecords)] {
		tag := ""
		if rec.Sentiment != nil {
			tag = "[" + rec.Sentiment.Label.DisplayName() + "]"
		}
		fmt.Fprintf(&p, "%d. %s %s\n   来源: %s | 关键词: %s\n", i+1, rec.Title, tag, rec.Author, rec.SearchTerm)
	}
	p.WriteString("\n" + bar + "\n\n")
	p.WriteString(briefingSections)
	return p.String()
}
