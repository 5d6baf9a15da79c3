package processing

import (
	"context"
	"strings"

	"SentimentMonitor/internal/ports"
)

var (
	positiveWords = []string{
		"成功", "完成", "增长", "突破", "领先", "优秀", "出色", "推荐", "利好", "圆满",
		"获得", "荣获", "赞", "棒", "好评", "创新", "看好", "收益", "机会", "发布",
	}
	negativeWords = []string{
		"失败", "亏损", "下跌", "风险", "暴雷", "失望", "差评", "投诉", "违规", "处罚",
		"裁员", "危机", "挑战", "质疑", "纠纷", "诉讼", "波动", "下滑", "很差", "退出",
	}
)

// LexiconModel is an offline keyword-count model used when no scoring service is configured.
type LexiconModel struct {
	positive []string
	negative []string
}

var _ ports.SentimentModel = (*LexiconModel)(nil)

// NewLexiconModel uses the built-in word lists.
func NewLexiconModel() *LexiconModel {
	return &LexiconModel{positive: positiveWords, negative: negativeWords}
}

// Score maps hit counts onto [0,1]: 0.5 with no hits, moving 0.15 per net hit.
func (m *LexiconModel) Score(_ context.Context, text string) (float64, error) {
	lowered := strings.ToLower(text)
	hits := 0
	for _, w := range m.positive {
		hits += strings.Count(lowered, w)
	}
	for _, w := range m.negative {
		hits -= strings.Count(lowered, w)
	}

	score := 0.5 + 0.15*float64(hits)
	switch {
	case score > 1:
		score = 1
	case score < 0:
		score = 0
	}
	return score, nil
}
