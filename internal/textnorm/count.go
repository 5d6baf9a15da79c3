package textnorm

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var nonNumericExpr = regexp.MustCompile(`[^\d.]`)

// ParseCount reads engagement counters such as "328", "1.2万" or "3w+".
// Unparseable input yields 0.
func ParseCount(text string) int {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return 0
	}

	multiplier := 1.0
	if strings.Contains(text, "万") || strings.Contains(text, "w") {
		multiplier = 10000
	}

	num := nonNumericExpr.ReplaceAllString(text, "")
	if num == "" {
		return 0
	}
	value, err := strconv.ParseFloat(num, 64)
	if err != nil || value < 0 {
		return 0
	}
	total := value * multiplier
	if math.IsInf(total, 0) || math.IsNaN(total) || total >= math.MaxInt64 {
		return 0
	}
	return int(total)
}
