package processing

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"SentimentMonitor/internal/domain"
)

var monolithTokens = []string{
	"砺思资本", "砺思", "曹曦", "投资", "基金", "资本",
	"融资", "创业", "实习", "VC", "PE", "管理",
}

// DefaultRelevanceRules apply when no rule file can be read.
func DefaultRelevanceRules() map[string][]string {
	return map[string][]string{
		"Monolith": append([]string(nil), monolithTokens...),
		"MONOLITH": append([]string(nil), monolithTokens...),
	}
}

// DefaultWhitelist lists terms that always pass.
func DefaultWhitelist() []string {
	return []string{"曹曦", "砺思资本"}
}

// LoadRelevanceRules reads the relevance_keywords mapping from a YAML file,
// falling back to DefaultRelevanceRules with a warning.
func LoadRelevanceRules(path string, logger *slog.Logger) map[string][]string {
	logger = orDiscard(logger)

	rules, err := readRules(path)
	if err != nil {
		logger.Warn("relevance rules unavailable, using defaults", "path", path, "error", err)
		return DefaultRelevanceRules()
	}
	if len(rules) == 0 {
		logger.Warn("relevance rules empty, using defaults", "path", path)
		return DefaultRelevanceRules()
	}
	logger.Info("relevance rules loaded", "path", path, "rules", len(rules))
	return rules
}

func readRules(path string) (map[string][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	var file struct {
		RelevanceKeywords map[string][]string `yaml:"relevance_keywords"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return file.RelevanceKeywords, nil
}

// RelevanceFilter drops records whose search term needs co-occurring tokens that are absent.
type RelevanceFilter struct {
	rules     map[string][]string
	whitelist map[string]struct{}
	logger    *slog.Logger
}

// NewRelevanceFilter copies rules and whitelist; nil rules mean DefaultRelevanceRules.
func NewRelevanceFilter(rules map[string][]string, whitelist []string, logger *slog.Logger) *RelevanceFilter {
	if rules == nil {
		rules = DefaultRelevanceRules()
	}
	if whitelist == nil {
		whitelist = DefaultWhitelist()
	}

	f := &RelevanceFilter{
		rules:     make(map[string][]string, len(rules)),
		whitelist: make(map[string]struct{}, len(whitelist)),
		logger:    orDiscard(logger),
	}
	for term, tokens := range rules {
		lowered := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			if tok = strings.ToLower(strings.TrimSpace(tok)); tok != "" {
				lowered = append(lowered, tok)
			}
		}
		f.rules[term] = lowered
	}
	for _, term := range whitelist {
		f.whitelist[term] = struct{}{}
	}
	return f
}

// IsRelevant applies whitelist, then the term's rule; terms without a rule pass.
func (f *RelevanceFilter) IsRelevant(rec domain.Record) bool {
	if _, ok := f.whitelist[rec.SearchTerm]; ok {
		return true
	}
	tokens, ok := f.rules[rec.SearchTerm]
	if !ok {
		return true
	}

	text := strings.ToLower(rec.Title + " " + rec.Content + " " + rec.Author)
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

// Filter keeps relevant records in input order.
func (f *RelevanceFilter) Filter(records []domain.Record) []domain.Record {
	if len(records) == 0 {
		return nil
	}
	kept := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		if f.IsRelevant(rec) {
			kept = append(kept, rec)
		}
	}
	if removed := len(records) - len(kept); removed > 0 {
		f.logger.Info("relevance filter", "removed", removed, "kept", len(kept))
	}
	return kept
}

// Removed returns the records Filter would drop, for debugging.
func (f *RelevanceFilter) Removed(records []domain.Record) []domain.Record {
	var removed []domain.Record
	for _, rec := range records {
		if !f.IsRelevant(rec) {
			removed = append(removed, rec)
		}
	}
	return removed
}
