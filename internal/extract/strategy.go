// Package extract turns per-item DOM fragments into records using ordered
// fallback strategies for every field.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy pulls one candidate value out of an item fragment.
type Strategy func(item *goquery.Selection) string

// Strategies is an ordered policy list; earlier entries win.
type Strategies []Strategy

// First returns the first non-empty value accepted by plausible (nil accepts all).
func (s Strategies) First(item *goquery.Selection, plausible func(string) bool) string {
	for _, strategy := range s {
		value := strategy(item)
		if value == "" {
			continue
		}
		if plausible != nil && !plausible(value) {
			continue
		}
		return value
	}
	return ""
}

// Text selects the first element matching selector and returns its trimmed text.
func Text(selector string) Strategy {
	return func(item *goquery.Selection) string {
		return cleanText(item.Find(selector).First().Text())
	}
}

// Attr selects the first element matching selector and returns an attribute.
func Attr(selector, attr string) Strategy {
	return func(item *goquery.Selection) string {
		value, _ := item.Find(selector).First().Attr(attr)
		return strings.TrimSpace(value)
	}
}

// OwnAttr reads an attribute of the item element itself.
func OwnAttr(attr string) Strategy {
	return func(item *goquery.Selection) string {
		value, _ := item.Attr(attr)
		return strings.TrimSpace(value)
	}
}

// TextSelectors builds one Text strategy per selector, preserving order.
func TextSelectors(selectors ...string) Strategies {
	out := make(Strategies, 0, len(selectors))
	for _, sel := range selectors {
		out = append(out, Text(sel))
	}
	return out
}

// Items returns the item set of the first list selector that matches anything.
func Items(doc *goquery.Selection, selectors ...string) *goquery.Selection {
	for _, sel := range selectors {
		if found := doc.Find(sel); found.Length() > 0 {
			return found
		}
	}
	return doc.Slice(0, 0)
}

func cleanText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
