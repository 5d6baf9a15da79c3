// Package textnorm normalizes the human-readable strings scraped from listing pages.
package textnorm

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	digitsExpr   = regexp.MustCompile(`\d+`)
	fullDateExpr = regexp.MustCompile(`(\d{4})[年/-](\d{1,2})[月/-](\d{1,2})`)
	monthDayExpr = regexp.MustCompile(`(\d{1,2})[月/-](\d{1,2})`)
)

var immediateMarkers = []string{"刚刚", "刚发布"}

var relativeUnits = []struct {
	marker string
	unit   time.Duration
}{
	{"秒前", time.Second},
	{"分钟前", time.Minute},
	{"小时前", time.Hour},
	{"天前", 24 * time.Hour},
}

var namedDays = []struct {
	marker string
	days   int
}{
	{"昨天", 1},
	{"前天", 2},
}

type dateLayout struct {
	layout   string
	yearless bool
}

// Tried in order against the whole trimmed string. Single-digit layout verbs accept zero padding.
var dateLayouts = []dateLayout{
	{"2006-1-2", false},
	{"2006年1月2日", false},
	{"2006/1/2", false},
	{"1-2", true},
	{"1月2日", true},
}

var timeMarkers = []string{"小时前", "天前", "分钟前", "秒前", "年", "月", "日", "-"}

// ParseTime converts a listing timestamp into an instant relative to ref.
// Results are expressed in ref's location; no timezone conversion happens.
func ParseTime(text string, ref time.Time) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	for _, marker := range immediateMarkers {
		if strings.Contains(text, marker) {
			return ref, true
		}
	}

	for _, rel := range relativeUnits {
		if !strings.Contains(text, rel.marker) {
			continue
		}
		if n, ok := firstNumber(text); ok {
			if int64(n) > math.MaxInt64/int64(rel.unit) {
				return time.Time{}, false
			}
			return ref.Add(-time.Duration(n) * rel.unit), true
		}
	}

	for _, named := range namedDays {
		if strings.Contains(text, named.marker) {
			return ref.AddDate(0, 0, -named.days), true
		}
	}

	for _, l := range dateLayouts {
		parsed, err := time.ParseInLocation(l.layout, text, ref.Location())
		if err != nil {
			continue
		}
		if l.yearless {
			return yearlessDate(int(parsed.Month()), parsed.Day(), ref)
		}
		return parsed, true
	}

	if m := fullDateExpr.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return calendarDate(year, month, day, ref.Location())
	}

	if m := monthDayExpr.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		return yearlessDate(month, day, ref)
	}

	return time.Time{}, false
}

// LooksLikeTime reports whether text resembles a date or relative-time string.
func LooksLikeTime(text string) bool {
	for _, marker := range timeMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// ClampFuture caps instants lying more than skew past ref.
func ClampFuture(t, ref time.Time, skew time.Duration) time.Time {
	if t.After(ref.Add(skew)) {
		return ref
	}
	return t
}

// ParseEpoch extracts a ten-digit unix timestamp such as the ones embedded in
// timeConvert('1704873600') scripts.
func ParseEpoch(text string, loc *time.Location) (time.Time, bool) {
	for _, match := range digitsExpr.FindAllString(text, -1) {
		if len(match) != 10 {
			continue
		}
		secs, err := strconv.ParseInt(match, 10, 64)
		if err != nil {
			continue
		}
		return time.Unix(secs, 0).In(loc), true
	}
	return time.Time{}, false
}

func firstNumber(text string) (int, bool) {
	match := digitsExpr.FindString(text)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}

// yearlessDate fills in ref's year and moves strictly-future dates back one year.
func yearlessDate(month, day int, ref time.Time) (time.Time, bool) {
	parsed, ok := calendarDate(ref.Year(), month, day, ref.Location())
	if !ok {
		return time.Time{}, false
	}
	if parsed.After(ref) {
		return calendarDate(ref.Year()-1, month, day, ref.Location())
	}
	return parsed, true
}

// calendarDate rejects dates that time.Date would silently normalize.
func calendarDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
