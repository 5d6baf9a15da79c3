package textnorm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ref = time.Date(2026, time.January, 10, 12, 0, 0, 0, time.Local)

func TestParseTimeCases(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want time.Time
	}{
		{"just now", "刚刚", ref},
		{"seconds", "30秒前", ref.Add(-30 * time.Second)},
		{"minutes", "15分钟前", ref.Add(-15 * time.Minute)},
		{"hours", "3小时前", time.Date(2026, 1, 10, 9, 0, 0, 0, time.Local)},
		{"days", "2天前", time.Date(2026, 1, 8, 12, 0, 0, 0, time.Local)},
		{"yesterday", "昨天", time.Date(2026, 1, 9, 12, 0, 0, 0, time.Local)},
		{"day before yesterday", "前天", time.Date(2026, 1, 8, 12, 0, 0, 0, time.Local)},
		{"iso date", "2025-12-31", time.Date(2025, 12, 31, 0, 0, 0, 0, time.Local)},
		{"cjk date", "2025年3月7日", time.Date(2025, 3, 7, 0, 0, 0, 0, time.Local)},
		{"slash date", "2025/03/07", time.Date(2025, 3, 7, 0, 0, 0, 0, time.Local)},
		{"month day today", "01-10", time.Date(2026, 1, 10, 0, 0, 0, 0, time.Local)},
		{"month day cjk", "1月9日", time.Date(2026, 1, 9, 0, 0, 0, 0, time.Local)},
		{"month day future moves back", "12-30", time.Date(2025, 12, 30, 0, 0, 0, 0, time.Local)},
		{"embedded full date", "发布于 2025-11-02 08:30", time.Date(2025, 11, 2, 0, 0, 0, 0, time.Local)},
		{"embedded month day", "编辑于 12月31日 北京", time.Date(2025, 12, 31, 0, 0, 0, 0, time.Local)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseTime(tc.in, ref)
			require.True(t, ok, "expected %q to parse", tc.in)
			assert.True(t, tc.want.Equal(got), "want %v, got %v", tc.want, got)
		})
	}
}

func TestParseTimeRejects(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "   ", "13-45", "几天前", "unknown", "2025-02-30"} {
		_, ok := ParseTime(in, ref)
		assert.False(t, ok, "expected %q to be rejected", in)
	}
}

func TestParseTimeRejectsOverflowingRelativeOffsets(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"9999999999999小时前", "99999999天前", "99999999999999999999秒前"} {
		_, ok := ParseTime(in, ref)
		assert.False(t, ok, "expected %q to be rejected", in)
	}

	got, ok := ParseTime("1000天前", ref)
	require.True(t, ok)
	assert.True(t, ref.Add(-1000*24*time.Hour).Equal(got))
}

func TestParseTimeRelativeWithoutDigitFallsThrough(t *testing.T) {
	t.Parallel()

	// No digit before the relative marker, but a named day follows.
	got, ok := ParseTime("小时前 昨天", ref)
	require.True(t, ok)
	assert.True(t, ref.AddDate(0, 0, -1).Equal(got))
}

func TestLooksLikeTime(t *testing.T) {
	t.Parallel()

	assert.True(t, LooksLikeTime("3小时前"))
	assert.True(t, LooksLikeTime("2025-01-01"))
	assert.True(t, LooksLikeTime("1月2日"))
	assert.False(t, LooksLikeTime("砺思资本"))
}

func TestClampFuture(t *testing.T) {
	t.Parallel()

	future := ref.Add(48 * time.Hour)
	assert.Equal(t, ref, ClampFuture(future, ref, time.Hour))
	near := ref.Add(30 * time.Minute)
	assert.Equal(t, near, ClampFuture(near, ref, time.Hour))
}

func TestParseEpoch(t *testing.T) {
	t.Parallel()

	got, ok := ParseEpoch("document.write(timeConvert('1704873600'))", time.UTC)
	require.True(t, ok)
	assert.Equal(t, int64(1704873600), got.Unix())

	_, ok = ParseEpoch("no stamp 2025", time.UTC)
	assert.False(t, ok)
}

func TestParseCount(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"":      0,
		"328":   328,
		"1.2万":  12000,
		"1.2w":  12000,
		"3W+":   30000,
		"赞":     0,
		"1,024": 1024,
		"..":    0,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseCount(in), "input %q", in)
	}

	for _, in := range []string{"99999999999999999999", "9999999999999999万"} {
		assert.Zero(t, ParseCount(in), "input %q", in)
	}
}
