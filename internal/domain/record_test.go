package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		score float64
		want  Label
	}{
		{0.6, LabelPositive},
		{0.95, LabelPositive},
		{0.59, LabelNeutral},
		{0.41, LabelNeutral},
		{0.4, LabelNegative},
		{0, LabelNegative},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LabelFor(tc.score, DefaultPositiveThreshold, DefaultNegativeThreshold), "score %v", tc.score)
	}
}

func TestFingerprints(t *testing.T) {
	t.Parallel()

	a := Record{Title: "t", Author: "a", Source: SourceSearchIndex, URL: "https://x/1"}
	b := a
	b.URL = "https://x/2"
	b.Content = "different summary"

	assert.NotEqual(t, a.URLFingerprint(), b.URLFingerprint())
	assert.Equal(t, a.ContentFingerprint(), b.ContentFingerprint())
	assert.Len(t, a.RecordID(), 16)
	assert.Equal(t, a.URLFingerprint()[:16], a.RecordID())
}

func TestWithSentimentCopies(t *testing.T) {
	t.Parallel()

	r := Record{Title: "t", URL: "u"}
	scored := r.WithSentiment(Sentiment{Label: LabelPositive, Score: 0.8})

	assert.Nil(t, r.Sentiment)
	if assert.NotNil(t, scored.Sentiment) {
		assert.Equal(t, LabelPositive, scored.Sentiment.Label)
	}
	assert.True(t, scored.Valid())
	assert.False(t, Record{Title: "only title"}.Valid())
}
