package domain

const (
	DefaultPositiveThreshold = 0.6
	DefaultNegativeThreshold = 0.4
	NeutralScore             = 0.5
)

// Label is a derived sentiment class.
type Label string

const (
	LabelPositive Label = "positive"
	LabelNegative Label = "negative"
	LabelNeutral  Label = "neutral"
)

// DisplayName returns the report label.
func (l Label) DisplayName() string {
	switch l {
	case LabelPositive:
		return "积极"
	case LabelNegative:
		return "消极"
	case LabelNeutral:
		return "中立"
	default:
		return string(l)
	}
}

// Sentiment pairs a score in [0,1] with its label; the two never travel apart.
type Sentiment struct {
	Label Label
	Score float64
}

// Neutral is the degraded result used for empty text and scoring failures.
func Neutral() Sentiment {
	return Sentiment{Label: LabelNeutral, Score: NeutralScore}
}

// LabelFor derives the label from a score and the two thresholds.
func LabelFor(score, positive, negative float64) Label {
	switch {
	case score >= positive:
		return LabelPositive
	case score <= negative:
		return LabelNegative
	default:
		return LabelNeutral
	}
}
