package entity

import "time"

// Sentiment classifies the tone of a news item.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ErrorSource is the reserved source label marking an entity that represents
// a recovered fetch or parse failure. Callers distinguish "no data" from
// "failed to get data" by inspecting this field, never by error type.
const ErrorSource = "ERROR"

// Impact score bounds for real news items. Error markers carry 0.
const (
	MinImpactScore = 1.0
	MaxImpactScore = 10.0
)

// NewsItem is a single classified headline. Produced by a collector's parser
// and never mutated afterward.
type NewsItem struct {
	Headline    string    `json:"headline"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"timestamp"`
	Sentiment   Sentiment `json:"sentiment"`
	ImpactScore float64   `json:"impact_score"`
}

// IsErrorMarker reports whether the item signals a recovered failure rather
// than real news.
func (n NewsItem) IsErrorMarker() bool {
	return n.Source == ErrorSource
}

// NewErrorNewsItem builds the error-marker item used when a news fetch or
// parse fails. The reason goes into the summary for diagnostics.
func NewErrorNewsItem(reason string) NewsItem {
	return NewsItem{
		Headline:    ErrorSource,
		Summary:     reason,
		Source:      ErrorSource,
		Sentiment:   SentimentNeutral,
		ImpactScore: 0,
	}
}

// ClampImpactScore forces a score into the [1,10] range real items must obey.
func ClampImpactScore(score float64) float64 {
	if score < MinImpactScore {
		return MinImpactScore
	}
	if score > MaxImpactScore {
		return MaxImpactScore
	}
	return score
}

// UsableNews reports whether the list contains at least one non-marker item.
// A list of only error markers counts as "failed", not "empty".
func UsableNews(items []NewsItem) bool {
	for _, n := range items {
		if !n.IsErrorMarker() {
			return true
		}
	}
	return false
}
