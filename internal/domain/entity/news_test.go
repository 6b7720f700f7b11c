package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewErrorNewsItem(t *testing.T) {
	item := NewErrorNewsItem("rate limit reached")

	assert.True(t, item.IsErrorMarker())
	assert.Equal(t, ErrorSource, item.Headline)
	assert.Equal(t, "rate limit reached", item.Summary)
	assert.Equal(t, SentimentNeutral, item.Sentiment)
	assert.Equal(t, 0.0, item.ImpactScore)
}

func TestClampImpactScore(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  float64
	}{
		{"below floor", 0.2, 1.0},
		{"negative", -3, 1.0},
		{"in range", 7.8, 7.8},
		{"above ceiling", 12.5, 10.0},
		{"at bounds", 10.0, 10.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampImpactScore(tt.score))
		})
	}
}

func TestUsableNews(t *testing.T) {
	assert.False(t, UsableNews(nil))
	assert.False(t, UsableNews([]NewsItem{NewErrorNewsItem("boom")}))
	assert.True(t, UsableNews([]NewsItem{
		NewErrorNewsItem("boom"),
		{Headline: "Fed holds rates", Source: "Reuters", Sentiment: SentimentNeutral, ImpactScore: 8.5},
	}))
}
