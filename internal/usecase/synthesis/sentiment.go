// Package synthesis derives report-level judgments from the merged collection
// result: sentiment aggregation, executive summary, and risk assessment. All
// functions are pure; empty or marker-only input always yields a defined
// result.
package synthesis

import (
	"math"
	"sort"

	"premarket-brief/internal/domain/entity"
)

// AnalyzeSentiment aggregates news tone and sector breadth. Error-marker
// items are excluded from every count and from the impact average; the story
// counts sum to the number of real items considered. The sector split comes
// from the performance map (sector name to percent change), which may be
// empty.
func AnalyzeSentiment(items []entity.NewsItem, themes []string, sectorPct map[string]float64) entity.SentimentAnalysis {
	var positive, negative, neutral int
	var totalImpact float64

	for _, item := range items {
		if item.IsErrorMarker() {
			continue
		}
		switch item.Sentiment {
		case entity.SentimentPositive:
			positive++
		case entity.SentimentNegative:
			negative++
		default:
			neutral++
		}
		totalImpact += item.ImpactScore
	}

	considered := positive + negative + neutral
	var avgImpact float64
	if considered > 0 {
		avgImpact = round1(totalImpact / float64(considered))
	}

	overall := entity.SentimentNeutral
	if positive > negative {
		overall = entity.SentimentPositive
	} else if negative > positive {
		overall = entity.SentimentNegative
	}

	return entity.SentimentAnalysis{
		OverallSentiment:   overall,
		AverageImpactScore: avgImpact,
		PositiveStories:    positive,
		NegativeStories:    negative,
		NeutralStories:     neutral,
		KeyThemes:          NormalizeThemes(themes),
		SectorSentiment:    splitSectors(sectorPct),
	}
}

// splitSectors buckets sectors by the sign of their percent change. Flat
// sectors land in neither bucket.
func splitSectors(sectorPct map[string]float64) entity.SectorSentiment {
	sentiment := entity.SectorSentiment{
		PositiveSectors: []string{},
		NegativeSectors: []string{},
	}
	for sector, pct := range sectorPct {
		switch {
		case pct > 0:
			sentiment.PositiveSectors = append(sentiment.PositiveSectors, sector)
		case pct < 0:
			sentiment.NegativeSectors = append(sentiment.NegativeSectors, sector)
		}
	}
	sort.Strings(sentiment.PositiveSectors)
	sort.Strings(sentiment.NegativeSectors)
	sentiment.Balance = len(sentiment.PositiveSectors) - len(sentiment.NegativeSectors)
	return sentiment
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
