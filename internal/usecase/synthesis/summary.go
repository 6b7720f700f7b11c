package synthesis

import (
	"fmt"

	"premarket-brief/internal/domain/entity"
	"premarket-brief/pkg/config"
)

// defaultVIX stands in when no volatility reading was scraped.
const defaultVIX = 20.0

// BuildExecutiveSummary derives the report's headline judgment. Direction is
// bullish only when the futures board's mean percent change clears the
// configured threshold and sector breadth agrees; the bearish case is
// symmetric. KeyInsights and RecommendedActions are always non-empty.
func BuildExecutiveSummary(
	perf entity.MarketPerformance,
	sentiment entity.SentimentAnalysis,
	rotation entity.SectorRotation,
	overview entity.MarketOverview,
	risk entity.RiskAssessment,
	th config.Thresholds,
) entity.ExecutiveSummary {
	avgChange := perf["previous_close"].AverageChangePercent()
	balance := sentiment.SectorSentiment.Balance

	direction := entity.DirectionNeutral
	switch {
	case avgChange > th.BullishFutures && balance > 0:
		direction = entity.DirectionBullish
	case avgChange < -th.BullishFutures && balance < 0:
		direction = entity.DirectionBearish
	}

	leader := "Technology"
	if len(rotation.Leaders) > 0 {
		leader = rotation.Leaders[0]
	}

	vix := defaultVIX
	if overview.HasVIX {
		vix = overview.VIX
	}

	totalStories := sentiment.PositiveStories + sentiment.NegativeStories + sentiment.NeutralStories

	insights := []string{
		fmt.Sprintf("Overnight futures showing %s bias with average change of %.2f%%", direction, avgChange),
		fmt.Sprintf("Sector rotation: %s leading weekly performance with %d net positive sectors", leader, balance),
		fmt.Sprintf("Volatility regime: %s (VIX: %.1f)", risk.VolatilityRegime, vix),
		fmt.Sprintf("News sentiment: %s across %d stories", sentiment.OverallSentiment, totalStories),
	}

	actions := []string{
		fmt.Sprintf("Monitor %s sector for continued leadership", leader),
		"Watch futures reaction to overnight developments",
		"Prepare for volatility around upcoming earnings releases",
		"Review sector allocation based on weekly rotation patterns",
	}

	return entity.ExecutiveSummary{
		MarketSentiment:    direction,
		KeyInsights:        insights,
		RiskLevel:          risk.OverallRiskLevel,
		RecommendedActions: actions,
	}
}
