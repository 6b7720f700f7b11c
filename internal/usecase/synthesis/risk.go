package synthesis

import (
	"fmt"
	"sort"
	"strings"

	"premarket-brief/internal/domain/entity"
	"premarket-brief/pkg/config"
)

// Substituted when no concrete risk or opportunity signal fired, so neither
// list is ever empty.
var (
	defaultRisks = []string{
		"Standard market volatility",
		"Geopolitical uncertainties",
	}
	defaultOpportunities = []string{
		"Sector rotation opportunities",
		"Individual stock selection alpha",
	}
	hedgingRecommendations = []string{
		"Consider VIX calls for portfolio protection",
		"Monitor USD strength for international exposure",
		"Watch interest rate sensitivity in duration trades",
	}
)

// AssessRisk grades overall risk off the VIX reading and collects the risk
// and opportunity signals the merged data supports. Without a VIX reading
// the level defaults to medium.
func AssessRisk(
	sentiment entity.SentimentAnalysis,
	rotation entity.SectorRotation,
	earnings []entity.EarningsEvent,
	overview entity.MarketOverview,
	sectorPct map[string]float64,
	th config.Thresholds,
) entity.RiskAssessment {
	level := entity.RiskMedium
	regime := "medium"
	var vix float64
	if overview.HasVIX {
		vix = overview.VIX
		switch {
		case vix > th.VIXHigh:
			level, regime = entity.RiskHigh, "high"
		case vix > th.VIXElevated:
			level, regime = entity.RiskMedium, "medium"
		default:
			level, regime = entity.RiskLow, "low"
		}
	}

	var risks, opportunities []string

	if n := largeCapReleases(earnings); n >= th.EarningsDensity {
		risks = append(risks, fmt.Sprintf("Heavy earnings calendar with %d major releases", n))
	}

	switch rotation.Strength {
	case entity.RotationStrong:
		opportunities = append(opportunities, "Strong sector rotation creating alpha opportunities")
	case entity.RotationWeak:
		risks = append(risks, "Weak sector rotation suggesting broad market uncertainty")
	}

	if sentiment.NegativeStories > sentiment.PositiveStories {
		risks = append(risks, "Negative news sentiment bias")
	}

	if weak := weakSectors(sectorPct, th.SectorWeakness); len(weak) > 0 {
		risks = append(risks, "Sector weakness in "+strings.Join(weak, ", "))
	}

	if overview.HasVIX && vix > th.VIXHigh {
		risks = append(risks, fmt.Sprintf("Elevated volatility environment (VIX > %.0f)", th.VIXHigh))
	}

	if len(rotation.Leaders) > 0 {
		opportunities = append(opportunities, rotation.Leaders[0]+" sector showing relative strength")
	}
	if len(overview.Gainers) > 0 {
		opportunities = append(opportunities, "Momentum opportunities in top gainers")
	}

	if len(risks) == 0 {
		risks = append(risks, defaultRisks...)
	}
	if len(opportunities) == 0 {
		opportunities = append(opportunities, defaultOpportunities...)
	}

	return entity.RiskAssessment{
		OverallRiskLevel:       level,
		VIXLevel:               vix,
		VolatilityRegime:       regime,
		PrimaryRisks:           risks,
		HedgingRecommendations: append([]string{}, hedgingRecommendations...),
		OpportunityAreas:       opportunities,
	}
}

// largeCapReleases counts real large-cap entries on the earnings calendar.
func largeCapReleases(earnings []entity.EarningsEvent) int {
	count := 0
	for _, e := range earnings {
		if !e.IsErrorMarker() && e.MarketCap == entity.LargeCap {
			count++
		}
	}
	return count
}

// weakSectors returns up to two sectors below the weakness threshold, worst
// first.
func weakSectors(sectorPct map[string]float64, threshold float64) []string {
	var weak []string
	for sector, pct := range sectorPct {
		if pct < threshold {
			weak = append(weak, sector)
		}
	}
	sort.Slice(weak, func(i, j int) bool {
		if sectorPct[weak[i]] != sectorPct[weak[j]] {
			return sectorPct[weak[i]] < sectorPct[weak[j]]
		}
		return weak[i] < weak[j]
	})
	if len(weak) > 2 {
		weak = weak[:2]
	}
	return weak
}
