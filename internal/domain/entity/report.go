package entity

import "time"

// MarketDirection is the overall market bias stated in the executive summary.
type MarketDirection string

const (
	DirectionBullish MarketDirection = "bullish"
	DirectionBearish MarketDirection = "bearish"
	DirectionNeutral MarketDirection = "neutral"
)

// RiskLevel is the three-bucket overall risk classification.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ExecutiveSummary is the report's headline judgment.
type ExecutiveSummary struct {
	MarketSentiment    MarketDirection `json:"market_sentiment"`
	KeyInsights        []string        `json:"key_insights"`
	RiskLevel          RiskLevel       `json:"risk_level"`
	RecommendedActions []string        `json:"recommended_actions"`
}

// SectorSentiment splits sectors into positive and negative performers.
// Balance is len(Positive) - len(Negative).
type SectorSentiment struct {
	PositiveSectors []string `json:"positive_sectors"`
	NegativeSectors []string `json:"negative_sectors"`
	Balance         int      `json:"sector_balance"`
}

// SentimentAnalysis aggregates news sentiment for the report's sector/news
// analysis section. The story counts always sum to the number of non-marker
// items considered.
type SentimentAnalysis struct {
	OverallSentiment   Sentiment       `json:"overall_sentiment"`
	AverageImpactScore float64         `json:"average_impact_score"`
	PositiveStories    int             `json:"positive_stories"`
	NegativeStories    int             `json:"negative_stories"`
	NeutralStories     int             `json:"neutral_stories"`
	KeyThemes          []string        `json:"key_themes"`
	SectorSentiment    SectorSentiment `json:"sector_sentiment"`
}

// RiskAssessment is the synthesized risk section. PrimaryRisks is never
// empty: defaults are substituted when no signal fires.
type RiskAssessment struct {
	OverallRiskLevel       RiskLevel `json:"overall_risk_level"`
	VIXLevel               float64   `json:"vix_level"`
	VolatilityRegime       string    `json:"volatility_regime"`
	PrimaryRisks           []string  `json:"primary_risks"`
	HedgingRecommendations []string  `json:"hedging_recommendations"`
	OpportunityAreas       []string  `json:"opportunity_areas"`
}

// IndexSnapshot is one row of the scraped market-overview table. Price and
// Change stay strings because the source formats them for display.
type IndexSnapshot struct {
	Price  string `json:"price"`
	Change string `json:"change"`
}

// MarketOverview is the scraped market-wide snapshot: index table, a VIX
// reading when one was found, and top movers.
type MarketOverview struct {
	Indexes map[string]IndexSnapshot `json:"indexes"`
	VIX     float64                  `json:"vix"`
	HasVIX  bool                     `json:"has_vix"`
	Gainers []string                 `json:"gainers"`
	Losers  []string                 `json:"losers"`
}

// ReportData is the root aggregate: the sole artifact handed to external
// collaborators (renderer, publisher, narrator). It is constructed once per
// run and read-only afterwards.
type ReportData struct {
	Date              string            `json:"date"`
	GeneratedAt       time.Time         `json:"generated_at"`
	ExecutiveSummary  ExecutiveSummary  `json:"executive_summary"`
	MarketPerformance MarketPerformance `json:"market_performance"`
	NewsEvents        []NewsItem        `json:"news_events"`
	SectorAnalysis    SentimentAnalysis `json:"sector_analysis"`
	SectorRotation    SectorRotation    `json:"sector_rotation"`
	MarketOverview    MarketOverview    `json:"market_overview"`
	EconomicCalendar  []EconomicEvent   `json:"economic_calendar"`
	RiskAssessment    RiskAssessment    `json:"risk_assessment"`
	EarningsCalendar  []EarningsEvent   `json:"earnings_calendar"`
}
