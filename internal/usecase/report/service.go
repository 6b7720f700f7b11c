// Package report assembles the per-run ReportData root aggregate and persists
// the diagnostic artifacts: a JSON snapshot keyed by run date and a small
// run-metadata record. ReportData is built once per run and never mutated
// afterwards.
package report

import (
	"sort"
	"time"

	"premarket-brief/internal/domain/entity"
	"premarket-brief/internal/usecase/collect"
	"premarket-brief/internal/usecase/synthesis"
	"premarket-brief/pkg/config"
)

// Service owns report assembly and snapshot persistence for one run.
type Service struct {
	outputDir  string
	location   *time.Location
	thresholds config.Thresholds
	now        func() time.Time
}

// NewService builds the assembler from the output directory, report timezone,
// and synthesis thresholds.
func NewService(cfg config.Config) *Service {
	return &Service{
		outputDir:  cfg.OutputDir,
		location:   cfg.Location(),
		thresholds: cfg.Thresholds,
		now:        time.Now,
	}
}

// Assemble runs the synthesis engine over the merged collection result and
// packages everything into the immutable root aggregate. News lands sorted by
// impact score descending; every map and slice field is represented, never
// nil.
func (s *Service) Assemble(res collect.Result) entity.ReportData {
	now := s.now().In(s.location)

	sectorPct := sectorPerformance(res)
	sentiment := synthesis.AnalyzeSentiment(res.News, res.Themes, sectorPct)
	risk := synthesis.AssessRisk(sentiment, res.Rotation, res.Earnings, res.Overview, sectorPct, s.thresholds)
	summary := synthesis.BuildExecutiveSummary(res.Performance, sentiment, res.Rotation, res.Overview, risk, s.thresholds)

	return entity.ReportData{
		Date:              now.Format("2006-01-02"),
		GeneratedAt:       now,
		ExecutiveSummary:  summary,
		MarketPerformance: res.Performance,
		NewsEvents:        sortedByImpact(res.News),
		SectorAnalysis:    sentiment,
		SectorRotation:    res.Rotation,
		MarketOverview:    res.Overview,
		EconomicCalendar:  res.Calendar,
		RiskAssessment:    risk,
		EarningsCalendar:  res.Earnings,
	}
}

// sectorPerformance picks the sector percent map the synthesis runs on: the
// scraped performance page when it resolved, otherwise the weekly returns
// behind the rotation aggregate.
func sectorPerformance(res collect.Result) map[string]float64 {
	if len(res.SectorPerformance) > 0 {
		return res.SectorPerformance
	}
	pct := make(map[string]float64, len(res.Rotation.WeeklyPerformance))
	for sector, snap := range res.Rotation.WeeklyPerformance {
		pct[sector] = snap.WeeklyReturn
	}
	return pct
}

// sortedByImpact returns a copy ordered highest impact first. Error markers
// carry impact 0 and naturally sink to the bottom. The sort is stable so
// equal-impact items keep their collection order.
func sortedByImpact(items []entity.NewsItem) []entity.NewsItem {
	sorted := make([]entity.NewsItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ImpactScore > sorted[j].ImpactScore
	})
	return sorted
}
