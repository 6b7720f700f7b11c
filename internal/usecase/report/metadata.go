package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"premarket-brief/internal/domain/entity"
	"premarket-brief/internal/usecase/collect"

	"github.com/google/uuid"
)

// Run result classifications for the metadata record and run metrics.
const (
	RunSuccess = "success"
	RunPartial = "partial"
	RunFailure = "failure"
)

// RunMetadata is the diagnostic record written alongside each snapshot:
// what was collected, which fallback paths were taken, and how long the run
// took. Renderers never read it; operators do.
type RunMetadata struct {
	RunID             string         `json:"run_id"`
	Date              string         `json:"date"`
	GeneratedAt       time.Time      `json:"generated_at"`
	Result            string         `json:"result"`
	NewsItems         int            `json:"news_items"`
	CalendarEvents    int            `json:"calendar_events"`
	EarningsEvents    int            `json:"earnings_events"`
	SectorsResolved   int            `json:"sectors_resolved"`
	QuoteCounts       map[string]int `json:"quote_counts"`
	FallbacksTaken    []string       `json:"fallbacks_taken"`
	CollectDurationMS int64          `json:"collect_duration_ms"`
}

// NewRunID mints the identifier that threads through a run's logs and its
// metadata record.
func NewRunID() string {
	return uuid.NewString()
}

// BuildRunMetadata summarizes one run for the metadata record.
func (s *Service) BuildRunMetadata(runID string, report entity.ReportData, res collect.Result) RunMetadata {
	quoteCounts := make(map[string]int, len(res.Performance))
	for category, board := range res.Performance {
		quoteCounts[category] = len(board)
	}

	return RunMetadata{
		RunID:             runID,
		Date:              report.Date,
		GeneratedAt:       report.GeneratedAt,
		Result:            ClassifyRun(res),
		NewsItems:         countRealNews(res.News),
		CalendarEvents:    countRealCalendar(res.Calendar),
		EarningsEvents:    countRealEarnings(res.Earnings),
		SectorsResolved:   len(res.Rotation.WeeklyPerformance),
		QuoteCounts:       quoteCounts,
		FallbacksTaken:    res.FallbacksTaken,
		CollectDurationMS: res.Duration.Milliseconds(),
	}
}

// WriteRunMetadata persists the record next to the snapshot and returns the
// written path.
func (s *Service) WriteRunMetadata(meta RunMetadata) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal run metadata: %w", err)
	}

	path := filepath.Join(s.outputDir, fmt.Sprintf("run_metadata_%s.json", meta.Date))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write run metadata: %w", err)
	}
	return path, nil
}

// ClassifyRun grades a collection result. A run where every capability came
// back real is a success; a run where nothing usable came back at all is a
// failure; everything in between is partial.
func ClassifyRun(res collect.Result) string {
	quotes := 0
	for _, board := range res.Performance {
		quotes += len(board)
	}
	newsReal := countRealNews(res.News)
	calendarReal := countRealCalendar(res.Calendar)
	earningsReal := countRealEarnings(res.Earnings)
	sectors := len(res.Rotation.WeeklyPerformance)

	if quotes == 0 && newsReal == 0 && calendarReal == 0 && earningsReal == 0 && sectors == 0 {
		return RunFailure
	}
	degraded := len(res.FallbacksTaken) > 0 ||
		newsReal == 0 || calendarReal == 0 || earningsReal == 0 ||
		quotes == 0 || sectors == 0
	if degraded {
		return RunPartial
	}
	return RunSuccess
}

func countRealNews(items []entity.NewsItem) int {
	count := 0
	for _, item := range items {
		if !item.IsErrorMarker() {
			count++
		}
	}
	return count
}

func countRealCalendar(events []entity.EconomicEvent) int {
	count := 0
	for _, e := range events {
		if !e.IsErrorMarker() {
			count++
		}
	}
	return count
}

func countRealEarnings(events []entity.EarningsEvent) int {
	count := 0
	for _, e := range events {
		if !e.IsErrorMarker() {
			count++
		}
	}
	return count
}
