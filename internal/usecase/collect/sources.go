package collect

import (
	"context"
	"time"

	"premarket-brief/internal/domain/entity"
)

// QuoteSource serves one board of quotes for a symbol table. Keys of the
// symbols map are tickers, values are the display labels the board is keyed
// by.
type QuoteSource interface {
	Quotes(ctx context.Context, symbols map[string]string) (entity.QuoteBoard, error)
}

// NewsSource serves classified news items plus the raw topic tags attached to
// them. Topic tags are provider-shaped strings; theme normalization happens
// downstream.
type NewsSource interface {
	NewsWithSentiment(ctx context.Context, symbols []string, limit int) ([]entity.NewsItem, []string, error)
}

// HeadlineSource serves scored headlines already classified for sentiment.
// Unlike NewsSource it carries no provider topic tags; theme synthesis falls
// back to the default list when this source serves.
type HeadlineSource interface {
	News(ctx context.Context, maxArticles int) ([]entity.NewsItem, error)
}

// SectorSource serves per-sector weekly performance snapshots.
type SectorSource interface {
	SectorSnapshots(ctx context.Context, sectors map[string]string) (map[string]entity.SectorSnapshot, error)
}

// EconomicCalendarSource serves the day's scheduled economic releases.
type EconomicCalendarSource interface {
	EconomicCalendar(ctx context.Context, date time.Time) ([]entity.EconomicEvent, error)
}

// EarningsSource serves the upcoming earnings calendar.
type EarningsSource interface {
	EarningsCalendar(ctx context.Context) ([]entity.EarningsEvent, error)
}

// OverviewSource serves the scraped market-wide context: index snapshot table
// with a VIX reading, top movers, and sector performance percentages.
type OverviewSource interface {
	MarketOverview(ctx context.Context) (entity.MarketOverview, error)
	TopMovers(ctx context.Context) (gainers, losers []string, err error)
	SectorPerformance(ctx context.Context) (map[string]float64, error)
}

// DatelessCalendar adapts a calendar scraper that always serves "today" to
// the EconomicCalendarSource contract.
type DatelessCalendar struct {
	Scraper interface {
		EconomicCalendar(ctx context.Context) ([]entity.EconomicEvent, error)
	}
}

// EconomicCalendar ignores the requested date; the underlying scraper only
// exposes the current day.
func (d DatelessCalendar) EconomicCalendar(ctx context.Context, _ time.Time) ([]entity.EconomicEvent, error) {
	return d.Scraper.EconomicCalendar(ctx)
}
