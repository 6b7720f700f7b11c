// Package collect composes the individual provider clients behind a single
// capability-oriented interface. Each capability has a fixed fallback chain;
// a source that errors or yields nothing usable hands over to the next, and
// when the chain is spent the capability's documented empty or error-marker
// representation is returned. No provider failure ever escapes Gather.
package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"premarket-brief/internal/domain/entity"
	"premarket-brief/internal/observability/logging"
	"premarket-brief/internal/observability/metrics"
	"premarket-brief/internal/observability/tracing"
	"premarket-brief/pkg/config"

	"golang.org/x/sync/errgroup"
)

// Provider names used in fallback records and metric labels.
const (
	providerPolygon      = "polygon"
	providerAlphaVantage = "alpha_vantage"
	providerFRED         = "fred"
	providerFinviz       = "finviz"
	providerForexFactory = "forexfactory"
)

const (
	// defaultNewsLimit caps the news items requested per run.
	defaultNewsLimit = 10

	// capabilityTimeout bounds one capability branch end to end, retries and
	// fallback source included.
	capabilityTimeout = 2 * time.Minute
)

// Sources holds the provider clients behind each capability. The chain
// ordering is fixed: quotes, news, and the economic calendar each try their
// primary source then their fallback, and the remaining capabilities have a
// single source each.
type Sources struct {
	PrimaryQuotes    QuoteSource
	FallbackQuotes   QuoteSource
	PrimaryNews      NewsSource
	FallbackNews     HeadlineSource
	Sectors          SectorSource
	PrimaryCalendar  EconomicCalendarSource
	FallbackCalendar EconomicCalendarSource
	Earnings         EarningsSource
	Overview         OverviewSource
}

// Result is the merged output of one collection run, handed unchanged to the
// synthesis engine. Empty sections are represented, never nil maps.
type Result struct {
	Performance       entity.MarketPerformance
	News              []entity.NewsItem
	Themes            []string
	Rotation          entity.SectorRotation
	Calendar          []entity.EconomicEvent
	Earnings          []entity.EarningsEvent
	Overview          entity.MarketOverview
	SectorPerformance map[string]float64
	FallbacksTaken    []string
	Duration          time.Duration
}

// Service is the unified collector. One instance serves one run; provider
// budgets hang off the injected sources and are reset by the caller between
// runs.
type Service struct {
	sources    Sources
	symbols    config.Symbols
	thresholds config.Thresholds
	now        func() time.Time
}

// NewService builds the unified collector from the provider clients and the
// configured symbol tables.
func NewService(cfg config.Config, sources Sources) *Service {
	return &Service{
		sources:    sources,
		symbols:    cfg.Symbols,
		thresholds: cfg.Thresholds,
		now:        time.Now,
	}
}

// Gather fans out over all capabilities, joins the results, and returns the
// merged data model. Branch failures degrade to that capability's empty or
// marker representation; they never abort sibling branches and never surface
// as an error.
func (s *Service) Gather(ctx context.Context) Result {
	logger := logging.FromContext(ctx)
	start := s.now()

	res := Result{
		Performance:       entity.MarketPerformance{},
		News:              []entity.NewsItem{},
		Themes:            []string{},
		Rotation:          entity.EmptySectorRotation(),
		Calendar:          []entity.EconomicEvent{},
		Earnings:          []entity.EarningsEvent{},
		SectorPerformance: map[string]float64{},
		FallbacksTaken:    []string{},
	}

	var (
		quoteFallbacks    []string
		newsFallback      string
		calendarFallback  string
		overviewSectorPct map[string]float64
	)

	g := new(errgroup.Group)

	g.Go(func() error {
		res.Performance, quoteFallbacks = s.collectQuotes(ctx)
		return nil
	})
	g.Go(func() error {
		res.News, res.Themes, newsFallback = s.collectNews(ctx)
		return nil
	})
	g.Go(func() error {
		res.Rotation = s.collectRotation(ctx)
		return nil
	})
	g.Go(func() error {
		res.Calendar, calendarFallback = s.collectCalendar(ctx)
		return nil
	})
	g.Go(func() error {
		res.Earnings = s.collectEarnings(ctx)
		return nil
	})
	g.Go(func() error {
		res.Overview, overviewSectorPct = s.collectOverview(ctx)
		return nil
	})

	// Branches only ever return nil; the join exists for its barrier.
	_ = g.Wait()

	res.FallbacksTaken = append(res.FallbacksTaken, quoteFallbacks...)
	if newsFallback != "" {
		res.FallbacksTaken = append(res.FallbacksTaken, newsFallback)
	}
	if calendarFallback != "" {
		res.FallbacksTaken = append(res.FallbacksTaken, calendarFallback)
	}
	if len(overviewSectorPct) > 0 {
		res.SectorPerformance = overviewSectorPct
	}
	res.Duration = s.now().Sub(start)

	logger.Info("collection run completed",
		slog.Int("news_items", len(res.News)),
		slog.Int("calendar_events", len(res.Calendar)),
		slog.Int("earnings_events", len(res.Earnings)),
		slog.Int("sectors", len(res.Rotation.WeeklyPerformance)),
		slog.Any("fallbacks", res.FallbacksTaken),
		slog.Duration("duration", res.Duration),
	)
	return res
}

// collectQuotes fills the market-performance categories. The previous_close
// and international boards try the primary quote source first and hand over
// to the fallback source when nothing comes back; current_prices always comes
// from the fallback source, and stands in for previous_close when the chain
// produced nothing there.
func (s *Service) collectQuotes(ctx context.Context) (entity.MarketPerformance, []string) {
	ctx, cancel := context.WithTimeout(ctx, capabilityTimeout)
	defer cancel()
	ctx, span := tracing.GetTracer().Start(ctx, "collect.quotes")
	defer span.End()
	start := s.now()

	var fallbacks []string
	perf := entity.MarketPerformance{
		"previous_close": entity.QuoteBoard{},
		"international":  entity.QuoteBoard{},
		"current_prices": entity.QuoteBoard{},
	}

	prev, usedFallback := s.boardWithFallback(ctx, "previous_close", s.symbols.Futures)
	if usedFallback {
		fallbacks = append(fallbacks, "quotes:"+providerAlphaVantage)
	}
	perf["previous_close"] = prev

	intl, usedFallback := s.boardWithFallback(ctx, "international", s.symbols.International)
	if usedFallback {
		fallbacks = append(fallbacks, "international:"+providerAlphaVantage)
	}
	perf["international"] = intl

	if s.sources.FallbackQuotes != nil {
		cur, err := s.sources.FallbackQuotes.Quotes(ctx, s.symbols.Futures)
		if err != nil {
			logging.FromContext(ctx).Warn("current price board unavailable",
				slog.String("provider", providerAlphaVantage),
				slog.Any("error", err))
		}
		if len(cur) > 0 {
			perf["current_prices"] = cur
		}
	}

	// A run with no previous-session closes still carries whatever live
	// prices came back, so downstream sections have something to anchor on.
	if len(perf["previous_close"]) == 0 && len(perf["current_prices"]) > 0 {
		board := entity.QuoteBoard{}
		for label, q := range perf["current_prices"] {
			board[label] = q
		}
		perf["previous_close"] = board
	}

	for category, board := range perf {
		metrics.UpdateQuotesCollected(category, len(board))
	}
	metrics.RecordCapabilityDuration("quotes", s.now().Sub(start))
	return perf, fallbacks
}

// boardWithFallback runs one quote category down the fixed chain. A source
// counts as usable only when it returned at least one quote; errors and empty
// boards both advance the chain.
func (s *Service) boardWithFallback(ctx context.Context, category string, symbols map[string]string) (entity.QuoteBoard, bool) {
	logger := logging.FromContext(ctx)

	if s.sources.PrimaryQuotes != nil {
		board, err := s.sources.PrimaryQuotes.Quotes(ctx, symbols)
		if err != nil {
			logger.Warn("primary quote source failed",
				slog.String("category", category),
				slog.String("provider", providerPolygon),
				slog.Any("error", err))
		}
		if len(board) > 0 {
			return board, false
		}
	}

	if s.sources.FallbackQuotes == nil {
		return entity.QuoteBoard{}, false
	}
	metrics.RecordFallback("quotes", providerPolygon, providerAlphaVantage)
	board, err := s.sources.FallbackQuotes.Quotes(ctx, symbols)
	if err != nil {
		logger.Warn("fallback quote source failed",
			slog.String("category", category),
			slog.String("provider", providerAlphaVantage),
			slog.Any("error", err))
	}
	if len(board) > 0 {
		return board, true
	}
	return entity.QuoteBoard{}, false
}

// collectNews walks the Alpha Vantage to Finviz chain. The scraped headlines
// carry keyword-derived sentiment but no topic tags, so a fallback serve
// returns empty themes. Only both sources failing degrades to one
// error-marker item so the report can show the section failed rather than
// showing it empty. Returns the fallback record when the scraper served.
func (s *Service) collectNews(ctx context.Context) ([]entity.NewsItem, []string, string) {
	ctx, cancel := context.WithTimeout(ctx, capabilityTimeout)
	defer cancel()
	ctx, span := tracing.GetTracer().Start(ctx, "collect.news")
	defer span.End()
	logger := logging.FromContext(ctx)
	start := s.now()
	defer func() { metrics.RecordCapabilityDuration("news", s.now().Sub(start)) }()

	var primaryErr error
	if s.sources.PrimaryNews != nil {
		items, themes, err := s.sources.PrimaryNews.NewsWithSentiment(ctx, s.symbols.News, defaultNewsLimit)
		if err != nil {
			primaryErr = err
			logger.Warn("primary news source failed",
				slog.String("provider", providerAlphaVantage),
				slog.Any("error", err))
		}
		if err == nil && entity.UsableNews(items) {
			metrics.UpdateNewsItemsCollected(len(items))
			return items, themes, ""
		}
	}

	if s.sources.FallbackNews != nil {
		metrics.RecordFallback("news", providerAlphaVantage, providerFinviz)
		items, err := s.sources.FallbackNews.News(ctx, defaultNewsLimit)
		if err != nil {
			logger.Warn("fallback news source failed",
				slog.String("provider", providerFinviz),
				slog.Any("error", err))
		}
		if entity.UsableNews(items) {
			metrics.UpdateNewsItemsCollected(len(items))
			return items, []string{}, "news:" + providerFinviz
		}
	}

	metrics.UpdateNewsItemsCollected(0)
	reason := "no usable news from any source"
	if primaryErr != nil {
		reason = fmt.Sprintf("news unavailable: %v", primaryErr)
	}
	return []entity.NewsItem{entity.NewErrorNewsItem(reason)}, []string{}, ""
}

// collectRotation has a single source. Anything short of three resolved
// sectors degrades to the empty rotation; ranking over one or two sectors
// would label noise as leadership.
func (s *Service) collectRotation(ctx context.Context) entity.SectorRotation {
	ctx, cancel := context.WithTimeout(ctx, capabilityTimeout)
	defer cancel()
	ctx, span := tracing.GetTracer().Start(ctx, "collect.sector_rotation")
	defer span.End()
	start := s.now()
	defer func() { metrics.RecordCapabilityDuration("sector_rotation", s.now().Sub(start)) }()

	if s.sources.Sectors == nil {
		return entity.EmptySectorRotation()
	}

	snapshots, err := s.sources.Sectors.SectorSnapshots(ctx, s.symbols.Sectors)
	if err != nil {
		logging.FromContext(ctx).Warn("sector snapshot collection failed",
			slog.String("provider", providerPolygon),
			slog.Any("error", err))
	}
	if len(snapshots) < minSectorsForRotation {
		return entity.EmptySectorRotation()
	}
	return buildRotation(snapshots, s.thresholds)
}

// collectCalendar walks the FRED to ForexFactory chain. Both sources failing
// with a real error yields a marker event; both reporting genuinely no data
// yields an empty list. Returns the fallback record when the scraper served.
func (s *Service) collectCalendar(ctx context.Context) ([]entity.EconomicEvent, string) {
	ctx, cancel := context.WithTimeout(ctx, capabilityTimeout)
	defer cancel()
	ctx, span := tracing.GetTracer().Start(ctx, "collect.economic_calendar")
	defer span.End()
	logger := logging.FromContext(ctx)
	start := s.now()
	defer func() { metrics.RecordCapabilityDuration("economic_calendar", s.now().Sub(start)) }()

	today := s.now()

	var primaryErr error
	if s.sources.PrimaryCalendar != nil {
		events, err := s.sources.PrimaryCalendar.EconomicCalendar(ctx, today)
		if err != nil {
			primaryErr = err
			logger.Warn("primary calendar source failed",
				slog.String("provider", providerFRED),
				slog.Any("error", err))
		}
		if len(events) > 0 {
			return events, ""
		}
	}

	if s.sources.FallbackCalendar == nil {
		return calendarFailure(primaryErr), ""
	}
	metrics.RecordFallback("economic_calendar", providerFRED, providerForexFactory)
	events, err := s.sources.FallbackCalendar.EconomicCalendar(ctx, today)
	if err != nil {
		logger.Warn("fallback calendar source failed",
			slog.String("provider", providerForexFactory),
			slog.Any("error", err))
		return calendarFailure(err), ""
	}
	if len(events) == 0 {
		return []entity.EconomicEvent{}, ""
	}
	return events, "economic_calendar:" + providerForexFactory
}

// calendarFailure distinguishes "the day has no releases" from "we could not
// find out". Only the latter earns a marker event.
func calendarFailure(err error) []entity.EconomicEvent {
	if err == nil || errors.Is(err, entity.ErrNoData) {
		return []entity.EconomicEvent{}
	}
	return []entity.EconomicEvent{
		entity.NewErrorEconomicEvent(fmt.Sprintf("economic calendar unavailable: %v", err)),
	}
}

// collectEarnings has a single source; failure degrades to a marker entry.
func (s *Service) collectEarnings(ctx context.Context) []entity.EarningsEvent {
	ctx, cancel := context.WithTimeout(ctx, capabilityTimeout)
	defer cancel()
	ctx, span := tracing.GetTracer().Start(ctx, "collect.earnings_calendar")
	defer span.End()
	start := s.now()
	defer func() { metrics.RecordCapabilityDuration("earnings_calendar", s.now().Sub(start)) }()

	if s.sources.Earnings == nil {
		return []entity.EarningsEvent{entity.NewErrorEarningsEvent("no earnings source configured")}
	}

	events, err := s.sources.Earnings.EarningsCalendar(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("earnings calendar collection failed",
			slog.String("provider", providerAlphaVantage),
			slog.Any("error", err))
		return []entity.EarningsEvent{entity.NewErrorEarningsEvent(fmt.Sprintf("earnings calendar unavailable: %v", err))}
	}
	return events
}

// collectOverview gathers the scraped market context. Each sub-section
// degrades independently; a run can come back with indexes but no movers.
func (s *Service) collectOverview(ctx context.Context) (entity.MarketOverview, map[string]float64) {
	ctx, cancel := context.WithTimeout(ctx, capabilityTimeout)
	defer cancel()
	ctx, span := tracing.GetTracer().Start(ctx, "collect.market_overview")
	defer span.End()
	logger := logging.FromContext(ctx)
	start := s.now()
	defer func() { metrics.RecordCapabilityDuration("market_overview", s.now().Sub(start)) }()

	overview := entity.MarketOverview{
		Indexes: map[string]entity.IndexSnapshot{},
		Gainers: []string{},
		Losers:  []string{},
	}
	sectorPct := map[string]float64{}
	if s.sources.Overview == nil {
		return overview, sectorPct
	}

	if ov, err := s.sources.Overview.MarketOverview(ctx); err != nil {
		logger.Warn("market overview scrape failed", slog.Any("error", err))
	} else {
		overview.Indexes = ov.Indexes
		overview.VIX = ov.VIX
		overview.HasVIX = ov.HasVIX
	}

	if gainers, losers, err := s.sources.Overview.TopMovers(ctx); err != nil {
		logger.Warn("top movers scrape failed", slog.Any("error", err))
	} else {
		overview.Gainers = gainers
		overview.Losers = losers
	}

	if pct, err := s.sources.Overview.SectorPerformance(ctx); err != nil {
		logger.Warn("sector performance scrape failed", slog.Any("error", err))
	} else if len(pct) > 0 {
		sectorPct = pct
	}

	return overview, sectorPct
}
