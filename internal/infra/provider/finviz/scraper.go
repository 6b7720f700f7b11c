// Package finviz scrapes news headlines, the market overview, sector
// performance, and top movers from finviz.com.
//
// Finviz has no API, so everything here tolerates markup drift: a missing
// table yields the section's empty representation, never a panic.
package finviz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"premarket-brief/internal/domain/entity"
	"premarket-brief/internal/observability/metrics"
	"premarket-brief/internal/resilience/circuitbreaker"
	"premarket-brief/internal/resilience/retry"
	"premarket-brief/pkg/config"

	"github.com/PuerkitoBio/goquery"
	"github.com/sony/gobreaker"
)

const (
	providerName = "finviz"
	maxBodySize  = 10 * 1024 * 1024 // 10MB
	userAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

	// relevanceCutoff is the minimum impact score a headline needs to make
	// the briefing.
	relevanceCutoff = 6.0
)

// Scraper fetches and parses finviz.com pages.
type Scraper struct {
	client         *http.Client
	baseURL        string
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	now            func() time.Time
}

// NewScraper creates a Finviz scraper with the given HTTP client.
func NewScraper(cfg config.ProviderConfig, client *http.Client) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Scraper{
		client:         client,
		baseURL:        cfg.BaseURL,
		circuitBreaker: circuitbreaker.New(circuitbreaker.ScraperConfig(providerName)),
		retryConfig:    retry.ScraperConfig(),
		now:            time.Now,
	}
}

// News returns headlines from the Finviz news page scored for market
// relevance. Only headlines at or above the relevance cutoff are kept,
// sorted by impact score descending, capped at maxArticles.
func (s *Scraper) News(ctx context.Context, maxArticles int) ([]entity.NewsItem, error) {
	if maxArticles <= 0 {
		maxArticles = 20
	}

	doc, err := s.fetchDoc(ctx, "news", s.baseURL+"/news.ashx")
	if err != nil {
		return nil, err
	}

	var items []entity.NewsItem
	doc.Find("table.fullview-news-outer tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return true
		}

		link := row.Find("a.tab-link-news")
		if link.Length() == 0 {
			return true
		}

		headline := strings.TrimSpace(link.Text())
		if headline == "" {
			return true
		}
		href := link.AttrOr("href", "")
		timestamp := strings.TrimSpace(cells.First().Text())

		score := scoreHeadline(headline)
		if score < relevanceCutoff {
			return true
		}

		items = append(items, entity.NewsItem{
			Headline:    headline,
			Summary:     summarizeHeadline(headline),
			Source:      extractSource(href, headline),
			PublishedAt: s.parseTimestamp(timestamp),
			Sentiment:   classifySentiment(headline),
			ImpactScore: score,
		})
		return len(items) < maxArticles
	})

	if len(items) == 0 {
		return nil, entity.ErrNoData
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ImpactScore > items[j].ImpactScore
	})
	if len(items) > maxArticles {
		items = items[:maxArticles]
	}
	return items, nil
}

// MarketOverview returns the homepage index snapshot and, when present, the
// VIX reading used as the volatility proxy.
func (s *Scraper) MarketOverview(ctx context.Context) (entity.MarketOverview, error) {
	overview := entity.MarketOverview{Indexes: map[string]entity.IndexSnapshot{}}

	doc, err := s.fetchDoc(ctx, "market_overview", s.baseURL+"/")
	if err != nil {
		return overview, err
	}

	doc.Find("table.snapshot-table2 tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		name := strings.TrimSpace(cells.Eq(0).Text())
		if name == "" {
			return
		}
		overview.Indexes[name] = entity.IndexSnapshot{
			Price:  strings.TrimSpace(cells.Eq(1).Text()),
			Change: strings.TrimSpace(cells.Eq(2).Text()),
		}
	})

	// The VIX reading sits in the cell after its label.
	doc.Find("td").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		if !strings.Contains(strings.TrimSpace(cell.Text()), "VIX") || cell.Children().Length() > 0 {
			return true
		}
		value := strings.TrimSpace(cell.Next().Text())
		if vix, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64); err == nil {
			overview.VIX = vix
			overview.HasVIX = true
			return false
		}
		return true
	})

	if len(overview.Indexes) == 0 && !overview.HasVIX {
		return overview, entity.ErrNoData
	}
	return overview, nil
}

// SectorPerformance returns daily sector performance percentages from the
// sector groups page.
func (s *Scraper) SectorPerformance(ctx context.Context) (map[string]float64, error) {
	doc, err := s.fetchDoc(ctx, "sector_performance", s.baseURL+"/groups.ashx?g=sector")
	if err != nil {
		return nil, err
	}

	sectors := map[string]float64{}
	doc.Find("table.screener_table tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		sector := strings.TrimSpace(cells.Eq(0).Text())
		perf := strings.TrimSuffix(strings.TrimSpace(cells.Eq(1).Text()), "%")
		value, err := strconv.ParseFloat(perf, 64)
		if err != nil || sector == "" {
			return
		}
		sectors[sector] = value
	})

	if len(sectors) == 0 {
		return nil, entity.ErrNoData
	}
	return sectors, nil
}

// TopMovers returns the top-10 gainers and losers from the screener, each as
// a "TICKER (Company): +x.xx%" display line.
func (s *Scraper) TopMovers(ctx context.Context) (gainers, losers []string, err error) {
	gainers, gainersErr := s.movers(ctx, s.baseURL+"/screener.ashx?v=111&o=-change")
	losers, losersErr := s.movers(ctx, s.baseURL+"/screener.ashx?v=111&o=change")

	if gainersErr != nil && losersErr != nil {
		return nil, nil, gainersErr
	}
	return gainers, losers, nil
}

func (s *Scraper) movers(ctx context.Context, url string) ([]string, error) {
	doc, err := s.fetchDoc(ctx, "top_movers", url)
	if err != nil {
		return nil, err
	}

	var movers []string
	doc.Find("table.screener_table tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i == 0 {
			return true
		}
		cells := row.Find("td")
		if cells.Length() < 2 {
			return true
		}
		ticker := strings.TrimSpace(cells.Eq(1).Text())
		if ticker == "" {
			return true
		}
		company := ""
		if cells.Length() > 2 {
			company = strings.TrimSpace(cells.Eq(2).Text())
		}
		change := ""
		if cells.Length() > 9 {
			change = strings.TrimSpace(cells.Eq(9).Text())
		}
		movers = append(movers, fmt.Sprintf("%s (%s): %s", ticker, company, change))
		return len(movers) < 10
	})

	return movers, nil
}

// parseTimestamp decodes the Finviz time column ("12:34PM", "Today 12:34PM",
// "Yesterday 12:34PM"). Anything unrecognized counts as now.
func (s *Scraper) parseTimestamp(raw string) time.Time {
	if strings.Contains(strings.ToLower(raw), "yesterday") {
		return s.now().AddDate(0, 0, -1)
	}
	return s.now()
}

// fetchDoc fetches a page through the circuit breaker and retry, returning
// the parsed document.
func (s *Scraper) fetchDoc(ctx context.Context, capability, url string) (*goquery.Document, error) {
	start := time.Now()
	var doc *goquery.Document

	retryErr := retry.WithBackoff(ctx, s.retryConfig, func() error {
		result, err := s.circuitBreaker.Execute(func() (interface{}, error) {
			return s.doFetch(ctx, url)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("circuit breaker open, request rejected",
					slog.String("provider", providerName),
					slog.String("url", url))
			}
			return err
		}
		doc = result.(*goquery.Document)
		return nil
	})

	if retryErr != nil {
		metrics.RecordProviderRequest(providerName, capability, "failure", time.Since(start))
		return nil, fmt.Errorf("%w: %v", entity.ErrProviderUnavailable, retryErr)
	}

	metrics.RecordProviderRequest(providerName, capability, "success", time.Since(start))
	return doc, nil
}

func (s *Scraper) doFetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status: %s", resp.Status),
		}
	}

	limitedReader := io.LimitReader(resp.Body, maxBodySize)
	doc, err := goquery.NewDocumentFromReader(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return doc, nil
}

var highImpactKeywords = []string{
	"fed", "federal reserve", "powell", "rate", "inflation", "cpi", "ppi",
	"gdp", "employment", "jobs", "unemployment", "earnings", "guidance",
	"merger", "acquisition", "bankruptcy", "china", "trade", "tariff",
	"oil", "crude", "opec", "geopolitical", "war", "sanctions",
	"tech", "ai", "tesla", "apple", "microsoft", "nvidia", "amazon",
	"crypto", "bitcoin", "sec", "regulation", "bank", "financial",
}

var mediumImpactKeywords = []string{
	"market", "stock", "futures", "premarket", "aftermarket",
	"analyst", "rating", "upgrade", "downgrade", "target",
	"revenue", "profit", "sales", "outlook", "forecast",
	"sector", "industry", "biotech", "pharma", "energy",
}

var positiveWords = []string{
	"surge", "soar", "rally", "gain", "rise", "up", "boost", "strong",
	"beat", "exceed", "outperform", "upgrade", "bullish", "optimistic",
}

var negativeWords = []string{
	"plunge", "crash", "fall", "drop", "decline", "down", "weak",
	"miss", "disappoint", "downgrade", "bearish", "pessimistic", "cut",
}

var urgencyWords = []string{"breaking", "alert", "urgent", "just in"}

var dataWords = []string{"data", "report", "index", "survey"}

var (
	tickerPattern  = regexp.MustCompile(`\b[A-Z]{2,5}\b`)
	percentPattern = regexp.MustCompile(`\d+%`)
)

// scoreHeadline grades a headline's market relevance on the 1..10 band.
// Keyword classes count once each; ticker mentions, percent moves, urgency,
// and data-release words add on top, capped at 10.
func scoreHeadline(headline string) float64 {
	lower := strings.ToLower(headline)
	score := 5.0

	for _, kw := range highImpactKeywords {
		if strings.Contains(lower, kw) {
			score += 2.0
			break
		}
	}
	for _, kw := range mediumImpactKeywords {
		if strings.Contains(lower, kw) {
			score += 1.0
			break
		}
	}
	if tickerPattern.MatchString(headline) {
		score += 1.0
	}
	if percentPattern.MatchString(headline) {
		score += 1.5
	}
	for _, w := range urgencyWords {
		if strings.Contains(lower, w) {
			score += 1.0
			break
		}
	}
	for _, w := range dataWords {
		if strings.Contains(lower, w) {
			score += 0.5
			break
		}
	}

	if score > entity.MaxImpactScore {
		score = entity.MaxImpactScore
	}
	return score
}

// classifySentiment counts positive versus negative words in the headline.
func classifySentiment(headline string) entity.Sentiment {
	lower := strings.ToLower(headline)

	var positive, negative int
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			positive++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			negative++
		}
	}

	switch {
	case positive > negative:
		return entity.SentimentPositive
	case negative > positive:
		return entity.SentimentNegative
	default:
		return entity.SentimentNeutral
	}
}

var sourcePatterns = []struct {
	pattern string
	name    string
}{
	{"reuters", "Reuters"},
	{"bloomberg", "Bloomberg"},
	{"wsj", "Wall Street Journal"},
	{"marketwatch", "MarketWatch"},
	{"cnbc", "CNBC"},
	{"cnn", "CNN Business"},
	{"yahoo", "Yahoo Finance"},
	{"seeking", "Seeking Alpha"},
	{"benzinga", "Benzinga"},
	{"thestreet", "TheStreet"},
}

// extractSource derives the publisher from the link URL, falling back to a
// "Source:" prefix in the headline.
func extractSource(url, headline string) string {
	lower := strings.ToLower(url)
	for _, sp := range sourcePatterns {
		if strings.Contains(lower, sp.pattern) {
			return sp.name
		}
	}

	if idx := strings.Index(headline, ":"); idx > 0 && idx < 30 {
		return strings.TrimSpace(headline[:idx])
	}
	return "Finviz News"
}

// summarizeHeadline writes a one-line summary note for a headline. There is
// no article body to draw on, so the note classifies the story instead.
func summarizeHeadline(headline string) string {
	lower := strings.ToLower(headline)

	switch {
	case strings.Contains(lower, "earnings") || strings.Contains(lower, "eps"):
		return "Company earnings report with market implications. " + headline
	case strings.Contains(lower, "fed") || strings.Contains(lower, "federal reserve") || strings.Contains(lower, "powell"):
		return "Federal Reserve related news affecting monetary policy and market expectations. " + headline
	case strings.Contains(lower, "merger") || strings.Contains(lower, "acquisition"):
		return "Corporate merger and acquisition activity with sector impact. " + headline
	case strings.Contains(lower, "oil") || strings.Contains(lower, "crude") || strings.Contains(lower, "energy"):
		return "Energy sector development affecting commodity markets and related equities. " + headline
	case strings.Contains(lower, "china") || strings.Contains(lower, "trade") || strings.Contains(lower, "tariff"):
		return "International trade development with global market implications. " + headline
	default:
		return "Market-relevant development requiring portfolio manager attention. " + headline
	}
}
