// Package forexfactory scrapes the economic calendar from forexfactory.com.
// It is the fallback calendar source when FRED yields nothing.
package forexfactory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
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
	providerName = "forexfactory"
	maxBodySize  = 10 * 1024 * 1024 // 10MB
	userAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

	// maxEvents caps the calendar at the most immediate entries.
	maxEvents = 10
)

// Scraper fetches and parses the ForexFactory calendar page.
type Scraper struct {
	client         *http.Client
	baseURL        string
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewScraper creates a ForexFactory scraper with the given HTTP client.
func NewScraper(cfg config.ProviderConfig, client *http.Client) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Scraper{
		client:         client,
		baseURL:        cfg.BaseURL,
		circuitBreaker: circuitbreaker.New(circuitbreaker.ScraperConfig(providerName)),
		retryConfig:    retry.ScraperConfig(),
	}
}

// EconomicCalendar returns USD events of medium or high impact from the
// calendar page, sorted by time, capped at 10 entries.
func (s *Scraper) EconomicCalendar(ctx context.Context) ([]entity.EconomicEvent, error) {
	doc, err := s.fetchDoc(ctx, s.baseURL+"/calendar")
	if err != nil {
		return nil, err
	}

	var events []entity.EconomicEvent
	doc.Find("table.calendar__table tr.calendar__row").Each(func(_ int, row *goquery.Selection) {
		currency := strings.TrimSpace(row.Find("td.calendar__currency").Text())
		if currency != "USD" {
			return
		}

		impact := impactLevel(row.Find("td.calendar__impact span.calendar__impact-icon--screen").Length())
		if impact == entity.ImportanceLow {
			return
		}

		eventName := strings.TrimSpace(row.Find("td.calendar__event").Text())
		if eventName == "" {
			return
		}

		forecast := strings.TrimSpace(row.Find("td.calendar__forecast").Text())
		if forecast == "" {
			forecast = "N/A"
		}
		previous := strings.TrimSpace(row.Find("td.calendar__previous").Text())
		if previous == "" {
			previous = "N/A"
		}

		events = append(events, entity.EconomicEvent{
			Time:       toEasternTime(strings.TrimSpace(row.Find("td.calendar__time").Text())),
			Event:      eventName,
			Importance: impact,
			Forecast:   forecast,
			Previous:   previous,
			Currency:   currency,
			Source:     "ForexFactory",
		})
	})

	if len(events) == 0 {
		return nil, entity.ErrNoData
	}

	sort.SliceStable(events, func(i, j int) bool {
		return timeSortKey(events[i].Time) < timeSortKey(events[j].Time)
	})
	if len(events) > maxEvents {
		events = events[:maxEvents]
	}
	return events, nil
}

// impactLevel maps the number of lit impact icons to an importance grade.
func impactLevel(icons int) entity.Importance {
	switch {
	case icons >= 3:
		return entity.ImportanceHigh
	case icons == 2:
		return entity.ImportanceMedium
	default:
		return entity.ImportanceLow
	}
}

// toEasternTime rewrites a GMT clock reading as an ET display string.
// Non-clock values ("All Day", "Tentative") pass through untouched.
func toEasternTime(raw string) string {
	if raw == "" || raw == "All Day" || raw == "Tentative" {
		return raw
	}

	hour, minute, ok := parseClock(raw)
	if !ok {
		return raw + " ET"
	}

	// Fixed GMT-5 offset, matching the calendar's standard-time display.
	hour -= 5
	if hour < 0 {
		hour += 24
	}

	period := "AM"
	display := hour
	switch {
	case hour == 0:
		display = 12
	case hour == 12:
		period = "PM"
	case hour > 12:
		display = hour - 12
		period = "PM"
	}
	return fmt.Sprintf("%02d:%02d %s ET", display, minute, period)
}

// parseClock reads "8:30", "08:30", "8:30am" style values as 24h clock parts.
func parseClock(raw string) (hour, minute int, ok bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	pm := strings.HasSuffix(value, "pm")
	am := strings.HasSuffix(value, "am")
	value = strings.TrimSuffix(strings.TrimSuffix(value, "pm"), "am")

	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}

	if pm && hour < 12 {
		hour += 12
	}
	if am && hour == 12 {
		hour = 0
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// timeSortKey orders ET display strings chronologically; unparseable values
// sort last.
func timeSortKey(display string) int {
	value := strings.TrimSuffix(display, " ET")
	t, err := time.Parse("03:04 PM", value)
	if err != nil {
		t, err = time.Parse("3:04 PM", value)
	}
	if err != nil {
		return 24 * 60
	}
	return t.Hour()*60 + t.Minute()
}

// fetchDoc fetches the calendar page through the circuit breaker and retry.
func (s *Scraper) fetchDoc(ctx context.Context, url string) (*goquery.Document, error) {
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
		metrics.RecordProviderRequest(providerName, "economic_calendar", "failure", time.Since(start))
		return nil, fmt.Errorf("%w: %v", entity.ErrProviderUnavailable, retryErr)
	}

	metrics.RecordProviderRequest(providerName, "economic_calendar", "success", time.Since(start))
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
