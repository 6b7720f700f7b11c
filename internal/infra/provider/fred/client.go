// Package fred collects macroeconomic release data from the Federal Reserve
// Economic Data (FRED) API.
package fred

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"premarket-brief/internal/domain/entity"
	"premarket-brief/internal/observability/metrics"
	"premarket-brief/internal/resilience/circuitbreaker"
	"premarket-brief/internal/resilience/retry"
	"premarket-brief/pkg/budget"
	"premarket-brief/pkg/config"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

const providerName = "fred"

// Client talks to the FRED REST API. All calls pass through the per-run
// request budget, a circuit breaker, and retry with backoff.
type Client struct {
	http        *resty.Client
	apiKey      string
	budget      *budget.Budget
	breaker     *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

// NewClient creates a FRED client from provider configuration.
func NewClient(cfg config.ProviderConfig, timeout time.Duration, b *budget.Budget) *Client {
	httpClient := resty.New()
	httpClient.SetBaseURL(cfg.BaseURL)
	httpClient.SetTimeout(timeout)

	if b == nil {
		b = budget.New(providerName, cfg.RequestBudget, budget.NewNoOpMetrics())
	}

	return &Client{
		http:        httpClient,
		apiKey:      cfg.APIKey,
		budget:      b,
		breaker:     circuitbreaker.New(circuitbreaker.ProviderAPIConfig(providerName)),
		retryConfig: retry.ProviderAPIConfig(),
	}
}

// Budget exposes the request budget for run metadata reporting.
func (c *Client) Budget() *budget.Budget {
	return c.budget
}

// keyIndicators are the series consulted when the release calendar comes back
// empty, in presentation order.
var keyIndicators = []struct {
	SeriesID string
	Name     string
	Percent  bool
}{
	{SeriesID: "UNRATE", Name: "Unemployment Rate", Percent: true},
	{SeriesID: "CPIAUCSL", Name: "Consumer Price Index", Percent: false},
	{SeriesID: "FEDFUNDS", Name: "Federal Funds Rate", Percent: true},
}

// EconomicCalendar returns today's scheduled economic releases. When FRED
// lists no releases for the date, the latest observations of a handful of key
// series are returned as "Latest Data" events instead.
func (c *Client) EconomicCalendar(ctx context.Context, date time.Time) ([]entity.EconomicEvent, error) {
	if c.apiKey == "" {
		return nil, entity.ErrMissingCredentials
	}

	releases, err := c.releases(ctx, date)
	if err != nil {
		return nil, err
	}

	events := make([]entity.EconomicEvent, 0, len(releases))
	for i, name := range releases {
		if i >= 10 {
			break
		}
		events = append(events, entity.EconomicEvent{
			// FRED does not publish exact times; 8:30 AM ET is the common
			// release slot for US macro data.
			Time:       "8:30 AM ET",
			Event:      name,
			Importance: classifyImportance(name),
			Forecast:   "N/A",
			Previous:   "N/A",
			Currency:   "USD",
			Source:     "Federal Reserve (FRED)",
		})
	}

	if len(events) == 0 {
		return c.keyIndicatorEvents(ctx)
	}
	return events, nil
}

// keyIndicatorEvents builds calendar entries from the latest observations of
// the key series. Individual series failures are skipped.
func (c *Client) keyIndicatorEvents(ctx context.Context) ([]entity.EconomicEvent, error) {
	events := make([]entity.EconomicEvent, 0, len(keyIndicators))
	for _, ind := range keyIndicators {
		obs, err := c.LatestObservation(ctx, ind.SeriesID)
		if err != nil {
			if errors.Is(err, entity.ErrBudgetExhausted) {
				return events, err
			}
			slog.Warn("key indicator fetch failed, skipping",
				slog.String("provider", providerName),
				slog.String("series_id", ind.SeriesID),
				slog.Any("error", err))
			continue
		}
		previous := obs.Value
		if ind.Percent {
			previous += "%"
		}
		events = append(events, entity.EconomicEvent{
			Time:       "Latest Data",
			Event:      ind.Name,
			Importance: entity.ImportanceHigh,
			Forecast:   "N/A",
			Previous:   previous,
			Currency:   "USD",
			Source:     "Federal Reserve (FRED)",
		})
	}
	if len(events) == 0 {
		return nil, entity.ErrNoData
	}
	return events, nil
}

// Observation is the latest value of a FRED series.
type Observation struct {
	SeriesID string
	Value    string
	Date     string
	Units    string
	Title    string
}

// LatestObservation returns the most recent observation for a series,
// enriched with the series title and units.
func (c *Client) LatestObservation(ctx context.Context, seriesID string) (Observation, error) {
	var payload struct {
		Observations []struct {
			Date  string `json:"date"`
			Value string `json:"value"`
		} `json:"observations"`
	}

	err := c.get(ctx, "economic_calendar", "/series/observations", map[string]string{
		"series_id":  seriesID,
		"limit":      "1",
		"sort_order": "desc",
	}, &payload)
	if err != nil {
		return Observation{}, err
	}
	if len(payload.Observations) == 0 {
		return Observation{}, fmt.Errorf("series %s: %w", seriesID, entity.ErrNoData)
	}

	obs := Observation{
		SeriesID: seriesID,
		Value:    payload.Observations[0].Value,
		Date:     payload.Observations[0].Date,
	}

	// Series metadata is decoration; ignore failures.
	if info, err := c.seriesInfo(ctx, seriesID); err == nil {
		obs.Units = info.Units
		obs.Title = info.Title
	}

	return obs, nil
}

type seriesMeta struct {
	Title string
	Units string
}

func (c *Client) seriesInfo(ctx context.Context, seriesID string) (seriesMeta, error) {
	var payload struct {
		Seriess []struct {
			Title string `json:"title"`
			Units string `json:"units"`
		} `json:"seriess"`
	}

	err := c.get(ctx, "economic_calendar", "/series", map[string]string{
		"series_id": seriesID,
	}, &payload)
	if err != nil {
		return seriesMeta{}, err
	}
	if len(payload.Seriess) == 0 {
		return seriesMeta{}, entity.ErrNoData
	}
	return seriesMeta{Title: payload.Seriess[0].Title, Units: payload.Seriess[0].Units}, nil
}

// releases returns the names of releases FRED lists for the given date.
func (c *Client) releases(ctx context.Context, date time.Time) ([]string, error) {
	day := date.Format("2006-01-02")

	var payload struct {
		Releases []struct {
			Name string `json:"name"`
		} `json:"releases"`
	}

	err := c.get(ctx, "economic_calendar", "/releases", map[string]string{
		"realtime_start": day,
		"realtime_end":   day,
		"limit":          "20",
	}, &payload)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(payload.Releases))
	for _, r := range payload.Releases {
		if r.Name != "" {
			names = append(names, r.Name)
		}
	}
	return names, nil
}

// get runs one GET request through budget, circuit breaker, and retry, then
// decodes the JSON payload into out.
func (c *Client) get(ctx context.Context, capability, path string, params map[string]string, out interface{}) error {
	if !c.budget.Allow() {
		return fmt.Errorf("%s: %w", providerName, entity.ErrBudgetExhausted)
	}

	query := map[string]string{
		"api_key":   c.apiKey,
		"file_type": "json",
	}
	for k, v := range params {
		query[k] = v
	}

	start := time.Now()
	var body []byte

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			resp, err := c.http.R().
				SetContext(ctx).
				SetQueryParams(query).
				Get(path)
			if err != nil {
				return nil, fmt.Errorf("request %s: %w", path, err)
			}
			if resp.StatusCode() != 200 {
				return nil, &retry.HTTPError{
					StatusCode: resp.StatusCode(),
					Message:    fmt.Sprintf("GET %s", path),
				}
			}
			return resp.Body(), nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("circuit breaker open, request rejected",
					slog.String("provider", providerName),
					slog.String("path", path))
			}
			return err
		}
		body = result.([]byte)
		return nil
	})

	if retryErr != nil {
		metrics.RecordProviderRequest(providerName, capability, "failure", time.Since(start))
		return fmt.Errorf("%w: %v", entity.ErrProviderUnavailable, retryErr)
	}

	if err := json.Unmarshal(body, out); err != nil {
		metrics.RecordParseFailure(providerName, capability)
		return fmt.Errorf("%w: decode %s: %v", entity.ErrParseFailure, path, err)
	}

	metrics.RecordProviderRequest(providerName, capability, "success", time.Since(start))
	return nil
}

var highImpactKeywords = []string{
	"employment", "unemployment", "jobs", "payroll", "cpi", "inflation",
	"gdp", "federal funds", "fomc", "consumer price", "producer price",
}

var mediumImpactKeywords = []string{
	"housing", "industrial", "consumer", "sentiment", "confidence",
	"manufacturing", "retail", "income",
}

// classifyImportance grades a release name by keyword.
func classifyImportance(name string) entity.Importance {
	lower := strings.ToLower(name)
	for _, kw := range highImpactKeywords {
		if strings.Contains(lower, kw) {
			return entity.ImportanceHigh
		}
	}
	for _, kw := range mediumImpactKeywords {
		if strings.Contains(lower, kw) {
			return entity.ImportanceMedium
		}
	}
	return entity.ImportanceLow
}
