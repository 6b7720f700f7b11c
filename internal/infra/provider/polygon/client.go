// Package polygon collects daily open-close quotes and sector ETF aggregates
// from the Polygon.io API.
package polygon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
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

const providerName = "polygon"

// errRateLimited marks a 429 answer. The symbol is skipped for the rest of
// the run instead of burning retries.
var errRateLimited = errors.New("polygon rate limited")

// Client talks to the Polygon REST API.
type Client struct {
	http        *resty.Client
	apiKey      string
	budget      *budget.Budget
	breaker     *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
	now         func() time.Time
}

// NewClient creates a Polygon client from provider configuration.
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
		now:         time.Now,
	}
}

// Budget exposes the request budget for run metadata reporting.
func (c *Client) Budget() *budget.Budget {
	return c.budget
}

// Quotes returns previous-session quotes for the given symbols, keyed by
// display name. Change is measured close against open of the same session.
// Symbols without data in the last five trading days are skipped.
func (c *Client) Quotes(ctx context.Context, symbols map[string]string) (entity.QuoteBoard, error) {
	if c.apiKey == "" {
		return nil, entity.ErrMissingCredentials
	}

	board := entity.QuoteBoard{}
	for symbol, name := range symbols {
		bar, err := c.previousClose(ctx, symbol)
		if err != nil {
			if errors.Is(err, entity.ErrBudgetExhausted) {
				return board, err
			}
			slog.Warn("previous close fetch failed, skipping symbol",
				slog.String("provider", providerName),
				slog.String("symbol", symbol),
				slog.Any("error", err))
			continue
		}

		open := bar.Open
		if open == 0 {
			open = 1
		}
		board[name] = entity.Quote{
			Symbol:        symbol,
			Price:         bar.Close,
			Change:        bar.Close - bar.Open,
			ChangePercent: (bar.Close - bar.Open) / open * 100,
			Volume:        int64(bar.Volume),
			ObservedAt:    c.now(),
		}
	}

	if len(board) == 0 {
		return board, entity.ErrNoData
	}
	return board, nil
}

// SectorSnapshots returns one 5-trading-day performance snapshot per sector
// ETF, keyed by sector name. Sectors whose history cannot be resolved are
// skipped.
func (c *Client) SectorSnapshots(ctx context.Context, sectors map[string]string) (map[string]entity.SectorSnapshot, error) {
	if c.apiKey == "" {
		return nil, entity.ErrMissingCredentials
	}

	snapshots := map[string]entity.SectorSnapshot{}
	for symbol, sector := range sectors {
		bars, err := c.dailyBars(ctx, symbol, 5)
		if err != nil {
			if errors.Is(err, entity.ErrBudgetExhausted) {
				return snapshots, err
			}
			slog.Warn("sector history fetch failed, skipping sector",
				slog.String("provider", providerName),
				slog.String("symbol", symbol),
				slog.String("sector", sector),
				slog.Any("error", err))
			continue
		}
		if len(bars) < 2 {
			continue
		}

		first := bars[0]
		last := bars[len(bars)-1]
		if first.Close <= 0 {
			continue
		}

		weeklyReturn := (last.Close - first.Close) / first.Close * 100
		snapshots[sector] = entity.SectorSnapshot{
			Sector:       sector,
			Symbol:       symbol,
			WeeklyReturn: round2(weeklyReturn),
			CurrentPrice: round2(last.Close),
			StartDate:    time.UnixMilli(first.Timestamp).UTC().Format("2006-01-02"),
			EndDate:      time.UnixMilli(last.Timestamp).UTC().Format("2006-01-02"),
		}
	}

	if len(snapshots) == 0 {
		return snapshots, entity.ErrNoData
	}
	return snapshots, nil
}

// bar is one daily OHLCV observation.
type bar struct {
	Open      float64
	Close     float64
	Volume    float64
	Timestamp int64
}

// previousClose walks back up to five calendar days, skipping weekends, and
// returns the first session with data. A 429 abandons the symbol immediately.
func (c *Client) previousClose(ctx context.Context, symbol string) (bar, error) {
	for daysBack := 1; daysBack <= 5; daysBack++ {
		date := c.now().AddDate(0, 0, -daysBack)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		day := date.Format("2006-01-02")

		var payload struct {
			Status string  `json:"status"`
			Open   float64 `json:"open"`
			Close  float64 `json:"close"`
			Volume float64 `json:"volume"`
		}

		path := fmt.Sprintf("/v1/open-close/%s/%s", symbol, day)
		err := c.get(ctx, "quotes", path, map[string]string{"adjusted": "true"}, &payload)
		if err != nil {
			if errors.Is(err, errRateLimited) || errors.Is(err, entity.ErrBudgetExhausted) {
				return bar{}, err
			}
			// 404 just means no session that day; keep walking back.
			continue
		}
		if payload.Status != "OK" {
			continue
		}

		return bar{
			Open:      payload.Open,
			Close:     payload.Close,
			Volume:    payload.Volume,
			Timestamp: date.UnixMilli(),
		}, nil
	}

	return bar{}, fmt.Errorf("symbol %s: no session in last 5 trading days: %w", symbol, entity.ErrNoData)
}

// dailyBars returns daily aggregates over the given trading-day window. The
// calendar range is padded for weekends.
func (c *Client) dailyBars(ctx context.Context, symbol string, days int) ([]bar, error) {
	end := c.now()
	start := end.AddDate(0, 0, -(days + 2))

	var payload struct {
		Results []struct {
			Open      float64 `json:"o"`
			Close     float64 `json:"c"`
			Volume    float64 `json:"v"`
			Timestamp int64   `json:"t"`
		} `json:"results"`
	}

	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/1/day/%s/%s",
		symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err := c.get(ctx, "sector_rotation", path, nil, &payload); err != nil {
		return nil, err
	}

	bars := make([]bar, 0, len(payload.Results))
	for _, r := range payload.Results {
		bars = append(bars, bar{
			Open:      r.Open,
			Close:     r.Close,
			Volume:    r.Volume,
			Timestamp: r.Timestamp,
		})
	}
	return bars, nil
}

// get runs one GET request through budget, circuit breaker, and retry, then
// decodes the JSON payload into out.
func (c *Client) get(ctx context.Context, capability, path string, params map[string]string, out interface{}) error {
	if !c.budget.Allow() {
		return fmt.Errorf("%s: %w", providerName, entity.ErrBudgetExhausted)
	}

	query := map[string]string{"apikey": c.apiKey}
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
			switch resp.StatusCode() {
			case http.StatusOK:
				return resp.Body(), nil
			case http.StatusTooManyRequests:
				return nil, errRateLimited
			default:
				return nil, &retry.HTTPError{
					StatusCode: resp.StatusCode(),
					Message:    fmt.Sprintf("GET %s", path),
				}
			}
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
		if errors.Is(retryErr, errRateLimited) {
			metrics.RecordProviderRequest(providerName, capability, "rate_limited", time.Since(start))
			return retryErr
		}
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

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
