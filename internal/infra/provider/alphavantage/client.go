// Package alphavantage collects market news with sentiment, ticker quotes,
// and the earnings calendar from the Alpha Vantage API.
//
// The free tier allows 25 requests per day, so every call is metered against
// the per-run budget and paced with a rate limiter.
package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
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
	"golang.org/x/time/rate"
)

const providerName = "alpha_vantage"

// maxQuoteSymbols caps GLOBAL_QUOTE calls per board to conserve the daily
// request budget.
const maxQuoteSymbols = 3

// Client talks to the Alpha Vantage API.
type Client struct {
	http        *resty.Client
	apiKey      string
	budget      *budget.Budget
	breaker     *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
	limiter     *rate.Limiter
	now         func() time.Time
}

// NewClient creates an Alpha Vantage client from provider configuration.
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
		limiter:     rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
		now:         time.Now,
	}
}

// Budget exposes the request budget for run metadata reporting.
func (c *Client) Budget() *budget.Budget {
	return c.budget
}

// newsSentimentPayload mirrors the NEWS_SENTIMENT response. Older payloads
// used "items" where current ones use "feed"; both are accepted.
type newsSentimentPayload struct {
	Feed  []newsFeedItem `json:"feed"`
	Items []newsFeedItem `json:"items"`
}

type newsFeedItem struct {
	Title         string  `json:"title"`
	Summary       string  `json:"summary"`
	Source        string  `json:"source"`
	TimePublished string  `json:"time_published"`
	Score         float64 `json:"overall_sentiment_score"`
	Label         string  `json:"overall_sentiment_label"`
	Topics        []struct {
		Topic string `json:"topic"`
	} `json:"topics"`
}

// NewsWithSentiment returns up to 10 market news items with provider-graded
// sentiment, plus the raw topic tags seen across the batch. At most 5 ticker
// symbols are forwarded as a filter.
func (c *Client) NewsWithSentiment(ctx context.Context, symbols []string, limit int) ([]entity.NewsItem, []string, error) {
	if c.apiKey == "" {
		return nil, nil, entity.ErrMissingCredentials
	}
	if limit <= 0 {
		limit = 10
	}

	params := map[string]string{
		"function": "NEWS_SENTIMENT",
		"limit":    strconv.Itoa(limit),
	}
	if len(symbols) > 0 {
		if len(symbols) > 5 {
			symbols = symbols[:5]
		}
		params["tickers"] = strings.Join(symbols, ",")
	}

	body, err := c.get(ctx, "news", params)
	if err != nil {
		return nil, nil, err
	}

	var payload newsSentimentPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		metrics.RecordParseFailure(providerName, "news")
		return nil, nil, fmt.Errorf("%w: decode news sentiment: %v", entity.ErrParseFailure, err)
	}

	feed := payload.Feed
	if len(feed) == 0 {
		feed = payload.Items
	}
	if len(feed) == 0 {
		return nil, nil, entity.ErrNoData
	}

	items := make([]entity.NewsItem, 0, len(feed))
	var topics []string
	seen := map[string]bool{}

	for _, raw := range feed {
		if len(items) >= 10 {
			break
		}
		items = append(items, c.toNewsItem(raw))
		for _, t := range raw.Topics {
			if t.Topic != "" && !seen[t.Topic] {
				seen[t.Topic] = true
				topics = append(topics, t.Topic)
			}
		}
	}

	return items, topics, nil
}

// toNewsItem converts one feed entry. Sentiment labels map Bullish→positive
// and Bearish→negative; impact rescales the [-1,1] sentiment score onto the
// 1..10 band as clamp(5 + score*5).
func (c *Client) toNewsItem(raw newsFeedItem) entity.NewsItem {
	sentiment := entity.SentimentNeutral
	switch strings.ToLower(raw.Label) {
	case "bullish":
		sentiment = entity.SentimentPositive
	case "bearish":
		sentiment = entity.SentimentNegative
	}

	impact := entity.ClampImpactScore(round1(5 + raw.Score*5))

	summary := raw.Summary
	if r := []rune(summary); len(r) > 200 {
		summary = string(r[:200]) + "..."
	}

	source := raw.Source
	if source == "" {
		source = "Alpha Vantage"
	}

	return entity.NewsItem{
		Headline:    raw.Title,
		Summary:     summary,
		Source:      source,
		PublishedAt: c.parsePublished(raw.TimePublished),
		Sentiment:   sentiment,
		ImpactScore: impact,
	}
}

// parsePublished decodes the compact timestamp format (20260115T083000).
// Unparseable values fall back to the collection time.
func (c *Client) parsePublished(raw string) time.Time {
	if ts, err := time.Parse("20060102T150405", raw); err == nil {
		return ts
	}
	return c.now()
}

// Quotes returns quotes for up to 3 of the given symbols via GLOBAL_QUOTE.
// Per-symbol failures are skipped; an empty board with no error means every
// symbol failed softly.
func (c *Client) Quotes(ctx context.Context, symbols map[string]string) (entity.QuoteBoard, error) {
	if c.apiKey == "" {
		return nil, entity.ErrMissingCredentials
	}

	board := entity.QuoteBoard{}
	fetched := 0

	for symbol, name := range symbols {
		if fetched >= maxQuoteSymbols {
			break
		}
		fetched++

		quote, err := c.globalQuote(ctx, symbol)
		if err != nil {
			if errors.Is(err, entity.ErrBudgetExhausted) {
				return board, err
			}
			slog.Warn("quote fetch failed, skipping symbol",
				slog.String("provider", providerName),
				slog.String("symbol", symbol),
				slog.Any("error", err))
			continue
		}
		board[name] = quote
	}

	if len(board) == 0 {
		return board, entity.ErrNoData
	}
	return board, nil
}

func (c *Client) globalQuote(ctx context.Context, symbol string) (entity.Quote, error) {
	body, err := c.get(ctx, "quotes", map[string]string{
		"function": "GLOBAL_QUOTE",
		"symbol":   symbol,
	})
	if err != nil {
		return entity.Quote{}, err
	}

	var payload struct {
		GlobalQuote map[string]string `json:"Global Quote"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		metrics.RecordParseFailure(providerName, "quotes")
		return entity.Quote{}, fmt.Errorf("%w: decode global quote: %v", entity.ErrParseFailure, err)
	}
	if len(payload.GlobalQuote) == 0 {
		return entity.Quote{}, fmt.Errorf("symbol %s: %w", symbol, entity.ErrNoData)
	}

	q := payload.GlobalQuote
	price, _ := strconv.ParseFloat(q["05. price"], 64)
	change, _ := strconv.ParseFloat(q["09. change"], 64)
	pctStr := strings.TrimSuffix(q["10. change percent"], "%")
	changePct, _ := strconv.ParseFloat(pctStr, 64)
	volume, _ := strconv.ParseFloat(q["06. volume"], 64)

	if price == 0 {
		return entity.Quote{}, fmt.Errorf("symbol %s: %w", symbol, entity.ErrNoData)
	}

	return entity.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		ChangePercent: changePct,
		Volume:        int64(volume),
		ObservedAt:    c.now(),
	}, nil
}

// EarningsCalendar returns upcoming earnings releases. The endpoint answers
// CSV (symbol,name,reportDate,...); rows are capped at 20. Alpha Vantage does
// not state timing or size, so entries default to after-close large caps.
func (c *Client) EarningsCalendar(ctx context.Context) ([]entity.EarningsEvent, error) {
	if c.apiKey == "" {
		return nil, entity.ErrMissingCredentials
	}

	body, err := c.get(ctx, "earnings", map[string]string{
		"function": "EARNINGS_CALENDAR",
	})
	if err != nil {
		return nil, err
	}

	events, err := parseEarningsCSV(string(body))
	if err != nil {
		metrics.RecordParseFailure(providerName, "earnings")
		return nil, err
	}
	if len(events) == 0 {
		return nil, entity.ErrNoData
	}
	return events, nil
}

// parseEarningsCSV decodes the earnings calendar CSV by header name so column
// order changes do not break the parse.
func parseEarningsCSV(data string) ([]entity.EarningsEvent, error) {
	lines := strings.Split(strings.TrimSpace(data), "\n")
	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: earnings csv has no data rows", entity.ErrParseFailure)
	}

	headers := strings.Split(strings.TrimSpace(lines[0]), ",")
	col := map[string]int{}
	for i, h := range headers {
		col[strings.TrimSpace(h)] = i
	}
	symbolIdx, okSym := col["symbol"]
	nameIdx, okName := col["name"]
	dateIdx, okDate := col["reportDate"]
	if !okSym || !okName || !okDate {
		return nil, fmt.Errorf("%w: earnings csv missing expected columns", entity.ErrParseFailure)
	}

	events := make([]entity.EarningsEvent, 0, 20)
	for _, line := range lines[1:] {
		if len(events) >= 20 {
			break
		}
		values := strings.Split(strings.TrimSpace(line), ",")
		if len(values) < len(headers) {
			continue
		}

		symbol := strings.TrimSpace(values[symbolIdx])
		reportDate := strings.TrimSpace(values[dateIdx])
		if symbol == "" || reportDate == "" {
			continue
		}

		events = append(events, entity.EarningsEvent{
			Symbol:      symbol,
			CompanyName: strings.TrimSpace(values[nameIdx]),
			Date:        reportDate,
			DayOfWeek:   dayOfWeek(reportDate),
			Timing:      entity.AfterClose,
			MarketCap:   entity.LargeCap,
			Sector:      "N/A",
		})
	}

	return events, nil
}

func dayOfWeek(date string) string {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	return d.Weekday().String()
}

// get runs one request through budget, pacing, circuit breaker, and retry.
func (c *Client) get(ctx context.Context, capability string, params map[string]string) ([]byte, error) {
	if !c.budget.Allow() {
		return nil, fmt.Errorf("%s: %w", providerName, entity.ErrBudgetExhausted)
	}
	defer metrics.UpdateBudgetRemaining(providerName, c.budget.Remaining())

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
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
				Get("")
			if err != nil {
				return nil, fmt.Errorf("request %s: %w", params["function"], err)
			}
			if resp.StatusCode() != 200 {
				return nil, &retry.HTTPError{
					StatusCode: resp.StatusCode(),
					Message:    fmt.Sprintf("function %s", params["function"]),
				}
			}
			return resp.Body(), nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("circuit breaker open, request rejected",
					slog.String("provider", providerName),
					slog.String("function", params["function"]))
			}
			return err
		}
		body = result.([]byte)
		return nil
	})

	if retryErr != nil {
		metrics.RecordProviderRequest(providerName, capability, "failure", time.Since(start))
		return nil, fmt.Errorf("%w: %v", entity.ErrProviderUnavailable, retryErr)
	}

	metrics.RecordProviderRequest(providerName, capability, "success", time.Since(start))
	return body, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
