package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"premarket-brief/internal/domain/entity"
	"premarket-brief/pkg/budget"
	"premarket-brief/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, requestBudget int) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.ProviderConfig{
		APIKey:        "test-key",
		BaseURL:       server.URL,
		RequestBudget: requestBudget,
	}
	return NewClient(cfg, 5*time.Second, budget.New(providerName, requestBudget, nil))
}

const newsPayload = `{
	"feed": [
		{
			"title": "Tech Giant Beats Earnings Expectations",
			"summary": "Quarterly results came in well above consensus.",
			"source": "Benzinga",
			"time_published": "20260115T083000",
			"overall_sentiment_score": 0.42,
			"overall_sentiment_label": "Bullish",
			"topics": [{"topic": "earnings"}, {"topic": "technology"}]
		},
		{
			"title": "Regional Bank Flags Credit Losses",
			"summary": "Provisions rose sharply quarter over quarter.",
			"source": "Reuters",
			"time_published": "20260115T073000",
			"overall_sentiment_score": -0.35,
			"overall_sentiment_label": "Bearish",
			"topics": [{"topic": "finance"}, {"topic": "earnings"}]
		},
		{
			"title": "Futures Flat Ahead of CPI",
			"summary": "Markets await the inflation print.",
			"source": "MarketWatch",
			"time_published": "20260115T063000",
			"overall_sentiment_score": 0.02,
			"overall_sentiment_label": "Neutral",
			"topics": []
		}
	]
}`

func TestNewsWithSentiment(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "NEWS_SENTIMENT", r.URL.Query().Get("function"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(newsPayload))
	})

	client := newTestClient(t, handler, 0)

	items, topics, err := client.NewsWithSentiment(context.Background(), nil, 10)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "Tech Giant Beats Earnings Expectations", items[0].Headline)
	assert.Equal(t, entity.SentimentPositive, items[0].Sentiment)
	assert.InDelta(t, 7.1, items[0].ImpactScore, 0.001) // 5 + 0.42*5 = 7.1
	assert.Equal(t, "Benzinga", items[0].Source)
	assert.Equal(t, time.Date(2026, 1, 15, 8, 30, 0, 0, time.UTC), items[0].PublishedAt)

	assert.Equal(t, entity.SentimentNegative, items[1].Sentiment)
	assert.InDelta(t, 3.3, items[1].ImpactScore, 0.001) // 5 - 0.35*5 = 3.25 -> 3.3

	assert.Equal(t, entity.SentimentNeutral, items[2].Sentiment)

	// Topics deduped in first-seen order.
	assert.Equal(t, []string{"earnings", "technology", "finance"}, topics)
}

func TestNewsWithSentiment_ImpactClamped(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"feed": [
			{"title": "Euphoria", "overall_sentiment_score": 1.5, "overall_sentiment_label": "Bullish"},
			{"title": "Panic", "overall_sentiment_score": -1.5, "overall_sentiment_label": "Bearish"}
		]}`))
	})

	client := newTestClient(t, handler, 0)

	items, _, err := client.NewsWithSentiment(context.Background(), nil, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, entity.MaxImpactScore, items[0].ImpactScore)
	assert.Equal(t, entity.MinImpactScore, items[1].ImpactScore)
}

func TestNewsWithSentiment_LegacyItemsKey(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": [
			{"title": "Legacy Shape", "overall_sentiment_score": 0, "overall_sentiment_label": "Neutral"}
		]}`))
	})

	client := newTestClient(t, handler, 0)

	items, _, err := client.NewsWithSentiment(context.Background(), nil, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Legacy Shape", items[0].Headline)
}

func TestNewsWithSentiment_SymbolFilterCappedAtFive(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AAPL,MSFT,GOOG,AMZN,NVDA", r.URL.Query().Get("tickers"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(newsPayload))
	})

	client := newTestClient(t, handler, 0)

	symbols := []string{"AAPL", "MSFT", "GOOG", "AMZN", "NVDA", "META", "TSLA"}
	_, _, err := client.NewsWithSentiment(context.Background(), symbols, 10)
	require.NoError(t, err)
}

func TestNewsWithSentiment_BudgetExhausted(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(newsPayload))
	})

	client := newTestClient(t, handler, 1)

	_, _, err := client.NewsWithSentiment(context.Background(), nil, 10)
	require.NoError(t, err)

	_, _, err = client.NewsWithSentiment(context.Background(), nil, 10)
	assert.ErrorIs(t, err, entity.ErrBudgetExhausted)
	assert.Equal(t, 1, calls, "exhausted budget must not reach the network")
}

func TestNewsWithSentiment_EmptyFeed(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"feed": []}`))
	})

	client := newTestClient(t, handler, 0)

	_, _, err := client.NewsWithSentiment(context.Background(), nil, 10)
	assert.ErrorIs(t, err, entity.ErrNoData)
}

func TestNewsWithSentiment_SummaryTruncatedOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 205)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"feed": [{"title": "Eurozone Update", "summary": "` + long + `", "overall_sentiment_label": "Neutral"}]}`))
	})

	client := newTestClient(t, handler, 0)

	items, _, err := client.NewsWithSentiment(context.Background(), nil, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, utf8.ValidString(items[0].Summary))
	assert.Equal(t, strings.Repeat("é", 200)+"...", items[0].Summary)
}

func TestQuotes(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		symbol := r.URL.Query().Get("symbol")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Global Quote": {
			"01. symbol": "` + symbol + `",
			"05. price": "512.34",
			"06. volume": "75234100",
			"09. change": "2.51",
			"10. change percent": "0.4923%"
		}}`))
	})

	client := newTestClient(t, handler, 0)

	board, err := client.Quotes(context.Background(), map[string]string{"SPY": "S&P 500"})
	require.NoError(t, err)
	require.Len(t, board, 1)

	q := board["S&P 500"]
	assert.Equal(t, "SPY", q.Symbol)
	assert.InDelta(t, 512.34, q.Price, 0.001)
	assert.InDelta(t, 2.51, q.Change, 0.001)
	assert.InDelta(t, 0.4923, q.ChangePercent, 0.0001)
	assert.Equal(t, int64(75234100), q.Volume)
	assert.False(t, q.ObservedAt.IsZero())
}

func TestQuotes_CapsSymbols(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Global Quote": {"05. price": "100", "09. change": "1", "10. change percent": "1.0%", "06. volume": "10"}}`))
	})

	client := newTestClient(t, handler, 0)

	symbols := map[string]string{
		"SPY": "S&P 500", "QQQ": "NASDAQ Composite",
		"DIA": "Dow Jones Industrial", "IWM": "Russell 2000",
	}
	board, err := client.Quotes(context.Background(), symbols)
	require.NoError(t, err)
	assert.Len(t, board, maxQuoteSymbols)
	assert.Equal(t, maxQuoteSymbols, calls)
}

func TestQuotes_AllSymbolsFail(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	client := newTestClient(t, handler, 0)

	board, err := client.Quotes(context.Background(), map[string]string{"SPY": "S&P 500"})
	assert.ErrorIs(t, err, entity.ErrNoData)
	assert.Empty(t, board)
}

func TestEarningsCalendar(t *testing.T) {
	csv := "symbol,name,reportDate,fiscalDateEnding,estimate,currency\n" +
		"AAPL,Apple Inc,2026-01-28,2025-12-31,2.45,USD\n" +
		"MSFT,Microsoft Corporation,2026-01-27,2025-12-31,3.12,USD\n" +
		",Missing Symbol,2026-01-27,2025-12-31,1.00,USD\n"

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "EARNINGS_CALENDAR", r.URL.Query().Get("function"))
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(csv))
	})

	client := newTestClient(t, handler, 0)

	events, err := client.EarningsCalendar(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2, "rows without a symbol are dropped")

	assert.Equal(t, "AAPL", events[0].Symbol)
	assert.Equal(t, "Apple Inc", events[0].CompanyName)
	assert.Equal(t, "2026-01-28", events[0].Date)
	assert.Equal(t, "Wednesday", events[0].DayOfWeek)
	assert.Equal(t, entity.AfterClose, events[0].Timing)
	assert.Equal(t, entity.LargeCap, events[0].MarketCap)
}

func TestEarningsCalendar_CapsAtTwenty(t *testing.T) {
	csv := "symbol,name,reportDate\n"
	for i := 0; i < 30; i++ {
		csv += "SYM,Company,2026-01-28\n"
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(csv))
	})

	client := newTestClient(t, handler, 0)

	events, err := client.EarningsCalendar(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 20)
}

func TestEarningsCalendar_MalformedCSV(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("just one line"))
	})

	client := newTestClient(t, handler, 0)

	_, err := client.EarningsCalendar(context.Background())
	assert.ErrorIs(t, err, entity.ErrParseFailure)
}

func TestClient_MissingAPIKey(t *testing.T) {
	client := NewClient(config.ProviderConfig{BaseURL: "http://localhost"}, time.Second, nil)

	_, _, err := client.NewsWithSentiment(context.Background(), nil, 10)
	assert.ErrorIs(t, err, entity.ErrMissingCredentials)

	_, err = client.Quotes(context.Background(), map[string]string{"SPY": "S&P 500"})
	assert.ErrorIs(t, err, entity.ErrMissingCredentials)

	_, err = client.EarningsCalendar(context.Background())
	assert.ErrorIs(t, err, entity.ErrMissingCredentials)
}

func TestClient_RateLimitedNotRetried(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	})

	client := newTestClient(t, handler, 0)

	_, _, err := client.NewsWithSentiment(context.Background(), nil, 10)
	assert.ErrorIs(t, err, entity.ErrProviderUnavailable)
	assert.Equal(t, 1, calls, "429 must not be retried within a run")
}
