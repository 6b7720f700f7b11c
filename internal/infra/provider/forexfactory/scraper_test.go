package forexfactory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"premarket-brief/internal/domain/entity"
	"premarket-brief/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScraper(t *testing.T, handler http.Handler) *Scraper {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewScraper(config.ProviderConfig{BaseURL: server.URL}, server.Client())
}

func impactIcons(n int) string {
	icons := ""
	for i := 0; i < n; i++ {
		icons += `<span class="calendar__impact-icon calendar__impact-icon--screen"></span>`
	}
	return icons
}

func calendarPage(rows string) string {
	return `<html><body><table class="calendar__table">` + rows + `</table></body></html>`
}

func row(timeText, currency string, icons int, event, forecast, previous string) string {
	return `<tr class="calendar__row">
		<td class="calendar__date"></td>
		<td class="calendar__time">` + timeText + `</td>
		<td class="calendar__currency">` + currency + `</td>
		<td class="calendar__impact">` + impactIcons(icons) + `</td>
		<td class="calendar__event">` + event + `</td>
		<td class="calendar__actual"></td>
		<td class="calendar__forecast">` + forecast + `</td>
		<td class="calendar__previous">` + previous + `</td>
	</tr>`
}

func TestEconomicCalendar(t *testing.T) {
	page := calendarPage(
		row("15:00", "USD", 2, "ISM Services PMI", "52.5", "52.6") +
			row("13:30", "USD", 3, "Core CPI m/m", "0.3%", "0.2%") +
			row("13:30", "EUR", 3, "ECB Press Conference", "", "") +
			row("14:00", "USD", 1, "Natural Gas Storage", "", ""),
	)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/calendar", r.URL.Path)
		_, _ = w.Write([]byte(page))
	})

	scraper := newTestScraper(t, handler)

	events, err := scraper.EconomicCalendar(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2, "non-USD and low-impact rows are dropped")

	// Sorted by ET time: 13:30 GMT -> 08:30 AM ET before 15:00 GMT -> 10:00 AM ET.
	assert.Equal(t, "Core CPI m/m", events[0].Event)
	assert.Equal(t, "08:30 AM ET", events[0].Time)
	assert.Equal(t, entity.ImportanceHigh, events[0].Importance)
	assert.Equal(t, "0.3%", events[0].Forecast)
	assert.Equal(t, "0.2%", events[0].Previous)
	assert.Equal(t, "USD", events[0].Currency)
	assert.Equal(t, "ForexFactory", events[0].Source)

	assert.Equal(t, "ISM Services PMI", events[1].Event)
	assert.Equal(t, "10:00 AM ET", events[1].Time)
	assert.Equal(t, entity.ImportanceMedium, events[1].Importance)
}

func TestEconomicCalendar_CapsAtTen(t *testing.T) {
	rows := ""
	for i := 0; i < 15; i++ {
		rows += row("13:30", "USD", 3, "Event", "1", "2")
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(calendarPage(rows)))
	})

	scraper := newTestScraper(t, handler)

	events, err := scraper.EconomicCalendar(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, maxEvents)
}

func TestEconomicCalendar_NonClockTimes(t *testing.T) {
	page := calendarPage(
		row("All Day", "USD", 3, "Bank Holiday", "", "") +
			row("Tentative", "USD", 2, "Treasury Refunding Announcement", "", ""),
	)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	})

	scraper := newTestScraper(t, handler)

	events, err := scraper.EconomicCalendar(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	times := []string{events[0].Time, events[1].Time}
	assert.Contains(t, times, "All Day")
	assert.Contains(t, times, "Tentative")
}

func TestEconomicCalendar_MissingTable(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>redesigned page</p></body></html>`))
	})

	scraper := newTestScraper(t, handler)

	_, err := scraper.EconomicCalendar(context.Background())
	assert.ErrorIs(t, err, entity.ErrNoData)
}

func TestEconomicCalendar_ServerError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	scraper := newTestScraper(t, handler)

	_, err := scraper.EconomicCalendar(context.Background())
	assert.ErrorIs(t, err, entity.ErrProviderUnavailable)
}

func TestToEasternTime(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "morning GMT", input: "13:30", expected: "08:30 AM ET"},
		{name: "afternoon GMT", input: "19:00", expected: "02:00 PM ET"},
		{name: "wraps past midnight", input: "2:00", expected: "09:00 PM ET"},
		{name: "noon ET", input: "17:00", expected: "12:00 PM ET"},
		{name: "midnight ET", input: "5:00", expected: "12:00 AM ET"},
		{name: "12h clock with suffix", input: "1:30pm", expected: "08:30 AM ET"},
		{name: "all day passes through", input: "All Day", expected: "All Day"},
		{name: "tentative passes through", input: "Tentative", expected: "Tentative"},
		{name: "unparseable gets suffix", input: "Day 2", expected: "Day 2 ET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, toEasternTime(tt.input))
		})
	}
}

func TestImpactLevel(t *testing.T) {
	assert.Equal(t, entity.ImportanceHigh, impactLevel(3))
	assert.Equal(t, entity.ImportanceHigh, impactLevel(4))
	assert.Equal(t, entity.ImportanceMedium, impactLevel(2))
	assert.Equal(t, entity.ImportanceLow, impactLevel(1))
	assert.Equal(t, entity.ImportanceLow, impactLevel(0))
}
