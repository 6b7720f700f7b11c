// Package entity defines the core domain entities for the premarket briefing
// system: quotes, news items, calendar events, sector aggregates, and the
// ReportData root aggregate. Provider payloads are mapped into these types at
// the collector boundary; nothing downstream ever sees a raw provider shape.
package entity

import (
	"math"
	"time"
)

// Quote is a single price observation for a symbol. Instances are immutable:
// a correction is expressed by producing a new Quote, never by mutation.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"current_price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        int64     `json:"volume"`
	ObservedAt    time.Time `json:"timestamp"`
}

// ChangeConsistent reports whether ChangePercent agrees with Change and Price
// within the given tolerance in percentage points. The reference price is the
// pre-change price (Price - Change).
func (q Quote) ChangeConsistent(tolerance float64) bool {
	base := q.Price - q.Change
	if base == 0 {
		return q.ChangePercent == 0
	}
	expected := q.Change / base * 100
	return math.Abs(expected-q.ChangePercent) <= tolerance
}

// QuoteBoard groups quotes by display label within a market category
// (futures, previous_close, international, current_prices).
type QuoteBoard map[string]Quote

// MarketPerformance is the nested category -> label -> Quote structure carried
// by ReportData.
type MarketPerformance map[string]QuoteBoard

// AverageChangePercent returns the arithmetic mean of the percent changes on
// the board, or 0 for an empty board.
func (b QuoteBoard) AverageChangePercent() float64 {
	if len(b) == 0 {
		return 0
	}
	var sum float64
	for _, q := range b {
		sum += q.ChangePercent
	}
	return sum / float64(len(b))
}
