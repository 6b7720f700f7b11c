package entity

// Importance grades an economic release by expected market impact.
type Importance string

const (
	ImportanceLow    Importance = "low"
	ImportanceMedium Importance = "medium"
	ImportanceHigh   Importance = "high"
)

// EconomicEvent is one scheduled (or most-recent) economic release. Time is a
// display string because providers report anything from "8:30 AM ET" to
// "Latest Data" or "Tentative".
type EconomicEvent struct {
	Time       string     `json:"time"`
	Event      string     `json:"event"`
	Importance Importance `json:"importance"`
	Forecast   string     `json:"forecast"`
	Previous   string     `json:"previous"`
	Currency   string     `json:"currency"`
	Source     string     `json:"source"`
}

// IsErrorMarker reports whether the event signals a recovered failure.
func (e EconomicEvent) IsErrorMarker() bool {
	return e.Source == ErrorSource
}

// NewErrorEconomicEvent builds the error-marker event for a failed calendar
// fetch or parse.
func NewErrorEconomicEvent(reason string) EconomicEvent {
	return EconomicEvent{
		Event:    reason,
		Source:   ErrorSource,
		Forecast: "N/A",
		Previous: "N/A",
	}
}

// EarningsTiming states when a release lands relative to the trading session.
type EarningsTiming string

const (
	BeforeOpen EarningsTiming = "BMO"
	AfterClose EarningsTiming = "AMC"
)

// MarketCapBucket is a coarse company-size classification.
type MarketCapBucket string

const (
	LargeCap MarketCapBucket = "Large"
	MidCap   MarketCapBucket = "Mid"
	SmallCap MarketCapBucket = "Small"
)

// EarningsEvent is one upcoming earnings release.
type EarningsEvent struct {
	Symbol      string          `json:"symbol"`
	CompanyName string          `json:"company_name"`
	Date        string          `json:"date"`
	DayOfWeek   string          `json:"day_of_week"`
	Timing      EarningsTiming  `json:"timing"`
	MarketCap   MarketCapBucket `json:"market_cap"`
	Sector      string          `json:"sector"`
}

// IsErrorMarker reports whether the event signals a recovered failure. The
// marker reuses the company-name field for the reason.
func (e EarningsEvent) IsErrorMarker() bool {
	return e.Symbol == ErrorSource
}

// NewErrorEarningsEvent builds the error-marker entry for a failed earnings
// calendar fetch.
func NewErrorEarningsEvent(reason string) EarningsEvent {
	return EarningsEvent{Symbol: ErrorSource, CompanyName: reason}
}
