package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderConfig holds the credentials and request budget for one external
// data provider. A RequestBudget of 0 means unlimited.
type ProviderConfig struct {
	APIKey        string `yaml:"api_key"`
	BaseURL       string `yaml:"base_url"`
	RequestBudget int    `yaml:"request_budget"`
}

// Thresholds carries the classification constants used by the unified
// collector and synthesis engine. The values are carried over from the
// original report tuning and are deliberately configurable rather than
// re-derived.
type Thresholds struct {
	RotationStrong   float64 `yaml:"rotation_strong"`   // spread in pp for "strong"
	RotationModerate float64 `yaml:"rotation_moderate"` // spread in pp for "moderate"
	VIXHigh          float64 `yaml:"vix_high"`          // volatility regime "high"
	VIXElevated      float64 `yaml:"vix_elevated"`      // volatility regime "medium"
	BullishFutures   float64 `yaml:"bullish_futures"`   // mean futures %chg for bullish
	SectorWeakness   float64 `yaml:"sector_weakness"`   // weekly return flagging a weak sector
	EarningsDensity  int     `yaml:"earnings_density"`  // large-cap releases flagging a dense week
}

// Symbols carries the ticker tables the collectors cover, keyed by symbol
// with display names as values. Index ETFs stand in for index and futures
// data, which sit behind separate market-data plans.
type Symbols struct {
	Futures       map[string]string `yaml:"futures"`
	International map[string]string `yaml:"international"`
	Sectors       map[string]string `yaml:"sectors"`
	News          []string          `yaml:"news"`
}

// Config is the full pipeline configuration. Secrets come from the
// environment; the yaml file covers endpoints, budgets, and tuning.
type Config struct {
	Timezone    string        `yaml:"timezone"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	OutputDir   string        `yaml:"output_dir"`
	MetricsPort int           `yaml:"metrics_port"`

	FRED         ProviderConfig `yaml:"fred"`
	AlphaVantage ProviderConfig `yaml:"alphavantage"`
	Polygon      ProviderConfig `yaml:"polygon"`
	Finviz       ProviderConfig `yaml:"finviz"`
	ForexFactory ProviderConfig `yaml:"forexfactory"`

	Symbols    Symbols    `yaml:"symbols"`
	Thresholds Thresholds `yaml:"thresholds"`
}

// Default returns the configuration used when no file is provided. API keys
// are read from the environment here so a bare `Default()` is runnable.
func Default() Config {
	return Config{
		Timezone:    "America/New_York",
		HTTPTimeout: GetEnvDuration("HTTP_TIMEOUT", 15*time.Second),
		OutputDir:   "reports",
		MetricsPort: GetEnvInt("METRICS_PORT", 9091),
		FRED: ProviderConfig{
			APIKey:  GetEnvString("FRED_API_KEY", ""),
			BaseURL: "https://api.stlouisfed.org/fred",
		},
		AlphaVantage: ProviderConfig{
			APIKey:        GetEnvString("ALPHAVANTAGE_API_KEY", ""),
			BaseURL:       "https://www.alphavantage.co/query",
			RequestBudget: 25,
		},
		Polygon: ProviderConfig{
			APIKey:  GetEnvString("POLYGON_API_KEY", ""),
			BaseURL: "https://api.polygon.io",
		},
		Finviz: ProviderConfig{
			BaseURL: "https://finviz.com",
		},
		ForexFactory: ProviderConfig{
			BaseURL: "https://www.forexfactory.com",
		},
		Symbols: Symbols{
			Futures: map[string]string{
				"SPY": "S&P 500",
				"QQQ": "NASDAQ Composite",
				"DIA": "Dow Jones Industrial",
				"IWM": "Russell 2000",
			},
			International: map[string]string{
				"EWJ": "Japan (Nikkei)",
				"EWH": "Hong Kong (Hang Seng)",
				"EWU": "UK (FTSE)",
				"EWG": "Germany (DAX)",
				"EWQ": "France (CAC)",
			},
			Sectors: map[string]string{
				"XLK":  "Technology",
				"XLF":  "Financial",
				"XLE":  "Energy",
				"XLV":  "Healthcare",
				"XLI":  "Industrial",
				"XLP":  "Consumer Staples",
				"XLY":  "Consumer Discretionary",
				"XLU":  "Utilities",
				"XLB":  "Materials",
				"XLRE": "Real Estate",
			},
			News: []string{"AAPL", "MSFT", "GOOGL", "TSLA", "NVDA"},
		},
		Thresholds: Thresholds{
			RotationStrong:   5.0,
			RotationModerate: 2.5,
			VIXHigh:          25.0,
			VIXElevated:      15.0,
			BullishFutures:   0.3,
			SectorWeakness:   -2.0,
			EarningsDensity:  3,
		},
	}
}

// Load reads a yaml config file over the defaults. Fields absent from the
// file keep their default values; API keys present in the environment win
// over file values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg.FRED.APIKey = GetEnvString("FRED_API_KEY", cfg.FRED.APIKey)
	cfg.AlphaVantage.APIKey = GetEnvString("ALPHAVANTAGE_API_KEY", cfg.AlphaVantage.APIKey)
	cfg.Polygon.APIKey = GetEnvString("POLYGON_API_KEY", cfg.Polygon.APIKey)

	return cfg, nil
}

// Validate checks the configuration at startup. Missing credentials for every
// source of a capability are the single fatal condition the pipeline allows;
// per-call failures later degrade instead.
func (c Config) Validate() error {
	if err := ValidateDurationRange(c.HTTPTimeout, time.Second, 2*time.Minute); err != nil {
		return fmt.Errorf("http_timeout: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}

	// Quotes can come from Polygon or Alpha Vantage; at least one key must
	// exist. News and earnings need Alpha Vantage. The scraped sources carry
	// no credentials.
	if c.Polygon.APIKey == "" && c.AlphaVantage.APIKey == "" {
		return fmt.Errorf("quotes capability: %w", ErrNoCredentials)
	}
	return nil
}

// Location resolves the configured report timezone.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
