package entity

import "errors"

// Collector boundary failure reasons. These classify recovered failures; they
// never propagate past the Unified Collector as errors.
var (
	// ErrBudgetExhausted means the provider's per-run request budget was spent
	// before the call was attempted. No network I/O happened.
	ErrBudgetExhausted = errors.New("provider request budget exhausted")

	// ErrProviderUnavailable means a transport failure or non-2xx response.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrParseFailure means the payload arrived but did not match the expected
	// shape. The whole response is discarded; nothing is partially applied.
	ErrParseFailure = errors.New("provider payload parse failure")

	// ErrNoData means the provider answered cleanly with zero usable items.
	ErrNoData = errors.New("no data")
)

// ErrMissingCredentials is the single fatal startup condition: every source
// configured for some capability lacks credentials.
var ErrMissingCredentials = errors.New("missing credentials for all sources of a capability")
