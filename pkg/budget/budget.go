// Package budget provides per-provider request budgeting for collection runs.
//
// Each Source Collector owns one Budget per run. A Budget is a simple counted
// allowance: once spent, the collector short-circuits with an exhausted signal
// instead of attempting network I/O. Budgets are scoped to a single run and
// must not be shared across concurrent runs.
package budget

import "sync"

// Budget tracks a provider's request allowance for one collection run.
// All methods are safe for concurrent use within a run.
type Budget struct {
	mu       sync.Mutex
	provider string
	limit    int
	used     int
	metrics  Metrics
}

// New creates a budget for the named provider. A limit <= 0 means unlimited
// (metered providers on paid plans). A nil metrics collector disables
// instrumentation.
func New(provider string, limit int, metrics Metrics) *Budget {
	if metrics == nil {
		metrics = NewNoOpMetrics()
	}
	return &Budget{provider: provider, limit: limit, metrics: metrics}
}

// Allow consumes one request from the budget. It returns false when the
// budget is already exhausted; the request is then not counted.
func (b *Budget) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.limit > 0 && b.used >= b.limit {
		b.metrics.RecordDenied(b.provider)
		return false
	}
	b.used++
	b.metrics.RecordAllowed(b.provider)
	return true
}

// Exhausted reports whether the budget has no requests left.
func (b *Budget) Exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.limit > 0 && b.used >= b.limit
}

// Used returns the number of requests consumed so far.
func (b *Budget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Remaining returns the number of requests left, or -1 for unlimited budgets.
func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.limit <= 0 {
		return -1
	}
	left := b.limit - b.used
	if left < 0 {
		return 0
	}
	return left
}

// Reset restores the full allowance. Intended for a fresh run when a
// collector instance is reused.
func (b *Budget) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.used = 0
}

// Provider returns the provider name the budget belongs to.
func (b *Budget) Provider() string {
	return b.provider
}
