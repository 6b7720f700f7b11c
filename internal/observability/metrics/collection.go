package metrics

import "time"

// RecordParseFailure records a provider payload that could not be decoded.
func RecordParseFailure(provider, capability string) {
	ProviderParseFailuresTotal.WithLabelValues(provider, capability).Inc()
}

// RecordFallback records a fallback transition from one provider to another
// within a capability chain.
func RecordFallback(capability, from, to string) {
	FallbacksTakenTotal.WithLabelValues(capability, from, to).Inc()
}

// UpdateBudgetRemaining updates the remaining request budget gauge for a provider.
// Pass -1 for providers without a configured budget.
func UpdateBudgetRemaining(provider string, remaining int) {
	ProviderBudgetRemaining.WithLabelValues(provider).Set(float64(remaining))
}

// RecordBriefingRun records the result and duration of a full briefing run.
// Result should be "success", "partial", or "failure".
func RecordBriefingRun(result string, duration time.Duration) {
	BriefingRunsTotal.WithLabelValues(result).Inc()
	BriefingRunDuration.Observe(duration.Seconds())
}

// UpdateNewsItemsCollected updates the usable news item gauge after a run.
func UpdateNewsItemsCollected(count int) {
	NewsItemsCollected.Set(float64(count))
}

// UpdateQuotesCollected updates the per-category quote gauge after a run.
// Category is one of the quote board names such as "previous_close" or
// "international".
func UpdateQuotesCollected(category string, count int) {
	QuotesCollected.WithLabelValues(category).Set(float64(count))
}

// RecordSnapshotWrite records the time taken to persist a report snapshot.
func RecordSnapshotWrite(duration time.Duration) {
	SnapshotWriteDuration.Observe(duration.Seconds())
}
