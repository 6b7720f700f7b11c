// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provider metrics track upstream data source behavior
var (
	// ProviderRequestsTotal counts requests to each data provider by outcome
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total number of requests issued to data providers",
		},
		[]string{"provider", "capability", "outcome"},
	)

	// ProviderRequestDuration measures provider request duration in seconds
	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Provider request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"provider", "capability"},
	)

	// ProviderParseFailuresTotal counts payloads that could not be decoded
	ProviderParseFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_parse_failures_total",
			Help: "Total number of provider payloads that failed to parse",
		},
		[]string{"provider", "capability"},
	)

	// ProviderBudgetRemaining tracks the remaining request budget per provider
	ProviderBudgetRemaining = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "provider_budget_remaining",
			Help: "Remaining daily request budget per provider (-1 for unlimited)",
		},
		[]string{"provider"},
	)
)

// Collection metrics track briefing run behavior
var (
	// FallbacksTakenTotal counts fallback transitions within a capability chain
	FallbacksTakenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallbacks_taken_total",
			Help: "Total number of times a capability fell back to a secondary provider",
		},
		[]string{"capability", "from", "to"},
	)

	// CapabilityDuration measures time to collect one capability branch
	CapabilityDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "capability_collection_duration_seconds",
			Help:    "Time taken to collect one capability branch",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"capability"},
	)

	// BriefingRunsTotal counts briefing runs by result
	BriefingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "briefing_runs_total",
			Help: "Total number of briefing runs",
		},
		[]string{"result"}, // result: success, partial, failure
	)

	// BriefingRunDuration measures end-to-end briefing run duration
	BriefingRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "briefing_run_duration_seconds",
			Help:    "End-to-end briefing run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// NewsItemsCollected tracks usable news items gathered in the last run
	NewsItemsCollected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "news_items_collected",
			Help: "Number of usable news items gathered in the last run",
		},
	)

	// QuotesCollected tracks quotes gathered in the last run by category
	QuotesCollected = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "quotes_collected",
			Help: "Number of quotes gathered in the last run per category",
		},
		[]string{"category"},
	)

	// SnapshotWriteDuration measures time to persist a report snapshot
	SnapshotWriteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snapshot_write_duration_seconds",
			Help:    "Time taken to persist a report snapshot",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
	)
)

// RecordProviderRequest records one provider request with its outcome and latency.
func RecordProviderRequest(provider, capability, outcome string, duration time.Duration) {
	ProviderRequestsTotal.WithLabelValues(provider, capability, outcome).Inc()
	ProviderRequestDuration.WithLabelValues(provider, capability).Observe(duration.Seconds())
}

// RecordCapabilityDuration records the duration of a capability branch.
func RecordCapabilityDuration(capability string, duration time.Duration) {
	CapabilityDuration.WithLabelValues(capability).Observe(duration.Seconds())
}
