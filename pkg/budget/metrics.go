package budget

import "github.com/prometheus/client_golang/prometheus"

// Metrics receives budget decisions for observability.
type Metrics interface {
	// RecordAllowed is called when a request is granted from the budget.
	RecordAllowed(provider string)

	// RecordDenied is called when a request is refused because the budget is
	// exhausted.
	RecordDenied(provider string)
}

// NoOpMetrics discards all budget metrics. Useful in tests and when metrics
// collection is disabled.
type NoOpMetrics struct{}

// NewNoOpMetrics creates a new NoOpMetrics instance.
func NewNoOpMetrics() *NoOpMetrics {
	return &NoOpMetrics{}
}

// RecordAllowed is a no-op.
func (m *NoOpMetrics) RecordAllowed(provider string) {}

// RecordDenied is a no-op.
func (m *NoOpMetrics) RecordDenied(provider string) {}

// PrometheusMetrics implements Metrics with Prometheus counters, labeled by
// provider and decision status.
type PrometheusMetrics struct {
	requestsTotal *prometheus.CounterVec
}

// NewPrometheusMetrics creates budget metrics registered on the given
// registerer. Pass prometheus.DefaultRegisterer for the process registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provider_budget_requests_total",
				Help: "Budget decisions per provider, by status (allowed/denied).",
			},
			[]string{"provider", "status"},
		),
	}
	reg.MustRegister(m.requestsTotal)
	return m
}

// RecordAllowed increments the allowed counter for the provider.
func (m *PrometheusMetrics) RecordAllowed(provider string) {
	m.requestsTotal.WithLabelValues(provider, "allowed").Inc()
}

// RecordDenied increments the denied counter for the provider.
func (m *PrometheusMetrics) RecordDenied(provider string) {
	m.requestsTotal.WithLabelValues(provider, "denied").Inc()
}
