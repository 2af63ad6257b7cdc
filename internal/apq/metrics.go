package apq

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels recorded per processed operation.
const (
	OutcomePassThrough  = "pass_through"
	OutcomeHit          = "hit"
	OutcomeRegistered   = "registered"
	OutcomeNotFound     = "not_found"
	OutcomeHashMismatch = "hash_mismatch"
	OutcomeNotSupported = "not_supported"
	OutcomeError        = "error"
)

// Metrics holds the Prometheus collectors of the persisted query stage.
type Metrics struct {
	requests    *prometheus.CounterVec
	storeErrors *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// leaves them unregistered, which is convenient in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "apq_requests_total",
			Help: "Operations processed by the persisted query stage, by outcome",
		}, []string{"outcome"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "apq_store_errors_total",
			Help: "Query store failures, by operation",
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.storeErrors)
	}
	return m
}

func (m *Metrics) observe(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) storeError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}
