package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records checkout and order-transition outcomes.
type SettlementMetrics struct {
	checkoutDuration *prometheus.HistogramVec
	checkoutTotal    *prometheus.CounterVec
	transitionTotal  *prometheus.CounterVec
	pointsTotal      *prometheus.CounterVec
}

// NewSettlementMetrics registers the settlement metrics on the provided
// registerer. A nil registerer yields a no-op instance, which tests use.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout settlements in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	checkoutTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_total",
		Help: "Checkout settlements by outcome.",
	}, []string{"outcome"})
	transitionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transition_total",
		Help: "Order status transitions by target status and outcome.",
	}, []string{"status", "outcome"})
	pointsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "loyalty_points_total",
		Help: "Loyalty points moved through the ledger by entry type.",
	}, []string{"type"})
	reg.MustRegister(checkoutDuration, checkoutTotal, transitionTotal, pointsTotal)
	return &SettlementMetrics{
		checkoutDuration: checkoutDuration,
		checkoutTotal:    checkoutTotal,
		transitionTotal:  transitionTotal,
		pointsTotal:      pointsTotal,
	}
}

// ObserveCheckout records one checkout attempt.
func (m *SettlementMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	if m == nil || m.checkoutDuration == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.checkoutDuration.WithLabelValues(label).Observe(duration.Seconds())
	m.checkoutTotal.WithLabelValues(label).Inc()
}

// IncTransition records one status-change attempt.
func (m *SettlementMetrics) IncTransition(status, outcome string) {
	if m == nil || m.transitionTotal == nil {
		return
	}
	m.transitionTotal.WithLabelValues(normalizeLabel(status), normalizeLabel(outcome)).Inc()
}

// AddPoints accumulates absolute point movement per ledger entry type.
func (m *SettlementMetrics) AddPoints(entryType string, points int) {
	if m == nil || m.pointsTotal == nil {
		return
	}
	if points < 0 {
		points = -points
	}
	m.pointsTotal.WithLabelValues(normalizeLabel(entryType)).Add(float64(points))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
