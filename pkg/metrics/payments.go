package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the payment collectors.
const (
	OutcomeSuccess          = "success"
	OutcomeDuplicate        = "duplicate"
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeValidation       = "validation"
	OutcomeError            = "error"
	OutcomeFallback         = "fallback"
)

// PaymentMetrics records order creation, verification and FX refresh activity.
// A nil *PaymentMetrics is valid and records nothing.
type PaymentMetrics struct {
	verifications *prometheus.CounterVec
	orders        *prometheus.CounterVec
	gatewayLat    *prometheus.HistogramVec
	fxRefreshes   *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment collectors on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Payment verification attempts by outcome.",
	}, []string{"outcome"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_orders_total",
		Help: "Gateway order creation attempts by outcome.",
	}, []string{"outcome"})
	gatewayLat := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_duration_seconds",
		Help:    "Latency of payment gateway calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	fxRefreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fx_rate_refreshes_total",
		Help: "Conversion rate refreshes by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(verifications, orders, gatewayLat, fxRefreshes)
	return &PaymentMetrics{
		verifications: verifications,
		orders:        orders,
		gatewayLat:    gatewayLat,
		fxRefreshes:   fxRefreshes,
	}
}

func (m *PaymentMetrics) IncVerification(outcome string) {
	if m == nil || m.verifications == nil {
		return
	}
	m.verifications.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *PaymentMetrics) IncOrder(outcome string) {
	if m == nil || m.orders == nil {
		return
	}
	m.orders.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveGateway records how long a gateway call took.
func (m *PaymentMetrics) ObserveGateway(operation string, d time.Duration) {
	if m == nil || m.gatewayLat == nil {
		return
	}
	m.gatewayLat.WithLabelValues(normalizeLabel(operation)).Observe(d.Seconds())
}

func (m *PaymentMetrics) IncFXRefresh(outcome string) {
	if m == nil || m.fxRefreshes == nil {
		return
	}
	m.fxRefreshes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
