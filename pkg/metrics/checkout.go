package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records order-placement outcomes.
type CheckoutMetrics struct {
	duration   *prometheus.HistogramVec
	placed     *prometheus.CounterVec
	failed     *prometheus.CounterVec
	emailError prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of order placement in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"payment_method"})
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_placed_total",
		Help: "Successfully placed orders.",
	}, []string{"payment_method"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failures_total",
		Help: "Failed order placements.",
	}, []string{"reason"})
	emailError := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_email_failures_total",
		Help: "Confirmation emails that could not be delivered.",
	})
	reg.MustRegister(duration, placed, failed, emailError)
	return &CheckoutMetrics{
		duration:   duration,
		placed:     placed,
		failed:     failed,
		emailError: emailError,
	}
}

// ObserveDuration records how long an order placement took.
func (c *CheckoutMetrics) ObserveDuration(method string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(method)).Observe(duration.Seconds())
}

// IncPlaced increments the placed counter for the payment method.
func (c *CheckoutMetrics) IncPlaced(method string) {
	if c == nil || c.placed == nil {
		return
	}
	c.placed.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncFailed increments the failure counter for the given reason.
func (c *CheckoutMetrics) IncFailed(reason string) {
	if c == nil || c.failed == nil {
		return
	}
	c.failed.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncEmailFailure increments the email delivery failure counter.
func (c *CheckoutMetrics) IncEmailFailure() {
	if c == nil || c.emailError == nil {
		return
	}
	c.emailError.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
