// Package metrics holds the prometheus collectors of the mailer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_mailer_submissions_total",
		Help: "Total number of submissions handled, by outcome",
	}, []string{"outcome"})
	DeliveryAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_mailer_delivery_attempts_total",
		Help: "Total number of delivery attempts, by transport and result",
	}, []string{"transport", "result"})
	DeliveryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_mailer_delivery_duration_seconds",
		Help:    "Duration of delivery attempts",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	}, []string{"transport"})
	DeliveryFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_mailer_delivery_fallbacks_total",
		Help: "Total number of times the backup transport was used after the primary failed",
	})
	IdempotentReplays = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_mailer_idempotent_replays_total",
		Help: "Total number of submissions answered from the idempotency ledger",
	})
)

func init() {
	prometheus.MustRegister(Submissions)
	prometheus.MustRegister(DeliveryAttempts)
	prometheus.MustRegister(DeliveryDuration)
	prometheus.MustRegister(DeliveryFallbacks)
	prometheus.MustRegister(IdempotentReplays)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
