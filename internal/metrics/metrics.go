package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicketsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kinogate_tickets_issued_total",
		Help: "Number of tickets issued.",
	})

	Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kinogate_verifications_total",
		Help: "Number of gate verification attempts by result.",
	}, []string{"result"})

	Admissions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kinogate_admissions_total",
		Help: "Number of tickets marked as used.",
	})

	Cancellations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kinogate_cancellations_total",
		Help: "Number of cancelled tickets by cancellation kind.",
	}, []string{"kind"})

	RefundCents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kinogate_refund_cents_total",
		Help: "Total refunded amount in cents.",
	})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kinogate_http_request_duration_seconds",
		Help:    "HTTP request latency by method and path.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
