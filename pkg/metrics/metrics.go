package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CheckoutMetrics tracks order placement outcomes.
type CheckoutMetrics struct {
	Placements *prometheus.CounterVec
	Retries    prometheus.Counter
	DurationMS prometheus.Histogram
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	placements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sshop",
		Subsystem: "checkout",
		Name:      "placements_total",
		Help:      "Total number of order placement attempts by result.",
	}, []string{"result"})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sshop",
		Subsystem: "checkout",
		Name:      "conflict_retries_total",
		Help:      "Total number of transaction conflict retries.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sshop",
		Subsystem: "checkout",
		Name:      "placement_duration_ms",
		Help:      "Order placement latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})

	reg.MustRegister(placements, retries, duration)
	return &CheckoutMetrics{Placements: placements, Retries: retries, DurationMS: duration}
}

// ServerMetrics tracks HTTP traffic.
type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(reg prometheus.Registerer) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sshop",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"path", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sshop",
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"path"})

	reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
