package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	Requests   *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	Conditions *prometheus.CounterVec
	Rows       prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "screener_http_requests_total",
		Help: "Total HTTP requests by route and status code",
	}, []string{"route", "code"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "screener_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	conditions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "screener_conditions_total",
		Help: "Screening conditions by outcome",
	}, []string{"outcome"})

	rows := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "screener_result_rows",
		Help:    "Rows returned per screening request",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	reg.MustRegister(requests, duration, conditions, rows)

	return &Metrics{
		Requests:   requests,
		Duration:   duration,
		Conditions: conditions,
		Rows:       rows,
	}
}
