package filter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logviewer_requests_total",
			Help: "Requests handled by the gateway, by route and status",
		},
		[]string{"route", "status"},
	)

	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logviewer_upstream_errors_total",
			Help: "Forwarded requests that failed to reach their upstream",
		},
		[]string{"rule"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logviewer_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "logviewer_active_requests",
			Help: "The number of requests currently in flight",
		},
	)

	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "logviewer_request_duration_seconds",
			Help: "Time taken to serve or proxy the request",
		},
		[]string{"route"},
	)
)
