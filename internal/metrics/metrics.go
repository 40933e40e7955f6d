package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ViewLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_view_loads_total",
			Help: "Total number of view loader runs, by route name and outcome",
		},
		[]string{"route", "outcome"},
	)

	PageRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_page_renders_total",
			Help: "Total number of page navigations served, by route name",
		},
		[]string{"route"},
	)

	APIClientRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_api_client_requests_total",
			Help: "Total number of requests sent to the registry API, by method and status class",
		},
		[]string{"method", "status"},
	)

	APIClientDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "registry_api_client_request_duration_seconds",
			Help:    "Latency of requests sent to the registry API",
			Buckets: prometheus.DefBuckets,
		},
	)

	CapitalIncreases = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_capital_increases_total",
			Help: "Total number of applied capital increases",
		},
	)
)
