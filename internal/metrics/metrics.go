package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hangorburn_provider_calls_total",
			Help: "Total weather provider API calls",
		},
		[]string{"provider", "endpoint", "status"},
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hangorburn_provider_latency_seconds",
			Help:    "Weather provider API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "endpoint"},
	)

	ObservationsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hangorburn_observations_fetched_total",
			Help: "Total hourly observations fetched and accepted",
		},
		[]string{"provider"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hangorburn_cache_lookups_total",
			Help: "Forecast cache lookups by backend and result",
		},
		[]string{"backend", "result"},
	)

	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hangorburn_recommendations_total",
			Help: "Recommendations produced by domain and status",
		},
		[]string{"domain", "status"},
	)

	EngineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hangorburn_engine_duration_seconds",
			Help:    "Time spent scoring one forecast",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		},
		[]string{"domain"},
	)

	AdviceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hangorburn_advice_requests_total",
			Help: "Advice generation calls by outcome",
		},
		[]string{"status"},
	)
)
