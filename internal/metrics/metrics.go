package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tripline"

var (
	SamplesAdmitted = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "samples_admitted_total", Help: "Track points admitted and persisted"})
	SamplesRejected = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "samples_rejected_total", Help: "Track points discarded as duplicate or noise"})
	SamplesInvalid  = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "samples_invalid_total", Help: "Track points refused as malformed"})
	HighSpeed       = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "high_speed_samples_total", Help: "Track points reporting an unreasonable speed"})

	AggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_seconds",
			Help:      "Time spent building trip stats and timelines, store round-trips included",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
