package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	observationsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plateraffle_observations_recorded_total",
		Help: "Plate records written, by category.",
	}, []string{"category"})

	drawsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plateraffle_draws_started_total",
		Help: "Weighted draws run.",
	})

	drawsFinalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plateraffle_draws_finalized_total",
		Help: "Draws finalized, by method.",
	}, []string{"method"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plateraffle_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)
