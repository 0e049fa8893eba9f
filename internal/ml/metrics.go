package ml

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MLPredictionsTotal tracks total classifier predictions
	MLPredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ml_predictions_total",
			Help: "Total number of classifier predictions made",
		},
		[]string{"backend", "cache_hit"},
	)

	// MLPredictionLatency tracks classifier latency
	MLPredictionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ml_prediction_latency_seconds",
			Help:    "Classifier prediction latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	// MLCacheHitRatio tracks cache hit ratio
	MLCacheHitRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ml_cache_hit_ratio",
			Help: "Classifier prediction cache hit ratio",
		},
	)

	// MLHTTPErrorsTotal tracks remote classifier failures
	MLHTTPErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ml_http_errors_total",
			Help: "Total number of remote classifier errors",
		},
		[]string{"method", "error_type"},
	)

	// MLGRPCErrorsTotal tracks gRPC classifier failures
	MLGRPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ml_grpc_errors_total",
			Help: "Total number of gRPC classifier errors",
		},
		[]string{"method", "error_type"},
	)
)
