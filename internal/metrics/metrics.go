// Package metrics provides the centralized Prometheus registry for the predictor.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Outcome labels for slate refreshes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Counter metrics
var (
	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mlb_predictor",
		Name:      "predictions_total",
		Help:      "Total number of predictions by resolution status",
	}, []string{"status", "surface"})
	StatsFetchErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mlb_predictor",
		Name:      "stats_fetch_errors_total",
		Help:      "Total number of team stats fetch failures that fell back to neutral stats",
	}, []string{"kind"})
	SlateRefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mlb_predictor",
		Name:      "slate_refresh_total",
		Help:      "Total number of daily slate refreshes",
	}, []string{"outcome"})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mlb_predictor",
		Name:      "http_requests_total",
		Help:      "Total number of API requests by route and status code",
	}, []string{"route", "code"})
)

// Gauge metrics
var (
	SlateGames = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mlb_predictor",
		Name:      "slate_games",
		Help:      "Number of games in the latest slate",
	})
	StatsCacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mlb_predictor",
		Name:      "stats_cache_hit_ratio",
		Help:      "Hit ratio of the team stats cache",
	})
	StreamSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mlb_predictor",
		Name:      "stream_subscribers",
		Help:      "Number of connected slate stream subscribers",
	})
)

// Histogram metrics
var (
	PredictionLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mlb_predictor",
		Name:      "prediction_latency_seconds",
		Help:      "Latency of a single prediction in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
	SlateRefreshDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mlb_predictor",
		Name:      "slate_refresh_duration_seconds",
		Help:      "Duration of daily slate refreshes in seconds",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(StatsFetchErrorsTotal)
		registry.MustRegister(SlateRefreshTotal)
		registry.MustRegister(HTTPRequestsTotal)

		registry.MustRegister(SlateGames)
		registry.MustRegister(StatsCacheHitRatio)
		registry.MustRegister(StreamSubscribers)

		registry.MustRegister(PredictionLatency)
		registry.MustRegister(SlateRefreshDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler. It serves this package's
// registry together with the default one, where the classifier and data
// source collectors register themselves.
func Handler() http.Handler {
	gatherers := prometheus.Gatherers{GetRegistry(), prometheus.DefaultGatherer}
	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
}

// RecordPrediction records a resolved prediction.
func RecordPrediction(status, surface string, durationSeconds float64) {
	PredictionsTotal.WithLabelValues(status, surface).Inc()
	PredictionLatency.Observe(durationSeconds)
}

// RecordStatsFetchError records a stats lookup that fell back to defaults.
func RecordStatsFetchError(kind string) {
	StatsFetchErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordSlateRefresh records a slate refresh and, on success, its size.
func RecordSlateRefresh(outcome string, games int, durationSeconds float64) {
	SlateRefreshTotal.WithLabelValues(outcome).Inc()
	SlateRefreshDuration.Observe(durationSeconds)
	if outcome == OutcomeSuccess {
		SlateGames.Set(float64(games))
	}
}

// RecordHTTPRequest records a served API request.
func RecordHTTPRequest(route string, code int) {
	HTTPRequestsTotal.WithLabelValues(route, statusText(code)).Inc()
}

// UpdateStatsCacheHitRatio sets the stats cache hit ratio gauge.
func UpdateStatsCacheHitRatio(hits, misses uint64) {
	total := hits + misses
	if total == 0 {
		return
	}
	StatsCacheHitRatio.Set(float64(hits) / float64(total))
}

// UpdateStreamSubscribers sets the stream subscriber gauge.
func UpdateStreamSubscribers(count int) {
	StreamSubscribers.Set(float64(count))
}

func statusText(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
