package datasource

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	statsCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datasource_cache_lookups_total",
			Help: "Stats cache lookups by result",
		},
		[]string{"result"},
	)

	statsAPIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datasource_stats_api_requests_total",
			Help: "MLB Stats API requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)
)
