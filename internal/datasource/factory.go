package datasource

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/mlb-predictor/internal/config"
)

// Factory builds the external clients described by configuration. Clients
// that talk to the same host share one rate-limited HTTP client.
type Factory struct {
	cfg    *config.Config
	logger *logrus.Logger

	statsHTTP *RateLimitedHTTPClient
	statsAPI  *StatsAPIClient
	cache     *StatsCache
}

// NewFactory creates a new data source factory
func NewFactory(cfg *config.Config, logger *logrus.Logger) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

// StatsHTTPClient returns the client used for the MLB Stats API
func (f *Factory) StatsHTTPClient() *RateLimitedHTTPClient {
	if f.statsHTTP == nil {
		httpCfg := DefaultHTTPClientConfig()
		httpCfg.Timeout = time.Duration(f.cfg.StatsAPI.RequestTimeoutSeconds) * time.Second
		httpCfg.MaxRetries = f.cfg.StatsAPI.MaxRetries
		httpCfg.RateLimit = f.cfg.StatsAPI.RateLimit
		f.statsHTTP = NewRateLimitedHTTPClient(httpCfg, f.logger)
	}
	return f.statsHTTP
}

// Cache returns the shared stats cache
func (f *Factory) Cache() *StatsCache {
	if f.cache == nil {
		f.cache = NewStatsCache(f.cfg.StatsCacheTTL())
	}
	return f.cache
}

// StatsAPI returns the MLB Stats API client
func (f *Factory) StatsAPI() *StatsAPIClient {
	if f.statsAPI == nil {
		f.statsAPI = NewStatsAPIClient(f.StatsHTTPClient(), StatsAPIConfig{
			BaseURL:     f.cfg.StatsAPI.BaseURL,
			Season:      f.cfg.StatsAPI.Season,
			RecentGames: f.cfg.StatsAPI.RecentGames,
		}, f.Cache(), f.logger)
	}
	return f.statsAPI
}

// FeedHTTPClient returns a client for RSS feeds, without a circuit breaker
// since feeds live on many unrelated hosts.
func (f *Factory) FeedHTTPClient() *RateLimitedHTTPClient {
	httpCfg := DefaultHTTPClientConfig()
	httpCfg.Timeout = time.Duration(f.cfg.Feeds.TimeoutSeconds) * time.Second
	httpCfg.MaxRetries = 1
	httpCfg.CircuitBreakerMax = 0
	return NewRateLimitedHTTPClient(httpCfg, f.logger)
}

// MLServiceHTTPClient returns a client for the remote model server
func (f *Factory) MLServiceHTTPClient() *RateLimitedHTTPClient {
	httpCfg := DefaultHTTPClientConfig()
	httpCfg.Timeout = time.Duration(f.cfg.MLService.RequestTimeoutSeconds) * time.Second
	httpCfg.MaxRetries = f.cfg.MLService.RetryAttempts
	httpCfg.RateLimit = f.cfg.MLService.RateLimit
	return NewRateLimitedHTTPClient(httpCfg, f.logger)
}

// Close releases idle connections held by built clients
func (f *Factory) Close() error {
	if f.statsHTTP != nil {
		return f.statsHTTP.Close()
	}
	return nil
}
