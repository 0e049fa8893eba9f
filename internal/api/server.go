// Package api serves predictions, the daily slate and team data over HTTP.
package api

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/mlb-predictor/internal/datasource"
	"github.com/yourusername/mlb-predictor/internal/health"
	"github.com/yourusername/mlb-predictor/internal/metrics"
	"github.com/yourusername/mlb-predictor/internal/news"
	"github.com/yourusername/mlb-predictor/internal/repository"
	"github.com/yourusername/mlb-predictor/internal/service"
)

// StatsSource is the subset of the MLB Stats API the team routes read.
type StatsSource interface {
	RecentGameStats(ctx context.Context, mlbID int) (datasource.RecentStats, error)
	TeamWinPct(ctx context.Context, mlbID int) (float64, error)
	UpcomingGames(ctx context.Context, mlbID int, from time.Time, days int) ([]datasource.ScheduledGame, error)
}

// NewsSource reads team headlines.
type NewsSource interface {
	TeamNews(ctx context.Context, abbr string) ([]news.Item, error)
	TopRedditPost(ctx context.Context, abbr string) (*news.Item, error)
}

// Config holds server settings.
type Config struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	StreamEnabled  bool
	MetricsEnabled bool
	MetricsPath    string
	Location       *time.Location
}

// Dependencies are the components routes call. Every field but Predictor and
// Directory may be nil, which disables the routes that need it.
type Dependencies struct {
	Predictor *service.Predictor
	Slates    *service.SlateService
	Stats     StatsSource
	News      NewsSource
	Directory *datasource.Directory
	History   repository.PredictionRepository
	Health    *health.Checker
	Logger    *logrus.Logger
}

// Server is the HTTP API.
type Server struct {
	cfg    Config
	deps   Dependencies
	hub    *SlateHub
	server *http.Server
	logger *logrus.Entry
	now    func() time.Time
}

// NewServer builds the server and its routes. When streaming is enabled the
// hub is subscribed to slate refreshes.
func NewServer(cfg Config, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.WithField("component", "api"),
		now:    time.Now,
	}

	if cfg.StreamEnabled && deps.Slates != nil {
		s.hub = NewSlateHub(deps.Slates.Latest, deps.Logger)
		deps.Slates.OnRefresh(s.hub.Broadcast)
	}

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/teams", s.handleTeams)
	mux.HandleFunc("POST /v1/predict", s.handlePredict)
	mux.HandleFunc("GET /v1/matchups/today", s.handleToday)
	mux.HandleFunc("GET /v1/teams/{abbr}/stats", s.handleTeamStats)
	mux.HandleFunc("GET /v1/teams/{abbr}/news", s.handleTeamNews)
	mux.HandleFunc("GET /v1/teams/{abbr}/schedule", s.handleTeamSchedule)
	mux.HandleFunc("GET /v1/predictions/recent", s.handleRecentPredictions)
	if s.hub != nil {
		mux.Handle("GET /v1/matchups/stream", s.hub)
	}
	if s.cfg.MetricsEnabled {
		mux.Handle("GET "+s.cfg.MetricsPath, metrics.Handler())
	}
	if s.deps.Health != nil {
		s.deps.Health.Register(mux)
	}

	return s.withLogging(mux)
}

// Hub returns the slate stream hub, or nil when streaming is disabled.
func (s *Server) Hub() *SlateHub {
	return s.hub
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.cfg.Addr).Info("API server starting")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the server and disconnects stream subscribers.
func (s *Server) Shutdown() error {
	s.logger.Info("API server shutting down")
	if s.hub != nil {
		s.hub.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(route, rec.status)
		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("Request served")
	})
}
