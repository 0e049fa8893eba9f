// Package health serves liveness and readiness endpoints.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DatabasePinger defines the interface for checking database connectivity.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// CheckFunc reports whether one dependency is usable.
type CheckFunc func(ctx context.Context) error

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
	Model     string `json:"model,omitempty"`
}

// ReadyResponse represents the JSON response for readiness check endpoints.
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

// Config holds the configuration for the health handlers.
type Config struct {
	ServiceName  string
	Version      string
	ModelVersion string
	Logger       *logrus.Logger
	DB           DatabasePinger
	CheckTimeout time.Duration
}

// Checker tracks readiness and serves the health endpoints.
type Checker struct {
	serviceName  string
	version      string
	modelVersion string
	logger       *logrus.Logger
	timeout      time.Duration

	mu     sync.RWMutex
	ready  bool
	checks map[string]CheckFunc
}

// NewChecker creates a checker. A configured DB is registered as the
// "database" check.
func NewChecker(cfg Config) *Checker {
	timeout := cfg.CheckTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	c := &Checker{
		serviceName:  cfg.ServiceName,
		version:      cfg.Version,
		modelVersion: cfg.ModelVersion,
		logger:       logger,
		timeout:      timeout,
		checks:       make(map[string]CheckFunc),
	}
	if cfg.DB != nil {
		c.AddCheck("database", cfg.DB.Ping)
	}
	return c
}

// AddCheck registers a named readiness check.
func (c *Checker) AddCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// SetReady marks the service as ready to accept traffic.
func (c *Checker) SetReady(ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = ready
}

// IsReady returns whether the service has been marked ready.
func (c *Checker) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Register mounts /health, /live and /ready on mux.
func (c *Checker) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", c.handleHealth)
	mux.HandleFunc("/live", c.handleLive)
	mux.HandleFunc("/ready", c.handleReady)
}

// Run evaluates every check and reports whether all passed.
func (c *Checker) Run(ctx context.Context) (map[string]string, bool) {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	checks := make(map[string]CheckFunc, len(c.checks))
	for k, v := range c.checks {
		checks[k] = v
	}
	ready := c.ready
	c.mu.RUnlock()
	sort.Strings(names)

	results := make(map[string]string, len(names)+1)
	healthy := true
	if ready {
		results["service"] = "ok"
	} else {
		results["service"] = "not_ready"
		healthy = false
	}

	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := checks[name](checkCtx)
		cancel()
		if err != nil {
			healthy = false
			results[name] = "error: " + err.Error()
			c.logger.WithError(err).WithField("check", name).Warn("Readiness check failed")
			continue
		}
		results[name] = "ok"
	}
	return results, healthy
}

// handleHealth handles the /health endpoint - basic liveness check.
func (c *Checker) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   c.serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   c.version,
		Model:     c.modelVersion,
	})
}

// handleLive handles the /live endpoint - kubernetes liveness probe.
func (c *Checker) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: c.serviceName,
	})
}

// handleReady handles the /ready endpoint.
func (c *Checker) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks, healthy := c.Run(r.Context())

	response := ReadyResponse{
		Status:   "ok",
		Service:  c.serviceName,
		Checks:   checks,
		Duration: time.Since(start).String(),
	}
	code := http.StatusOK
	if !healthy {
		response.Status = "not_ready"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, response)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
