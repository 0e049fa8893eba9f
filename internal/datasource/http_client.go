package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// HTTPClientConfig holds configuration for HTTP clients
type HTTPClientConfig struct {
	Timeout           time.Duration
	MaxRetries        int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RateLimit         float64 // requests per second
	CircuitBreakerMax int     // consecutive failures before the breaker opens
	CircuitCooldown   time.Duration
	UserAgent         string
}

// DefaultHTTPClientConfig returns recommended defaults
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:           15 * time.Second,
		MaxRetries:        3,
		RetryWaitMin:      200 * time.Millisecond,
		RetryWaitMax:      5 * time.Second,
		RateLimit:         10.0,
		CircuitBreakerMax: 5,
		CircuitCooldown:   30 * time.Second,
		UserAgent:         "mlb-predictor/1.0",
	}
}

// RateLimitedHTTPClient wraps retryablehttp.Client with rate limiting and a
// circuit breaker. It is safe for concurrent use.
type RateLimitedHTTPClient struct {
	client            *retryablehttp.Client
	limiter           *rate.Limiter
	userAgent         string
	circuitBreakerMax int
	cooldown          time.Duration
	logger            *logrus.Logger

	mu                sync.Mutex
	consecutiveErrors int
	openedAt          time.Time
	lastError         error
}

// NewRateLimitedHTTPClient creates a new rate-limited HTTP client
func NewRateLimitedHTTPClient(cfg HTTPClientConfig, logger *logrus.Logger) *RateLimitedHTTPClient {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = customRetryPolicy()
	// Hand the final response back to callers instead of a generic "giving up" error.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = retryLogger{entry: logger.WithField("component", "http")}

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}

	return &RateLimitedHTTPClient{
		client:            retryClient,
		limiter:           rate.NewLimiter(limit, 1),
		userAgent:         cfg.UserAgent,
		circuitBreakerMax: cfg.CircuitBreakerMax,
		cooldown:          cfg.CircuitCooldown,
		logger:            logger,
	}
}

// Do executes an HTTP request with rate limiting and circuit breaker
func (c *RateLimitedHTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.checkCircuit(); err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	retryReq, err := retryablehttp.FromRequest(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to wrap request: %w", err)
	}

	resp, err := c.client.Do(retryReq)
	if err != nil {
		c.recordFailure(err)
		return nil, err
	}
	if resp.StatusCode >= 500 {
		c.recordFailure(fmt.Errorf("server returned status %d", resp.StatusCode))
	} else {
		c.recordSuccess()
	}

	return resp, nil
}

// Get executes a GET request
func (c *RateLimitedHTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// Post executes a POST request
func (c *RateLimitedHTTPClient) Post(ctx context.Context, url string, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.Do(ctx, req)
}

// Close closes any resources held by the client
func (c *RateLimitedHTTPClient) Close() error {
	c.client.HTTPClient.CloseIdleConnections()
	return nil
}

// checkCircuit fails fast while the breaker is open. After the cooldown one
// request is let through as a probe.
func (c *RateLimitedHTTPClient) checkCircuit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.openedAt.IsZero() {
		return nil
	}
	if c.cooldown > 0 && time.Since(c.openedAt) >= c.cooldown {
		c.openedAt = time.Time{}
		c.consecutiveErrors = c.circuitBreakerMax - 1
		return nil
	}
	return fmt.Errorf("%w: %v", ErrCircuitOpen, c.lastError)
}

func (c *RateLimitedHTTPClient) recordFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveErrors++
	c.lastError = err
	if c.circuitBreakerMax > 0 && c.consecutiveErrors >= c.circuitBreakerMax && c.openedAt.IsZero() {
		c.openedAt = time.Now()
		c.logger.WithFields(logrus.Fields{
			"consecutive_errors": c.consecutiveErrors,
			"error":              err.Error(),
		}).Warn("Circuit breaker opened")
	}
}

func (c *RateLimitedHTTPClient) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveErrors = 0
	c.openedAt = time.Time{}
}

// customRetryPolicy defines which HTTP responses should trigger a retry
func customRetryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			// Retry on network errors
			return true, nil
		}

		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true, nil
		}
		return false, nil
	}
}

// retryLogger adapts logrus to retryablehttp.LeveledLogger so per-attempt
// chatter lands at debug level.
type retryLogger struct {
	entry *logrus.Entry
}

func (l retryLogger) fields(keysAndValues []interface{}) *logrus.Entry {
	e := l.entry
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		e = e.WithField(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1])
	}
	return e
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Error(msg)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Warn(msg)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Debug(msg)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Debug(msg)
}
