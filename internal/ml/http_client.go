package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/mlb-predictor/internal/features"
	"github.com/yourusername/mlb-predictor/internal/team"
)

// BackendHTTP labels metrics for the remote classifier.
const BackendHTTP = "http"

// Doer sends HTTP requests. datasource.RateLimitedHTTPClient satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// ModelInfo describes the model served by a remote classifier.
type ModelInfo struct {
	Classes     []team.ID `json:"classes"`
	NumFeatures int       `json:"num_features"`
	Version     string    `json:"version"`
}

// PredictRequest is the body of POST /v1/predict_proba.
type PredictRequest struct {
	Features []float64 `json:"features"`
}

// PredictResponse is the reply to POST /v1/predict_proba.
type PredictResponse struct {
	Classes       []team.ID `json:"classes"`
	Probabilities []float64 `json:"probabilities"`
}

// HTTPClassifier calls a model server over JSON/HTTP.
type HTTPClassifier struct {
	client  Doer
	baseURL string
	apiKey  string
	info    ModelInfo
	logger  *logrus.Logger
}

// NewHTTPClassifier fetches the served model's metadata and returns a
// classifier bound to it.
func NewHTTPClassifier(ctx context.Context, client Doer, baseURL, apiKey string, logger *logrus.Logger) (*HTTPClassifier, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	c := &HTTPClassifier{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger,
	}

	var info ModelInfo
	if err := c.call(ctx, "model", http.MethodGet, "/v1/model", nil, &info); err != nil {
		return nil, err
	}
	if info.NumFeatures <= 0 || len(info.Classes) == 0 {
		return nil, fmt.Errorf("%w: model metadata has %d classes and %d features", ErrInvalidResponse, len(info.Classes), info.NumFeatures)
	}
	c.info = info

	logger.WithFields(logrus.Fields{
		"url":          c.baseURL,
		"version":      info.Version,
		"classes":      len(info.Classes),
		"num_features": info.NumFeatures,
	}).Info("Connected to remote classifier")

	return c, nil
}

// PredictProbabilities posts the vector and validates the returned distribution.
func (c *HTTPClassifier) PredictProbabilities(ctx context.Context, vec features.Vector) (Distribution, error) {
	start := time.Now()
	defer func() {
		MLPredictionLatency.WithLabelValues(BackendHTTP).Observe(time.Since(start).Seconds())
	}()

	if err := features.CheckArity(vec, c.info.NumFeatures); err != nil {
		return Distribution{}, err
	}

	var resp PredictResponse
	if err := c.call(ctx, "predict_proba", http.MethodPost, "/v1/predict_proba", PredictRequest{Features: vec}, &resp); err != nil {
		return Distribution{}, err
	}

	dist, err := NewDistribution(resp.Classes, resp.Probabilities)
	if err != nil {
		MLHTTPErrorsTotal.WithLabelValues("predict_proba", "invalid_distribution").Inc()
		return Distribution{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	MLPredictionsTotal.WithLabelValues(BackendHTTP, "false").Inc()
	return dist, nil
}

// KnownClasses returns the classes reported by the model server.
func (c *HTTPClassifier) KnownClasses() []team.ID {
	out := make([]team.ID, len(c.info.Classes))
	copy(out, c.info.Classes)
	return out
}

// NumFeatures returns the served model's arity.
func (c *HTTPClassifier) NumFeatures() int {
	return c.info.NumFeatures
}

// Version returns the served model's version.
func (c *HTTPClassifier) Version() string {
	return c.info.Version
}

// HealthCheck checks model server health
func (c *HTTPClassifier) HealthCheck(ctx context.Context) error {
	return c.call(ctx, "health", http.MethodGet, "/health", nil, nil)
}

func (c *HTTPClassifier) call(ctx context.Context, method, httpMethod, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, httpMethod, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		MLHTTPErrorsTotal.WithLabelValues(method, "network").Inc()
		return fmt.Errorf("%w: %v", ErrMLServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		MLHTTPErrorsTotal.WithLabelValues(method, "http_error").Inc()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: status %d: %s", ErrMLServiceUnavailable, resp.StatusCode, strings.TrimSpace(string(snippet)))
		}
		return fmt.Errorf("%w: status %d: %s", ErrInvalidResponse, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		MLHTTPErrorsTotal.WithLabelValues(method, "decode").Inc()
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
