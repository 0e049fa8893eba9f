package ml

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/mlb-predictor/internal/features"
	"github.com/yourusername/mlb-predictor/internal/team"
)

// BackendCached labels metrics for cache hits.
const BackendCached = "cached"

// CachedClassifier wraps a Classifier with distribution caching. Classifiers
// are deterministic for a fixed vector, so a hit is always the same answer the
// backend would give.
type CachedClassifier struct {
	inner   Classifier
	cache   *PredictionCache
	version string
	logger  *logrus.Logger
}

// NewCachedClassifier creates a new cached classifier. modelVersion is folded
// into every key so swapping models never serves stale entries.
func NewCachedClassifier(inner Classifier, modelVersion string, ttl time.Duration, maxSize int, logger *logrus.Logger) *CachedClassifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CachedClassifier{
		inner:   inner,
		cache:   NewPredictionCache(ttl, maxSize),
		version: modelVersion,
		logger:  logger,
	}
}

// PredictProbabilities retrieves a distribution with caching
func (c *CachedClassifier) PredictProbabilities(ctx context.Context, vec features.Vector) (Distribution, error) {
	key := VectorKey(c.version, vec)

	if dist, ok := c.cache.Get(key); ok {
		c.logger.WithField("cache_key", key.String()).Debug("Cache hit for prediction")
		MLPredictionsTotal.WithLabelValues(BackendCached, "true").Inc()
		return dist, nil
	}

	c.logger.WithField("cache_key", key.String()).Debug("Cache miss, calling classifier")
	dist, err := c.inner.PredictProbabilities(ctx, vec)
	if err != nil {
		return Distribution{}, err
	}

	c.cache.Set(key, dist)
	return dist, nil
}

// KnownClasses delegates to the wrapped classifier
func (c *CachedClassifier) KnownClasses() []team.ID {
	return c.inner.KnownClasses()
}

// NumFeatures delegates to the wrapped classifier
func (c *CachedClassifier) NumFeatures() int {
	return c.inner.NumFeatures()
}

// Version returns the model version used in cache keys
func (c *CachedClassifier) Version() string {
	return c.version
}

// ClearCache clears all cached predictions
func (c *CachedClassifier) ClearCache() {
	c.cache.Clear()
}

// GetCacheStats returns cache statistics
func (c *CachedClassifier) GetCacheStats() (hits, misses uint64, hitRatio float64) {
	return c.cache.Stats()
}
