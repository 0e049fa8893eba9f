package ml

import (
	"math"
	"strconv"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/segmentio/fasthash/jody"

	"github.com/yourusername/mlb-predictor/internal/features"
)

// CacheKey identifies a prediction by model version and feature vector.
type CacheKey uint64

// VectorKey hashes a model version and the exact bit pattern of each feature.
func VectorKey(modelVersion string, vec features.Vector) CacheKey {
	h := jody.HashString64(modelVersion)
	h = jody.AddUint64(h, uint64(len(vec)))
	for _, x := range vec {
		h = jody.AddUint64(h, math.Float64bits(x))
	}
	return CacheKey(h)
}

// String returns the cache map key
func (k CacheKey) String() string {
	return strconv.FormatUint(uint64(k), 16)
}

// PredictionCache provides in-memory caching for classifier distributions
type PredictionCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	maxSize   int
	mu        sync.Mutex
	hitCount  uint64
	missCount uint64
}

// NewPredictionCache creates a new prediction cache
func NewPredictionCache(ttl time.Duration, maxSize int) *PredictionCache {
	return &PredictionCache{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a cached distribution
func (pc *PredictionCache) Get(key CacheKey) (Distribution, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if result, found := pc.cache.Get(key.String()); found {
		if dist, ok := result.(Distribution); ok {
			pc.hitCount++
			pc.updateMetrics()
			return dist, true
		}
	}

	pc.missCount++
	pc.updateMetrics()
	return Distribution{}, false
}

// Set stores a distribution. When the cache is full, expired entries are
// purged first and the write is dropped if there is still no room.
func (pc *PredictionCache) Set(key CacheKey, dist Distribution) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.maxSize > 0 && pc.cache.ItemCount() >= pc.maxSize {
		pc.cache.DeleteExpired()
		if pc.cache.ItemCount() >= pc.maxSize {
			return
		}
	}

	pc.cache.Set(key.String(), dist, pc.ttl)
}

// Clear flushes the entire cache
func (pc *PredictionCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.cache.Flush()
	pc.hitCount = 0
	pc.missCount = 0
	pc.updateMetrics()
}

// Stats returns cache statistics
func (pc *PredictionCache) Stats() (hits, misses uint64, ratio float64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.statsLocked()
}

func (pc *PredictionCache) statsLocked() (hits, misses uint64, ratio float64) {
	hits = pc.hitCount
	misses = pc.missCount
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// updateMetrics updates Prometheus metrics; callers hold mu
func (pc *PredictionCache) updateMetrics() {
	_, _, ratio := pc.statsLocked()
	MLCacheHitRatio.Set(ratio)
}

// ItemCount returns the number of items in cache
func (pc *PredictionCache) ItemCount() int {
	return pc.cache.ItemCount()
}
