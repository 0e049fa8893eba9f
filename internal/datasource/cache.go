package datasource

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const sharedFetchTimeout = 30 * time.Second

// StatsCache is a TTL cache for external lookups. Concurrent misses on the
// same key share one fetch.
type StatsCache struct {
	cache *cache.Cache
	ttl   time.Duration
	group singleflight.Group

	mu     sync.Mutex
	hits   uint64
	misses uint64
}

// NewStatsCache creates a cache with a fixed expiry per entry
func NewStatsCache(ttl time.Duration) *StatsCache {
	return &StatsCache{
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// GetOrFetch returns the cached value for key or runs fetch and caches its
// result. Errors are not cached. A shared fetch runs detached from the
// caller's cancellation, bounded by sharedFetchTimeout, so one caller giving
// up does not fail the others waiting on the same key.
func (c *StatsCache) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if v, ok := c.cache.Get(key); ok {
		c.record(true)
		return v, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		c.record(false)
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()

		v, err := fetch(fetchCtx)
		if err == nil {
			c.cache.Set(key, v, c.ttl)
		}
		return v, err
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *StatsCache) record(hit bool) {
	c.mu.Lock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()

	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	statsCacheLookups.WithLabelValues(outcome).Inc()
}

// Invalidate drops one key
func (c *StatsCache) Invalidate(key string) {
	c.cache.Delete(key)
}

// Flush drops everything
func (c *StatsCache) Flush() {
	c.cache.Flush()
}

// Stats returns hit and miss counts
func (c *StatsCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func cacheKey(parts ...interface{}) string {
	strs := make([]string, len(parts))
	for i, p := range parts {
		strs[i] = fmt.Sprint(p)
	}
	return strings.Join(strs, ":")
}
