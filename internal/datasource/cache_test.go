package datasource

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsCacheGetOrFetch(t *testing.T) {
	c := NewStatsCache(time.Hour)
	calls := 0
	fetch := func(context.Context) (interface{}, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrFetch(context.Background(), "k", fetch)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, 1, calls)

	hits, misses := c.Stats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(1), misses)

	c.Invalidate("k")
	_, err := c.GetOrFetch(context.Background(), "k", fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestStatsCacheErrorsNotCached(t *testing.T) {
	c := NewStatsCache(time.Hour)
	calls := 0
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		_, err := c.GetOrFetch(context.Background(), "k", func(context.Context) (interface{}, error) {
			calls++
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, 2, calls)
}

func TestStatsCacheExpiry(t *testing.T) {
	c := NewStatsCache(50 * time.Millisecond)
	var calls int32
	fetch := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return "v", nil
	}

	_, _ = c.GetOrFetch(context.Background(), "k", fetch)
	time.Sleep(80 * time.Millisecond)
	_, _ = c.GetOrFetch(context.Background(), "k", fetch)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestStatsCacheSharesInflightFetch(t *testing.T) {
	c := NewStatsCache(time.Hour)
	var calls int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]interface{}, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.GetOrFetch(context.Background(), "k", func(context.Context) (interface{}, error) {
				atomic.AddInt32(&calls, 1)
				<-release
				return "shared", nil
			})
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, "shared", r)
	}
}

func TestStatsCacheCancelledCallerDoesNotFailOthers(t *testing.T) {
	c := NewStatsCache(time.Hour)
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) (interface{}, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		select {
		case <-release:
			return "standings", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.GetOrFetch(ctxA, "k", fetch)
		errA <- err
	}()
	<-started

	type result struct {
		v   interface{}
		err error
	}
	resB := make(chan result, 1)
	go func() {
		v, err := c.GetOrFetch(context.Background(), "k", fetch)
		resB <- result{v, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)
	select {
	case r := <-resB:
		require.NoError(t, r.err)
		assert.Equal(t, "standings", r.v)
	case <-time.After(time.Second):
		t.Fatal("live caller did not return")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	v, err := c.GetOrFetch(context.Background(), "k", fetch)
	require.NoError(t, err)
	assert.Equal(t, "standings", v)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "recent:147:2025:10", cacheKey("recent", 147, 2025, 10))
}
