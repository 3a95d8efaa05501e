// Package cache provides a TTL read-through cache with load coalescing.
package cache

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const shardCount = 16

// DefaultLoadTimeout bounds a shared load, which runs detached from the
// callers' contexts.
const DefaultLoadTimeout = 30 * time.Second

type entry[V any] struct {
	value     V
	fetchedAt time.Time
}

type shard[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
}

// Cache holds values for a fixed TTL. Concurrent misses for the same key
// share one load.
type Cache[V any] struct {
	ttl         time.Duration
	loadTimeout time.Duration
	now         func() time.Time
	shards      [shardCount]*shard[V]
	group       singleflight.Group
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	now         func() time.Time
	loadTimeout time.Duration
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLoadTimeout bounds each shared load.
func WithLoadTimeout(d time.Duration) Option {
	return func(o *options) { o.loadTimeout = d }
}

// New creates a cache whose entries stay fresh for ttl.
func New[V any](ttl time.Duration, opts ...Option) *Cache[V] {
	o := options{now: time.Now, loadTimeout: DefaultLoadTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	c := &Cache[V]{ttl: ttl, loadTimeout: o.loadTimeout, now: o.now}
	for i := range c.shards {
		c.shards[i] = &shard[V]{entries: make(map[string]entry[V])}
	}
	return c
}

func (c *Cache[V]) shardFor(key string) *shard[V] {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[h.Sum32()%shardCount]
}

// Get returns a fresh value for key. Stale entries are dropped.
func (c *Cache[V]) Get(key string) (V, bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().Sub(e.fetchedAt) >= c.ttl {
		delete(s.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, fetched now.
func (c *Cache[V]) Set(key string, value V) {
	s := c.shardFor(key)
	s.mu.Lock()
	s.entries[key] = entry[V]{value: value, fetchedAt: c.now()}
	s.mu.Unlock()
}

// GetOrLoad returns the cached value or calls load and caches its result.
// hit reports whether the value came from the cache. Failed loads are not
// cached. The shared load does not inherit the first caller's cancellation;
// each caller returns as soon as its own ctx is done.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (value V, hit bool, err error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()
		v, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		return res.Val.(V), false, nil
	}
}
