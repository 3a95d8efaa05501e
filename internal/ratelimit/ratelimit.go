// Package ratelimit implements a fixed-window request counter keyed by client.
package ratelimit

import (
	"hash/fnv"
	"sync"
	"time"
)

const (
	shardCount = 32
	// A shard holding more records than this drops expired ones on the next Allow.
	sweepThreshold = 1024
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the time left in the window, rounded up to whole seconds.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	left := d.ResetAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return ((left + time.Second - 1) / time.Second) * time.Second
}

type record struct {
	count   int
	resetAt time.Time
}

type shard struct {
	mu      sync.Mutex
	records map[string]*record
}

// Limiter counts requests per key in fixed windows. It is safe for
// concurrent use. Each gateway owns its own Limiter, so counters never mix
// between namespaces.
type Limiter struct {
	limit  int
	window time.Duration
	now    func() time.Time
	shards [shardCount]*shard
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a limiter allowing limit requests per window.
func New(limit int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{limit: limit, window: window, now: time.Now}
	for i := range l.shards {
		l.shards[i] = &shard{records: make(map[string]*record)}
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) Limit() int { return l.limit }

func (l *Limiter) Window() time.Duration { return l.window }

// Now reads the limiter's clock.
func (l *Limiter) Now() time.Time { return l.now() }

func (l *Limiter) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return l.shards[h.Sum32()%shardCount]
}

// Allow counts one request for key. The count is incremented before the
// check, so the request that crosses the limit is itself rejected.
func (l *Limiter) Allow(key string) Decision {
	now := l.now()
	s := l.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) > sweepThreshold {
		s.sweep(now)
	}

	r, ok := s.records[key]
	if !ok || now.After(r.resetAt) {
		r = &record{resetAt: now.Add(l.window)}
		s.records[key] = r
	}
	r.count++

	remaining := l.limit - r.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   r.count <= l.limit,
		Remaining: remaining,
		ResetAt:   r.resetAt,
	}
}

// sweep must be called with s.mu held.
func (s *shard) sweep(now time.Time) int {
	removed := 0
	for k, r := range s.records {
		if now.After(r.resetAt) {
			delete(s.records, k)
			removed++
		}
	}
	return removed
}
