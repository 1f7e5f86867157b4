// Package ratecache caches slow-changing GitHub lookups and tracks the rate
// limit headroom observed on API responses. Tools consult the cache for
// metadata that is requested repeatedly within a session, such as discussion
// category lists, so a chatty MCP host does not burn through the API quota.
package ratecache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/go-github/v79/github"
	"github.com/muesli/cache2go"
)

const defaultTTL = 5 * time.Minute

// Cache is a concurrency-safe TTL cache keyed by strings. Values of the
// wrong type stored under a reused cache name surface as a fetch error, not
// a panic.
type Cache[V any] struct {
	table *cache2go.CacheTable
	ttl   time.Duration
	mu    sync.Mutex
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithTTL sets how long entries stay valid.
func WithTTL[V any](ttl time.Duration) Option[V] {
	return func(c *Cache[V]) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// New returns a cache backed by the named cache2go table. Callers that need
// isolation must use distinct names; the same name shares one table.
func New[V any](name string, opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		table: cache2go.Cache(name),
		ttl:   defaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrFetch returns the cached value for key, or runs fetch and caches the
// result. Concurrent callers serialize so a cold key is fetched once.
func (c *Cache[V]) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	if item, err := c.table.Value(key); err == nil {
		value, ok := item.Data().(V)
		if !ok {
			return zero, fmt.Errorf("cache entry for %q has unexpected type %T", key, item.Data())
		}
		return value, nil
	}

	value, err := fetch(ctx)
	if err != nil {
		return zero, err
	}
	c.table.Add(key, c.ttl, value)
	return value, nil
}

// Invalidate drops the entry for key if present.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Delete errors only when the key is absent.
	_, _ = c.table.Delete(key)
}

// RateSnapshot is the last rate limit state seen on an API response.
type RateSnapshot struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// Tracker records rate limit headers from REST responses. It is safe for
// concurrent use by tool handlers.
type Tracker struct {
	mu   sync.RWMutex
	last RateSnapshot
	seen bool
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Record captures the rate information from resp. Nil trackers, nil
// responses, and responses without rate headers are ignored.
func (t *Tracker) Record(resp *github.Response) {
	if t == nil || resp == nil || resp.Rate.Limit == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = RateSnapshot{
		Limit:     resp.Rate.Limit,
		Remaining: resp.Rate.Remaining,
		Reset:     resp.Rate.Reset.Time,
	}
	t.seen = true
}

// Snapshot returns the most recent rate state and whether one was recorded.
func (t *Tracker) Snapshot() (RateSnapshot, bool) {
	if t == nil {
		return RateSnapshot{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last, t.seen
}

// Low reports whether remaining quota has dropped below threshold. Used to
// emit a warning log before the API starts rejecting calls.
func (t *Tracker) Low(threshold int) bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.seen && t.last.Remaining < threshold
}
