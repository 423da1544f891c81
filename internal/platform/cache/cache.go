package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL applies when a cache is created with a non-positive ttl.
const DefaultTTL = 30 * time.Second

// TTLCache is one cache instance: a namespace with a fixed TTL over a shared Store.
// Payloads are stored as JSON and replaced wholesale on refresh.
type TTLCache struct {
	store     Store
	ttl       time.Duration
	namespace string
	group     *singleflight.Group
}

// Option configures a TTLCache.
type Option func(*TTLCache)

// WithCoalescing makes concurrent misses on one key share a single load.
func WithCoalescing(enabled bool) Option {
	return func(c *TTLCache) {
		if enabled {
			c.group = &singleflight.Group{}
		} else {
			c.group = nil
		}
	}
}

// New creates a cache. Coalescing is on unless disabled with WithCoalescing(false).
func New(store Store, namespace string, ttl time.Duration, opts ...Option) *TTLCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &TTLCache{
		store:     store,
		ttl:       ttl,
		namespace: namespace,
		group:     &singleflight.Group{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// TTL returns the entry lifetime of this cache.
func (c *TTLCache) TTL() time.Duration { return c.ttl }

// Key builds the namespaced store key from its parts.
func (c *TTLCache) Key(parts ...string) string {
	escaped := make([]string, 0, len(parts)+1)
	escaped = append(escaped, c.namespace)
	for _, p := range parts {
		escaped = append(escaped, safe(p))
	}
	return strings.Join(escaped, ":")
}

// Fetch returns the cached value for key or runs load and stores its result.
// hit reports whether the value came from the store. Errors are never cached.
//
// load runs on a context detached from the caller's cancellation, so an abandoned
// request still completes and fills the cache for the callers sharing it.
func Fetch[T any](ctx context.Context, c *TTLCache, key string, load func(ctx context.Context) (T, error)) (val T, hit bool, err error) {
	if v, ok := get[T](ctx, c, key); ok {
		return v, true, nil
	}

	detached := context.WithoutCancel(ctx)
	run := func() (any, error) {
		v, err := load(detached)
		if err != nil {
			return nil, err
		}
		c.set(detached, key, v)
		return v, nil
	}

	var v any
	if c.group == nil {
		v, err = run()
	} else {
		v, err, _ = c.group.Do(key, run)
	}
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v.(T), false, nil
}

func get[T any](ctx context.Context, c *TTLCache, key string) (T, bool) {
	var zero T
	b, ok, err := c.store.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "cache get failed", "key", key, "error", err)
		return zero, false
	}
	if !ok || len(b) == 0 {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		// Delete corrupted cache entry
		_ = c.store.Delete(ctx, key)
		return zero, false
	}
	return v, true
}

// set stores v best effort; a failing store never fails the request.
func (c *TTLCache) set(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.WarnContext(ctx, "cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, b, c.ttl); err != nil {
		slog.WarnContext(ctx, "cache set failed", "key", key, "error", err)
	}
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}

// String implements fmt.Stringer for logs.
func (c *TTLCache) String() string {
	return fmt.Sprintf("cache(%s, ttl=%s)", c.namespace, c.ttl)
}
