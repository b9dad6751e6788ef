package cache

import (
	"context"
	"sync"
	"time"

	"postsmanager/internal/observability"
)

// Cache is the cached-read layer shared by every page session. It wraps a Store with
// per-scope and per-key epochs: a read that started before an invalidation never
// writes its (possibly stale) result back into the store.
type Cache struct {
	store Store

	// writeMu orders write-backs against invalidations. Write-backs hold it shared
	// across the epoch check and the store write; invalidations hold it exclusively
	// across the epoch bump and the store delete.
	writeMu sync.RWMutex

	mu          sync.Mutex
	scopeEpochs map[string]uint64
	keyEpochs   map[string]uint64
}

// New wraps store. A nil store disables caching; reads always go to the network.
func New(store Store) *Cache {
	return &Cache{
		store:       store,
		scopeEpochs: make(map[string]uint64),
		keyEpochs:   make(map[string]uint64),
	}
}

// Backend names the underlying store.
func (c *Cache) Backend() string {
	if c.store == nil {
		return "none"
	}
	return c.store.Name()
}

type epoch struct {
	scope uint64
	key   uint64
}

func (c *Cache) epochOf(key string) epoch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return epoch{scope: c.scopeEpochs[ScopeOf(key)], key: c.keyEpochs[key]}
}

// Aside tries the store first; on a miss it calls fetch (which must populate dest),
// then stores dest with ttl unless the key was invalidated while fetch ran.
// Store failures never fail the read.
func (c *Cache) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func(ctx context.Context) error) error {
	scope := ScopeOf(key)

	if c.store != nil {
		cctx, span := observability.GetTraceLayer().TraceCacheOperation(ctx, c.store.Name(), "get", key)
		found, err := c.store.Get(cctx, key, dest)
		observability.EndSpan(span, err)
		if err == nil && found {
			observability.CacheLookups.WithLabelValues(scope, "hit").Inc()
			return nil
		}
	}
	observability.CacheLookups.WithLabelValues(scope, "miss").Inc()

	before := c.epochOf(key)
	if err := fetch(ctx); err != nil {
		return err
	}

	if c.store == nil {
		return nil
	}
	c.writeMu.RLock()
	defer c.writeMu.RUnlock()
	if c.epochOf(key) != before {
		return nil
	}
	_ = c.store.Set(ctx, key, dest, ttl)
	return nil
}

// InvalidateScope evicts every cached read in scope (e.g. all posts reads).
func (c *Cache) InvalidateScope(ctx context.Context, scope string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	c.scopeEpochs[scope]++
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	cctx, span := observability.GetTraceLayer().TraceCacheOperation(ctx, c.store.Name(), "invalidate_prefix", ScopePrefix(scope))
	n, err := c.store.InvalidatePrefix(cctx, ScopePrefix(scope))
	observability.EndSpan(span, err)
	observability.CacheInvalidations.WithLabelValues(scope).Add(float64(n))
	return err
}

// InvalidateKey evicts a single cached read.
func (c *Cache) InvalidateKey(ctx context.Context, key string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	c.keyEpochs[key]++
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	cctx, span := observability.GetTraceLayer().TraceCacheOperation(ctx, c.store.Name(), "invalidate", key)
	err := c.store.Invalidate(cctx, key)
	observability.EndSpan(span, err)
	observability.CacheInvalidations.WithLabelValues(ScopeOf(key)).Inc()
	return err
}

// InvalidatePosts evicts list, search and tag reads after any post mutation.
func (c *Cache) InvalidatePosts(ctx context.Context) error {
	return c.InvalidateScope(ctx, ScopePosts)
}

// InvalidateComments evicts the comments read of one post after a comment mutation.
func (c *Cache) InvalidateComments(ctx context.Context, postID uint) error {
	return c.InvalidateKey(ctx, CommentsKey(postID))
}
