// Package service holds the mutation dispatchers and the cached single-entity reads.
// Every write is confirmed by the remote API, then the dependent cached reads are
// invalidated, then the confirmed record is returned.
package service

import (
	"context"

	"postsmanager/internal/cache"
	"postsmanager/internal/observability"
)

var logger = observability.NewStructuredLogger()

// invalidate runs after a confirmed write. A failed eviction is logged, not
// returned: the write itself succeeded.
func invalidate(ctx context.Context, service, method string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		logger.LogServiceError(ctx, service, method+".invalidate", err, nil)
	}
}

// newCache lets services run without a cache in tests.
func newCache(c *cache.Cache) *cache.Cache {
	if c == nil {
		return cache.New(nil)
	}
	return c
}
