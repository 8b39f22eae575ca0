package availability

import (
	"context"
	"fmt"
	"time"

	"tourbase/pkg/cache"
	"tourbase/pkg/logger"
)

// Cache is the short-TTL read cache in front of the resolver. It is never
// a source of truth: every hold or booking mutation for a (product, date)
// pair must invalidate the entry, and any cache failure degrades to a
// store read. Invalidation failures are logged, never propagated.
type Cache struct {
	backend cache.Service
	ttl     time.Duration
	log     *logger.Logger
}

// NewCache creates an availability cache. backend may be nil, which
// disables caching entirely.
func NewCache(backend cache.Service, ttl time.Duration, log *logger.Logger) *Cache {
	if backend == nil {
		return nil
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &Cache{
		backend: backend,
		ttl:     ttl,
		log:     log,
	}
}

func cacheKey(productID int64, date string) string {
	return fmt.Sprintf("availability:%d:%s", productID, date)
}

func (c *Cache) Get(ctx context.Context, productID int64, date string) ([]Slot, bool) {
	var slots []Slot
	if err := c.backend.Get(ctx, cacheKey(productID, date), &slots); err != nil {
		return nil, false
	}
	return slots, true
}

func (c *Cache) Put(ctx context.Context, productID int64, date string, slots []Slot) {
	if err := c.backend.Set(ctx, cacheKey(productID, date), slots, c.ttl); err != nil {
		c.log.LogCacheInvalidationFailure(ctx, productID, date, err)
	}
}

// Invalidate drops the cached slots for one (product, date) pair.
func (c *Cache) Invalidate(ctx context.Context, productID int64, date string) {
	if c == nil {
		return
	}
	if err := c.backend.Delete(ctx, cacheKey(productID, date)); err != nil {
		c.log.LogCacheInvalidationFailure(ctx, productID, date, err)
	}
}

// InvalidateProduct drops every cached day for a product. Used after
// schedule rule mutations, where the affected date range is open-ended.
func (c *Cache) InvalidateProduct(ctx context.Context, productID int64) {
	if c == nil {
		return
	}
	if err := c.backend.DeletePattern(ctx, fmt.Sprintf("availability:%d:*", productID)); err != nil {
		c.log.LogCacheInvalidationFailure(ctx, productID, "*", err)
	}
}
