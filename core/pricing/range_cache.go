// Package pricing - Tier-aware cache for variant price ranges
// Ranges depend on the tier, so the tier is always part of the key.
package pricing

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"wholesale-pricing/core/types"
)

// CachePolicy defines range cache behavior
type CachePolicy struct {
	// TTL for entries
	TTL time.Duration

	// MaxEntries bounds the cache
	MaxEntries int
}

// DefaultCachePolicy returns the default policy
func DefaultCachePolicy() *CachePolicy {
	return &CachePolicy{
		TTL:        10 * time.Minute,
		MaxEntries: 4096,
	}
}

// RangeCache caches ResolveVariants output per product and tier.
// Concurrent misses for the same key share one resolution.
type RangeCache struct {
	resolver *Resolver
	entries  *expirable.LRU[string, PriceRange]
	group    singleflight.Group
}

// NewRangeCache creates a range cache in front of a resolver
func NewRangeCache(resolver *Resolver, policy *CachePolicy) *RangeCache {
	if policy == nil {
		policy = DefaultCachePolicy()
	}
	return &RangeCache{
		resolver: resolver,
		entries:  expirable.NewLRU[string, PriceRange](policy.MaxEntries, nil, policy.TTL),
	}
}

// Get returns the cached range or resolves and stores it
func (c *RangeCache) Get(ctx context.Context, product types.Product, tier *types.Tier) (PriceRange, error) {
	key := RangeKey(product.SKU, tier)
	if cached, ok := c.entries.Get(key); ok {
		return cached, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		pr, err := c.resolver.ResolveVariants(ctx, product, tier, 1)
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, pr)
		return pr, nil
	})
	if err != nil {
		return PriceRange{}, err
	}
	return v.(PriceRange), nil
}

// Invalidate drops every cached range for a product
func (c *RangeCache) Invalidate(sku string) {
	prefix := sku + "|"
	for _, key := range c.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.entries.Remove(key)
		}
	}
}

// Purge drops everything
func (c *RangeCache) Purge() {
	c.entries.Purge()
}

// Len returns the number of cached ranges
func (c *RangeCache) Len() int {
	return c.entries.Len()
}
