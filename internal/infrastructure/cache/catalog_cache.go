// Package cache provides a Redis read-through cache for the reference
// catalogs the price resolver reads on every order write.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"farmops/internal/core/id"
	"farmops/internal/domain/catalogs/product_type"
	"farmops/internal/domain/catalogs/slaughter"
	"farmops/pkg/logger"
)

// DefaultTTL bounds staleness when an invalidation is missed.
const DefaultTTL = 10 * time.Minute

const keyPrefix = "farmops:catalog:"

// nullMarker caches a confirmed absence.
const nullMarker = "null"

func productTypeKey(name string) string {
	return keyPrefix + "product_type:" + product_type.NormalizeName(name)
}

func slaughterKey(slaughterID id.ID) string {
	return keyPrefix + "slaughter:" + slaughterID.String()
}

// CatalogCache caches catalog lookups in Redis. Redis errors are logged and
// the lookup falls through to the wrapped repository.
type CatalogCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCatalogCache creates a cache. ttl <= 0 means DefaultTTL.
func NewCatalogCache(rdb *redis.Client, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CatalogCache{rdb: rdb, ttl: ttl}
}

// ProductTypes wraps a product type repository.
func (c *CatalogCache) ProductTypes(inner product_type.Repository) product_type.Repository {
	return &productTypeRepo{cache: c, inner: inner}
}

// Slaughters wraps a slaughter repository.
func (c *CatalogCache) Slaughters(inner slaughter.Repository) slaughter.Repository {
	return &slaughterRepo{cache: c, inner: inner}
}

// InvalidateProductType drops the cached entry for name.
func (c *CatalogCache) InvalidateProductType(ctx context.Context, name string) error {
	return c.rdb.Del(ctx, productTypeKey(name)).Err()
}

// InvalidateSlaughter drops the cached entry for slaughterID.
func (c *CatalogCache) InvalidateSlaughter(ctx context.Context, slaughterID id.ID) error {
	return c.rdb.Del(ctx, slaughterKey(slaughterID)).Err()
}

// Flush drops every cached catalog entry.
func (c *CatalogCache) Flush(ctx context.Context) (int64, error) {
	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, keyPrefix+"*", 200).Result()
		if err != nil {
			return removed, fmt.Errorf("scan catalog keys: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("delete catalog keys: %w", err)
			}
			removed += n
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

// lookup reads key into dst. It reports whether the key was present and
// whether it held a cached absence.
func (c *CatalogCache) lookup(ctx context.Context, key string, dst any) (hit, absent bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn(ctx, "catalog cache read failed", "key", key, "error", err)
		}
		return false, false
	}
	if string(raw) == nullMarker {
		return true, true
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logger.Warn(ctx, "catalog cache entry is corrupt", "key", key, "error", err)
		return false, false
	}
	return true, false
}

func (c *CatalogCache) store(ctx context.Context, key string, v any) {
	payload := []byte(nullMarker)
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return
		}
		payload = b
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		logger.Warn(ctx, "catalog cache write failed", "key", key, "error", err)
	}
}

type productTypeRepo struct {
	cache *CatalogCache
	inner product_type.Repository
}

func (r *productTypeRepo) GetByName(ctx context.Context, name string) (*product_type.ProductType, error) {
	key := productTypeKey(name)

	var pt product_type.ProductType
	if hit, absent := r.cache.lookup(ctx, key, &pt); hit {
		if absent {
			return nil, nil
		}
		return &pt, nil
	}

	found, err := r.inner.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if found == nil {
		r.cache.store(ctx, key, nil)
	} else {
		r.cache.store(ctx, key, found)
	}
	return found, nil
}

type slaughterRepo struct {
	cache *CatalogCache
	inner slaughter.Repository
}

func (r *slaughterRepo) GetByID(ctx context.Context, slaughterID id.ID) (*slaughter.Slaughtered, error) {
	key := slaughterKey(slaughterID)

	var s slaughter.Slaughtered
	if hit, absent := r.cache.lookup(ctx, key, &s); hit {
		if absent {
			return nil, nil
		}
		return &s, nil
	}

	found, err := r.inner.GetByID(ctx, slaughterID)
	if err != nil {
		return nil, err
	}
	if found == nil {
		r.cache.store(ctx, key, nil)
	} else {
		r.cache.store(ctx, key, found)
	}
	return found, nil
}
