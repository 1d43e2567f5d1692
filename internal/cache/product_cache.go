// Package cache implements the product read-through cache and its
// invalidation hook, backed by github.com/redis/go-redis/v9.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/cimillas/flashsale/internal/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "product:"

const defaultTTL = 600 * time.Second

// ProductCache is the single concrete implementation of both
// app.CacheInvalidator (Invalidate) and app.ProductCache (Get/Set)
// behind a Redis client.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

func New(client *redis.Client, ttl time.Duration, logger *log.Logger) *ProductCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &ProductCache{client: client, ttl: ttl, logger: logger}
}

func key(productID string) string {
	return keyPrefix + productID
}

// Get satisfies app.ProductCache. A miss (including a Redis error,
// which this layer treats as a miss and logs) returns ok=false so the
// caller falls through to the store.
func (c *ProductCache) Get(ctx context.Context, productID string) (*domain.Product, bool) {
	raw, err := c.client.Get(ctx, key(productID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) && c.logger != nil {
			c.logger.Printf("product cache get failed product_id=%s err=%v", productID, err)
		}
		return nil, false
	}

	var p domain.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		if c.logger != nil {
			c.logger.Printf("product cache decode failed product_id=%s err=%v", productID, err)
		}
		return nil, false
	}
	return &p, true
}

// Set satisfies app.ProductCache. Failures are logged, not returned:
// a cache write is never load-bearing for correctness.
func (c *ProductCache) Set(ctx context.Context, product domain.Product) {
	raw, err := json.Marshal(product)
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("product cache encode failed product_id=%s err=%v", product.ID, err)
		}
		return
	}
	if err := c.client.Set(ctx, key(product.ID), raw, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.Printf("product cache set failed product_id=%s err=%v", product.ID, err)
	}
}

// Invalidate satisfies app.CacheInvalidator: deletes the cache entry
// for productID. Called on every stock mutation. Missing keys are not
// an error.
func (c *ProductCache) Invalidate(ctx context.Context, productID string) error {
	if err := c.client.Del(ctx, key(productID)).Err(); err != nil {
		return err
	}
	return nil
}
