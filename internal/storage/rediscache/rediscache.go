// Package rediscache provides Redis read-through caching for catalog reads.
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xenking/katalog-toko/internal/domain/category"
)

// New creates a Redis client and verifies connectivity.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}

	return client, nil
}

const categoriesKey = "katalog:categories:v1"

var (
	_ category.Repository = (*Categories)(nil)
	_ category.Writer     = (*Categories)(nil)
)

// CategoryStore is the backing store wrapped by Categories.
type CategoryStore interface {
	category.Repository
	category.Writer
}

// Categories caches the category listing in Redis. Cache failures are
// logged and fall through to the backing store.
type Categories struct {
	next   CategoryStore
	client *redis.Client
	ttl    time.Duration
}

// NewCategories wraps next with a cache entry living for ttl.
func NewCategories(next CategoryStore, client *redis.Client, ttl time.Duration) *Categories {
	return &Categories{next: next, client: client, ttl: ttl}
}

type cachedCategory struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// List returns the cached listing or loads and caches it.
func (c *Categories) List(ctx context.Context) ([]category.Category, error) {
	lg := zctx.From(ctx)

	payload, err := c.client.Get(ctx, categoriesKey).Bytes()
	switch {
	case err == nil:
		var cached []cachedCategory
		if err := json.Unmarshal(payload, &cached); err == nil {
			out := make([]category.Category, len(cached))
			for i, cc := range cached {
				out[i] = category.Category(cc)
			}
			return out, nil
		}
		lg.Warn("Discarding malformed category cache entry")
	case errors.Is(err, redis.Nil):
	default:
		lg.Warn("Category cache read failed", zap.Error(err))
	}

	list, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}

	cached := make([]cachedCategory, len(list))
	for i, cat := range list {
		cached[i] = cachedCategory(cat)
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return nil, errors.Wrap(err, "encode categories")
	}
	if err := c.client.Set(ctx, categoriesKey, raw, c.ttl).Err(); err != nil {
		lg.Warn("Category cache write failed", zap.Error(err))
	}
	return list, nil
}

// Upsert writes through to the backing store and drops the cached listing.
func (c *Categories) Upsert(ctx context.Context, cat category.Category) (*category.Category, error) {
	out, err := c.next.Upsert(ctx, cat)
	if err != nil {
		return nil, err
	}
	if err := c.Invalidate(ctx); err != nil {
		zctx.From(ctx).Warn("Category cache invalidation failed", zap.Error(err))
	}
	return out, nil
}

// Invalidate removes the cached listing.
func (c *Categories) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, categoriesKey).Err()
}
