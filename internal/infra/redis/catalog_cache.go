package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cartify/internal/domain"

	goredis "github.com/redis/go-redis/v9"
)

// CatalogCache is a cache-aside store for product reads. List entries are keyed
// by a generation counter so one INCR invalidates every cached query.
type CatalogCache struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewCatalogCache(client *goredis.Client, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		client: client,
		prefix: "catalog:",
		ttl:    ttl,
	}
}

func (c *CatalogCache) productKey(id string) string {
	return c.prefix + "product:" + id
}

func (c *CatalogCache) generationKey() string {
	return c.prefix + "list:gen"
}

func (c *CatalogCache) listKey(gen int64, q domain.ProductQuery) string {
	q = q.Normalize()
	return fmt.Sprintf("%slist:%d:%s|%s|%s|%t", c.prefix, gen, q.Category, q.Search, q.Sort, q.Featured)
}

func (c *CatalogCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *CatalogCache) get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal: %w", err)
	}
	return true, nil
}

func (c *CatalogCache) set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *CatalogCache) GetProduct(ctx context.Context, id string) (*domain.Product, bool, error) {
	var p domain.Product
	ok, err := c.get(ctx, c.productKey(id), &p)
	if !ok || err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

func (c *CatalogCache) SetProduct(ctx context.Context, p *domain.Product) error {
	return c.set(ctx, c.productKey(p.ID), p)
}

func (c *CatalogCache) GetList(ctx context.Context, q domain.ProductQuery) ([]domain.Product, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("cache generation: %w", err)
	}
	var out []domain.Product
	ok, err := c.get(ctx, c.listKey(gen, q), &out)
	if !ok || err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (c *CatalogCache) SetList(ctx context.Context, q domain.ProductQuery, products []domain.Product) error {
	gen, err := c.generation(ctx)
	if err != nil {
		return fmt.Errorf("cache generation: %w", err)
	}
	return c.set(ctx, c.listKey(gen, q), products)
}

// Invalidate drops the product entry and retires every cached list.
func (c *CatalogCache) Invalidate(ctx context.Context, id string) error {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, c.productKey(id))
	pipe.Incr(ctx, c.generationKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
