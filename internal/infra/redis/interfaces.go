package redis

import (
	"context"

	"cartify/internal/domain"
)

type CatalogCacheInterface interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, bool, error)
	SetProduct(ctx context.Context, p *domain.Product) error
	GetList(ctx context.Context, q domain.ProductQuery) ([]domain.Product, bool, error)
	SetList(ctx context.Context, q domain.ProductQuery, products []domain.Product) error
	Invalidate(ctx context.Context, id string) error
}

type IdempotencyStoreInterface interface {
	Seen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

var (
	_ CatalogCacheInterface     = (*CatalogCache)(nil)
	_ IdempotencyStoreInterface = (*IdempotencyStore)(nil)
)
