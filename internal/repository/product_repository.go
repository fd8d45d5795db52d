package repository

import (
	"context"
	"errors"

	"cartify/internal/domain"
)

// ErrStockContention is returned when a stock decrement keeps losing its compare-and-set.
var ErrStockContention = errors.New("stock update contention")

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error)
	Save(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) (*domain.Product, error)
	// DecrementStock removes qty units (clamped at zero) and returns the stored
	// product together with the number of units actually removed.
	DecrementStock(ctx context.Context, id string, qty int) (*domain.Product, int, error)
	Count(ctx context.Context) (int64, error)
	CountLowStock(ctx context.Context, threshold int) (int64, error)
}
