package repository

import (
	"context"

	"cartify/internal/domain"

	"github.com/shopspring/decimal"
)

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	Count(ctx context.Context) (int64, error)
	SumRevenue(ctx context.Context) (decimal.Decimal, error)
	Recent(ctx context.Context, limit int) ([]domain.Order, error)
}
