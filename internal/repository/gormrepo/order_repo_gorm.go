package gormrepo

import (
	"context"
	"errors"
	"fmt"

	"cartify/internal/domain"
	"cartify/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepo{db: db}
}

func withUser(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email")
}

// Create stores the order and its lines in one transaction. A payment
// reference backs at most one order.
func (r *orderRepo) Create(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Omit("User").Create(order).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%w: payment already used for another order", domain.ErrPaymentFailed)
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).Preload("Items").Preload("User", withUser).First(&o, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return &o, nil
}

func (r *orderRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	out := []domain.Order{}
	err := r.db.WithContext(ctx).Preload("Items").Preload("User", withUser).
		Order("created_at DESC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	out := []domain.Order{}
	err := r.db.WithContext(ctx).Preload("Items").Where("user_id = ?", userID).
		Order("created_at DESC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	return out, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", id).
		Update("order_status", status).Error
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *orderRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&domain.Order{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (r *orderRepo) SumRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("payment_status = ?", domain.PaymentPaid).
		Select("COALESCE(SUM(total_price), 0)").Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum revenue: %w", err)
	}
	return total, nil
}

func (r *orderRepo) Recent(ctx context.Context, limit int) ([]domain.Order, error) {
	out := []domain.Order{}
	err := r.db.WithContext(ctx).Preload("Items").Preload("User", withUser).
		Order("created_at DESC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	return out, nil
}

var _ repository.OrderRepository = (*orderRepo)(nil)
