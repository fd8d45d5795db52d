package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cartify/internal/domain"
	"cartify/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxStockAttempts = 8

type productRepo struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) repository.ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if isDuplicate(err) {
			return domain.ErrDuplicateSKU
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return &p, nil
}

var productOrder = map[domain.ProductSort]string{
	domain.SortNewest:    "created_at DESC",
	domain.SortPriceAsc:  "price ASC",
	domain.SortPriceDesc: "price DESC",
	domain.SortRating:    "rating DESC",
	domain.SortName:      "name ASC",
}

func (r *productRepo) List(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error) {
	q = q.Normalize()
	tx := r.db.WithContext(ctx).Model(&domain.Product{})
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.Search != "" {
		tx = tx.Where("LOWER(name) LIKE ? ESCAPE '!'", "%"+escapeLike(strings.ToLower(q.Search))+"%")
	}
	if q.Featured {
		tx = tx.Where("featured = ?", true)
	}

	out := []domain.Product{}
	if err := tx.Order(productOrder[q.Sort]).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

func (r *productRepo) Save(ctx context.Context, p *domain.Product) error {
	res := r.db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", p.ID).
		Select("*").Omit("id", "created_at").Updates(p)
	if res.Error != nil {
		if isDuplicate(res.Error) {
			return domain.ErrDuplicateSKU
		}
		return fmt.Errorf("save product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id string) (*domain.Product, error) {
	var deleted *domain.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Product
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrProductNotFound
			}
			return err
		}
		if err := tx.Delete(&domain.Product{}, "id = ?", id).Error; err != nil {
			return err
		}
		deleted = &p
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("delete product: %w", err)
	}
	return deleted, nil
}

// DecrementStock is an optimistic read-compare-and-set loop, so concurrent
// checkouts for the same product never lose each other's decrement.
func (r *productRepo) DecrementStock(ctx context.Context, id string, qty int) (*domain.Product, int, error) {
	for attempt := 0; attempt < maxStockAttempts; attempt++ {
		p, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, 0, err
		}

		next := domain.DecrementStock(p.Stock, qty)
		if next == p.Stock {
			return p, 0, nil
		}

		now := time.Now()
		res := r.db.WithContext(ctx).Model(&domain.Product{}).
			Where("id = ? AND stock = ?", id, p.Stock).
			Updates(map[string]any{"stock": next, "updated_at": now})
		if res.Error != nil {
			return nil, 0, fmt.Errorf("decrement stock: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			delta := p.Stock - next
			p.Stock = next
			p.UpdatedAt = now
			return p, delta, nil
		}
	}
	return nil, 0, repository.ErrStockContention
}

func (r *productRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&domain.Product{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *productRepo) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&domain.Product{}).Where("stock <= ?", threshold).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count low stock: %w", err)
	}
	return n, nil
}
