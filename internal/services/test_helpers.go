package services

import (
	"time"

	"cartify/internal/domain"
	"cartify/internal/infra/payment"

	"github.com/shopspring/decimal"
)

const (
	TestUserID       = "user-1"
	TestProductID    = "prod-1"
	TestIntentID     = "pi_test_1"
	TestProductName  = "Wireless Headphones"
	TestProductPrice = "89.99"
)

func CreateMockProduct(id string, stock int) *domain.Product {
	return &domain.Product{
		ID:          id,
		Name:        TestProductName,
		Description: "Noise cancelling",
		Price:       decimal.RequireFromString(TestProductPrice),
		Image:       domain.DefaultProductImage,
		Category:    domain.CategoryElectronics,
		Stock:       stock,
		SKU:         "SKU-" + id,
		Rating:      domain.DefaultProductRating,
		CreatedAt:   time.Now(),
	}
}

// CreateMockOrder builds a checkout for qty units of productID, totalled with tax.
func CreateMockOrder(productID string, qty int) *domain.Order {
	price := decimal.RequireFromString(TestProductPrice)
	subtotal := price.Mul(decimal.NewFromInt(int64(qty)))
	return &domain.Order{
		Items: []domain.OrderLine{{
			ProductID: productID,
			Name:      TestProductName,
			Image:     domain.DefaultProductImage,
			Price:     price,
			Quantity:  qty,
		}},
		ShippingAddress: domain.ShippingAddress{
			FullName:   "Ada Lovelace",
			Address:    "12 Analytical St",
			City:       "London",
			PostalCode: "N1 7AA",
			Country:    "UK",
		},
		TotalPrice:            domain.CheckoutTotal(subtotal),
		StripePaymentIntentID: TestIntentID,
	}
}

func CreateMockIntent(order *domain.Order, status payment.Status) *payment.Intent {
	return &payment.Intent{
		ID:          order.StripePaymentIntentID,
		Status:      status,
		AmountCents: domain.AmountInCents(order.TotalPrice),
		Currency:    "usd",
		UserID:      TestUserID,
	}
}
