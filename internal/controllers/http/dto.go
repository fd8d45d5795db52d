package http

import (
	"cartify/internal/domain"

	"github.com/shopspring/decimal"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	Token string      `json:"token,omitempty"`
}

func newUserResponse(u *domain.User, token string) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Token: token}
}

type ProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Category    domain.Category `json:"category"`
	Stock       int             `json:"stock"`
	SKU         string          `json:"sku"`
	Featured    bool            `json:"featured"`
	Rating      *float64        `json:"rating"`
	NumReviews  int             `json:"numReviews"`
}

func (r ProductRequest) toProduct() *domain.Product {
	rating := domain.DefaultProductRating
	if r.Rating != nil {
		rating = *r.Rating
	}
	return &domain.Product{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Image:       r.Image,
		Category:    r.Category,
		Stock:       r.Stock,
		SKU:         r.SKU,
		Featured:    r.Featured,
		Rating:      rating,
		NumReviews:  r.NumReviews,
	}
}

type ProductListQuery struct {
	Category string `form:"category"`
	Search   string `form:"search"`
	Sort     string `form:"sort"`
	Featured string `form:"featured"`
}

func (q ProductListQuery) toQuery() domain.ProductQuery {
	return domain.ProductQuery{
		Category: domain.Category(q.Category),
		Search:   q.Search,
		Sort:     domain.ProductSort(q.Sort),
		Featured: q.Featured == "true",
	}
}

type OrderItemRequest struct {
	Product  string          `json:"product"`
	Name     string          `json:"name"`
	Image    string          `json:"image"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type CreateOrderRequest struct {
	Items                 []OrderItemRequest     `json:"items"`
	ShippingAddress       domain.ShippingAddress `json:"shippingAddress"`
	TotalPrice            decimal.Decimal        `json:"totalPrice"`
	StripePaymentIntentID string                 `json:"stripePaymentIntentId"`
}

func (r CreateOrderRequest) toOrder() *domain.Order {
	items := make([]domain.OrderLine, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, domain.OrderLine{
			ProductID: it.Product,
			Name:      it.Name,
			Image:     it.Image,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	return &domain.Order{
		Items:                 items,
		ShippingAddress:       r.ShippingAddress,
		TotalPrice:            r.TotalPrice,
		StripePaymentIntentID: r.StripePaymentIntentID,
	}
}

type UpdateOrderStatusRequest struct {
	OrderStatus domain.OrderStatus `json:"orderStatus"`
}

type CreateIntentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type CreateIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type PaymentConfigResponse struct {
	PublishableKey string `json:"publishableKey"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}
