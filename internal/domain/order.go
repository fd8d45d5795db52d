package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// TaxRate is applied to the cart subtotal at checkout. Shipping is free.
var TaxRate = decimal.NewFromFloat(0.10)

// CheckoutTotal returns subtotal plus tax, rounded to cents.
func CheckoutTotal(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Add(subtotal.Mul(TaxRate)).Round(2)
}

// AmountInCents converts a decimal currency amount to the processor's minor unit.
func AmountInCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

type ShippingAddress struct {
	FullName   string `json:"fullName" gorm:"not null"`
	Address    string `json:"address" gorm:"not null"`
	City       string `json:"city" gorm:"not null"`
	PostalCode string `json:"postalCode" gorm:"not null"`
	Country    string `json:"country" gorm:"not null"`
}

func (a ShippingAddress) validate(v *ValidationError) {
	if a.FullName == "" {
		v.Add("shippingAddress.fullName", "fullName is required")
	}
	if a.Address == "" {
		v.Add("shippingAddress.address", "address is required")
	}
	if a.City == "" {
		v.Add("shippingAddress.city", "city is required")
	}
	if a.PostalCode == "" {
		v.Add("shippingAddress.postalCode", "postalCode is required")
	}
	if a.Country == "" {
		v.Add("shippingAddress.country", "country is required")
	}
}

func (a ShippingAddress) Validate() error {
	v := NewValidationError()
	a.validate(v)
	return v.OrNil()
}

// OrderLine is a point-in-time snapshot of a product as it was ordered.
type OrderLine struct {
	ID        uint64          `json:"-" gorm:"primaryKey;autoIncrement"`
	OrderID   string          `json:"-" gorm:"size:36;not null;index"`
	ProductID string          `json:"product" gorm:"size:36;not null;index"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Quantity  int             `json:"quantity" gorm:"not null"`
}

type Order struct {
	ID                    string          `json:"id" gorm:"primaryKey;size:36"`
	UserID                string          `json:"userId" gorm:"size:36;not null;index"`
	User                  *UserRef        `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items                 []OrderLine     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippingAddress       ShippingAddress `json:"shippingAddress" gorm:"embedded;embeddedPrefix:shipping_"`
	TotalPrice            decimal.Decimal `json:"totalPrice" gorm:"type:decimal(12,2);not null"`
	PaymentStatus         PaymentStatus   `json:"paymentStatus" gorm:"size:16;not null;default:'pending';index"`
	OrderStatus           OrderStatus     `json:"orderStatus" gorm:"size:16;not null;default:'processing'"`
	StripePaymentIntentID string          `json:"stripePaymentIntentId" gorm:"size:255;uniqueIndex"`
	CreatedAt             time.Time       `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt             time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Validate checks what a checkout must carry before any payment lookup.
func (o *Order) Validate() error {
	v := NewValidationError()
	if len(o.Items) == 0 {
		v.Add("items", "No order items")
	}
	for _, it := range o.Items {
		if it.ProductID == "" {
			v.Add("items.product", "product is required")
		}
		if it.Quantity < 1 {
			v.Add("items.quantity", "quantity must be at least 1")
		}
		if it.Price.IsNegative() {
			v.Add("items.price", "price must not be negative")
		}
	}
	o.ShippingAddress.validate(v)
	if o.TotalPrice.IsNegative() {
		v.Add("totalPrice", "totalPrice must not be negative")
	}
	if o.StripePaymentIntentID == "" {
		v.Add("stripePaymentIntentId", "payment reference is required")
	}
	return v.OrNil()
}

type OrderStats struct {
	TotalOrders      int64           `json:"totalOrders"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	TotalProducts    int64           `json:"totalProducts"`
	LowStockProducts int64           `json:"lowStockProducts"`
	RecentOrders     []Order         `json:"recentOrders"`
}

// OrderCreatedEvent is the integration event published to the message broker.
type OrderCreatedEvent struct {
	OrderID    string          `json:"orderId"`
	UserID     string          `json:"userId"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	ItemCount  int             `json:"itemCount"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type OrderStatusUpdatedEvent struct {
	OrderID     string      `json:"orderId"`
	OrderStatus OrderStatus `json:"orderStatus"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}
