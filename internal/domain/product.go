package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type Category string

const (
	CategoryElectronics   Category = "Electronics"
	CategoryClothing      Category = "Clothing"
	CategoryAccessories   Category = "Accessories"
	CategoryHomeAndLiving Category = "Home & Living"
	CategorySports        Category = "Sports"
)

var Categories = []Category{
	CategoryElectronics,
	CategoryClothing,
	CategoryAccessories,
	CategoryHomeAndLiving,
	CategorySports,
}

func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

const (
	DefaultProductImage  = "https://via.placeholder.com/400"
	DefaultProductRating = 4.5

	// LowStockThreshold is the inclusive stock level at which a product counts as low stock.
	LowStockThreshold = 5
)

type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;size:36"`
	Name        string          `json:"name" gorm:"not null;index"`
	Description string          `json:"description" gorm:"type:text;not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Image       string          `json:"image"`
	Category    Category        `json:"category" gorm:"size:32;not null;index"`
	Stock       int             `json:"stock" gorm:"not null;default:0"`
	SKU         string          `json:"sku" gorm:"size:64;not null;uniqueIndex"`
	Featured    bool            `json:"featured" gorm:"not null;default:false;index"`
	Rating      float64         `json:"rating" gorm:"not null"`
	NumReviews  int             `json:"numReviews" gorm:"not null;default:0"`
	CreatedAt   time.Time       `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (p *Product) LowStock() bool {
	return p.Stock <= LowStockThreshold
}

// ApplyDefaults fills the optional fields a new product may omit. Rating is
// left alone since zero is a valid rating; callers that know it was absent
// set DefaultProductRating themselves.
func (p *Product) ApplyDefaults() {
	if p.Image == "" {
		p.Image = DefaultProductImage
	}
}

// Validate checks the fields every stored product must satisfy.
func (p *Product) Validate() error {
	v := NewValidationError()
	if p.Name == "" {
		v.Add("name", "Please add a product name")
	}
	if p.Description == "" {
		v.Add("description", "Please add a description")
	}
	if p.Price.IsNegative() {
		v.Add("price", "price must not be negative")
	}
	if !p.Category.Valid() {
		v.Add("category", "Please add a valid category")
	}
	if p.Stock < 0 {
		v.Add("stock", "stock must not be negative")
	}
	if p.SKU == "" {
		v.Add("sku", "sku is required")
	}
	if p.Rating < 0 || p.Rating > 5 {
		v.Add("rating", "rating must be between 0 and 5")
	}
	if p.NumReviews < 0 {
		v.Add("numReviews", "numReviews must not be negative")
	}
	return v.OrNil()
}

// DecrementStock returns the stock left after removing qty units, never below zero.
func DecrementStock(stock, qty int) int {
	if qty <= 0 {
		return stock
	}
	if qty >= stock {
		return 0
	}
	return stock - qty
}

type ProductSort string

const (
	SortNewest    ProductSort = ""
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
	SortRating    ProductSort = "rating"
	SortName      ProductSort = "name"
)

type ProductQuery struct {
	Category Category    `json:"category,omitempty"`
	Search   string      `json:"search,omitempty"`
	Sort     ProductSort `json:"sort,omitempty"`
	Featured bool        `json:"featured,omitempty"`
}

// Normalize drops the "All" category and unknown sort keys.
func (q ProductQuery) Normalize() ProductQuery {
	if q.Category == "All" {
		q.Category = ""
	}
	switch q.Sort {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortRating, SortName:
	default:
		q.Sort = SortNewest
	}
	return q
}

// ProductPatch is a partial product update; nil fields are left unchanged.
type ProductPatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Image       *string          `json:"image"`
	Category    *Category        `json:"category"`
	Stock       *int             `json:"stock"`
	SKU         *string          `json:"sku"`
	Featured    *bool            `json:"featured"`
	Rating      *float64         `json:"rating"`
	NumReviews  *int             `json:"numReviews"`
}

func (pp ProductPatch) ApplyTo(p *Product) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Price != nil {
		p.Price = *pp.Price
	}
	if pp.Image != nil {
		p.Image = *pp.Image
	}
	if pp.Category != nil {
		p.Category = *pp.Category
	}
	if pp.Stock != nil {
		p.Stock = *pp.Stock
	}
	if pp.SKU != nil {
		p.SKU = *pp.SKU
	}
	if pp.Featured != nil {
		p.Featured = *pp.Featured
	}
	if pp.Rating != nil {
		p.Rating = *pp.Rating
	}
	if pp.NumReviews != nil {
		p.NumReviews = *pp.NumReviews
	}
}
