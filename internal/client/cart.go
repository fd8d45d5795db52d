package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"cartify/internal/domain"

	"github.com/shopspring/decimal"
)

const CartStorageKey = "cartify_cart"

type CartLine struct {
	Product  string          `json:"product"`
	Name     string          `json:"name"`
	Image    string          `json:"image"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// ProductSource looks up authoritative products for a cart resync.
type ProductSource interface {
	Product(ctx context.Context, id string) (*domain.Product, error)
}

// ResyncReport lists what a resync changed, for display at checkout.
type ResyncReport struct {
	Removed  []string
	Clamped  []string
	Repriced []string
}

func (r ResyncReport) Changed() bool {
	return len(r.Removed)+len(r.Clamped)+len(r.Repriced) > 0
}

// Cart is one browsing session's cart. Every mutation is persisted before it returns.
type Cart struct {
	store Store

	mu    sync.Mutex
	lines []CartLine
}

func LoadCart(store Store) (*Cart, error) {
	c := &Cart{store: store}
	b, ok, err := store.Get(CartStorageKey)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if ok {
		if err := json.Unmarshal(b, &c.lines); err != nil {
			return nil, fmt.Errorf("decode cart: %w", err)
		}
	}
	return c, nil
}

func (c *Cart) persist() error {
	b, err := json.Marshal(c.lines)
	if err != nil {
		return err
	}
	return c.store.Set(CartStorageKey, b)
}

func (c *Cart) indexOf(id string) int {
	for i := range c.lines {
		if c.lines[i].Product == id {
			return i
		}
	}
	return -1
}

// Add puts qty units of p in the cart, merging with an existing line.
func (c *Cart) Add(p domain.Product, qty int) error {
	if qty <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(p.ID); i >= 0 {
		c.lines[i].Quantity += qty
	} else {
		c.lines = append(c.lines, CartLine{
			Product:  p.ID,
			Name:     p.Name,
			Image:    p.Image,
			Price:    p.Price,
			Quantity: qty,
		})
	}
	return c.persist()
}

// SetQuantity changes a line's quantity. Zero or less removes the line.
func (c *Cart) SetQuantity(id string, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return nil
	}
	if qty <= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	} else {
		c.lines[i].Quantity = qty
	}
	return c.persist()
}

func (c *Cart) Remove(id string) error {
	return c.SetQuantity(id, 0)
}

func (c *Cart) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	return c.store.Delete(CartStorageKey)
}

func (c *Cart) Lines() []CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CartLine(nil), c.lines...)
}

func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// Resync refreshes every line from src: display fields and price are updated,
// quantities are clamped to stock, and lines for missing or sold-out products
// are dropped. Lookups happen outside the lock.
func (c *Cart) Resync(ctx context.Context, src ProductSource) (ResyncReport, error) {
	var report ResyncReport
	current := make(map[string]*domain.Product)
	for _, l := range c.Lines() {
		p, err := src.Product(ctx, l.Product)
		if errors.Is(err, domain.ErrProductNotFound) {
			current[l.Product] = nil
			continue
		}
		if err != nil {
			return report, fmt.Errorf("resync %s: %w", l.Product, err)
		}
		current[l.Product] = p
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.lines[:0]
	for _, l := range c.lines {
		p, seen := current[l.Product]
		if !seen {
			kept = append(kept, l)
			continue
		}
		if p == nil || p.Stock == 0 {
			report.Removed = append(report.Removed, l.Product)
			continue
		}
		if !l.Price.Equal(p.Price) {
			report.Repriced = append(report.Repriced, l.Product)
		}
		if l.Quantity > p.Stock {
			l.Quantity = p.Stock
			report.Clamped = append(report.Clamped, l.Product)
		}
		l.Name, l.Image, l.Price = p.Name, p.Image, p.Price
		kept = append(kept, l)
	}
	c.lines = kept
	return report, c.persist()
}
