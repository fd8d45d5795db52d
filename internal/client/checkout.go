package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cartify/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CheckoutState string

const (
	CheckoutDraft       CheckoutState = "DRAFT"
	CheckoutValidating  CheckoutState = "VALIDATING"
	CheckoutAuthorizing CheckoutState = "AUTHORIZING"
	CheckoutConfirming  CheckoutState = "CONFIRMING"
	CheckoutSucceeded   CheckoutState = "SUCCEEDED"
	CheckoutFailed      CheckoutState = "FAILED"
)

// DeclinedTestCard is the test-mode card number that is always declined.
const DeclinedTestCard = "4000000000000002"

type Card struct {
	Number string
	Expiry string
	CVC    string
}

func (c Card) present() bool {
	return strings.TrimSpace(c.Number) != "" && c.Expiry != "" && c.CVC != ""
}

// CardAuthorizer confirms an intent's client secret against a card and returns the intent id.
type CardAuthorizer interface {
	Authorize(ctx context.Context, clientSecret string, card Card) (string, error)
}

// CheckoutAPI is the slice of the storefront API a checkout needs.
type CheckoutAPI interface {
	ProductSource
	CreateIntent(ctx context.Context, amount decimal.Decimal) (*Intent, error)
	CreateOrder(ctx context.Context, req OrderRequest, idempotencyKey string) (*domain.Order, error)
}

var (
	_ CheckoutAPI    = (*API)(nil)
	_ CardAuthorizer = TestModeAuthorizer{}
)

// TestModeAuthorizer confirms mock intents locally. It pairs with the server's mock processor.
type TestModeAuthorizer struct{}

func (TestModeAuthorizer) Authorize(ctx context.Context, clientSecret string, card Card) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id, _, ok := strings.Cut(clientSecret, "_secret_")
	if !ok || id == "" {
		return "", fmt.Errorf("%w: malformed client secret", domain.ErrPaymentFailed)
	}
	if strings.ReplaceAll(card.Number, " ", "") == DeclinedTestCard {
		return "", fmt.Errorf("%w: your card was declined", domain.ErrPaymentFailed)
	}
	return id, nil
}

// Checkout drives one checkout attempt. A FAILED attempt can be submitted again.
type Checkout struct {
	api  CheckoutAPI
	auth CardAuthorizer
	cart *Cart

	mu       sync.Mutex
	state    CheckoutState
	shipping domain.ShippingAddress
	card     Card
	key      string
	err      error
	resync   ResyncReport
}

func NewCheckout(api CheckoutAPI, auth CardAuthorizer, cart *Cart) *Checkout {
	return &Checkout{
		api:   api,
		auth:  auth,
		cart:  cart,
		state: CheckoutDraft,
		key:   uuid.NewString(),
	}
}

func (c *Checkout) State() CheckoutState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err is the error that ended the last submit, if any.
func (c *Checkout) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Resync is what the last submit changed in the cart before pricing it.
func (c *Checkout) Resync() ResyncReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resync
}

func (c *Checkout) SetShipping(a domain.ShippingAddress) {
	c.mu.Lock()
	c.shipping = a
	c.mu.Unlock()
}

func (c *Checkout) SetCard(card Card) {
	c.mu.Lock()
	c.card = card
	c.mu.Unlock()
}

func (c *Checkout) set(s CheckoutState, err error) {
	c.mu.Lock()
	c.state, c.err = s, err
	c.mu.Unlock()
}

func (c *Checkout) validate() error {
	v := domain.NewValidationError()
	if err := c.shipping.Validate(); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			for f, m := range ve.Fields {
				v.Add(f, m)
			}
		}
	}
	if !c.card.present() {
		v.Add("card", "card details are required")
	}
	if c.cart.Empty() {
		v.Add("items", "cart is empty")
	}
	return v.OrNil()
}

// Submit validates, authorizes the exact total, and then creates the order.
// Field errors return the attempt to DRAFT. Payment and order errors leave it FAILED.
func (c *Checkout) Submit(ctx context.Context) (*domain.Order, error) {
	c.mu.Lock()
	switch c.state {
	case CheckoutDraft, CheckoutFailed:
	case CheckoutSucceeded:
		c.mu.Unlock()
		return nil, errors.New("checkout already completed")
	default:
		c.mu.Unlock()
		return nil, errors.New("checkout in progress")
	}
	c.state, c.err = CheckoutValidating, nil
	shipping, card, key := c.shipping, c.card, c.key
	err := c.validate()
	c.mu.Unlock()

	if err != nil {
		c.set(CheckoutDraft, err)
		return nil, err
	}

	report, err := c.cart.Resync(ctx, c.api)
	c.mu.Lock()
	c.resync = report
	c.mu.Unlock()
	if err != nil {
		c.set(CheckoutFailed, err)
		return nil, err
	}
	if c.cart.Empty() {
		err := domain.NewValidationError()
		err.Add("items", "cart is empty")
		c.set(CheckoutDraft, err)
		return nil, err
	}

	c.set(CheckoutAuthorizing, nil)
	total := domain.CheckoutTotal(c.cart.Subtotal())
	intent, err := c.api.CreateIntent(ctx, total)
	if err != nil {
		c.set(CheckoutFailed, err)
		return nil, err
	}
	intentID, err := c.auth.Authorize(ctx, intent.ClientSecret, card)
	if err != nil {
		c.set(CheckoutFailed, err)
		return nil, err
	}

	c.set(CheckoutConfirming, nil)
	lines := c.cart.Lines()
	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, OrderItem(l))
	}
	order, err := c.api.CreateOrder(ctx, OrderRequest{
		Items:                 items,
		ShippingAddress:       shipping,
		TotalPrice:            total,
		StripePaymentIntentID: intentID,
	}, key)
	if err != nil {
		c.set(CheckoutFailed, err)
		return nil, err
	}

	if err := c.cart.Clear(); err != nil {
		c.set(CheckoutSucceeded, nil)
		return order, fmt.Errorf("order placed but cart not cleared: %w", err)
	}
	c.set(CheckoutSucceeded, nil)
	return order, nil
}
