package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"cartify/internal/domain"

	"github.com/shopspring/decimal"
)

// APIError is a non-2xx response from the storefront API.
type APIError struct {
	Status  int               `json:"-"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.Status)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return domain.ErrValidation
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusPaymentRequired:
		return domain.ErrPaymentFailed
	case http.StatusConflict:
		return domain.ErrDuplicateRequest
	}
	return nil
}

type User struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	Token string      `json:"token"`
}

type Intent struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type OrderItem struct {
	Product  string          `json:"product"`
	Name     string          `json:"name"`
	Image    string          `json:"image"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type OrderRequest struct {
	Items                 []OrderItem            `json:"items"`
	ShippingAddress       domain.ShippingAddress `json:"shippingAddress"`
	TotalPrice            decimal.Decimal        `json:"totalPrice"`
	StripePaymentIntentID string                 `json:"stripePaymentIntentId"`
}

type Health struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

type API struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func NewAPI(baseURL string, timeout time.Duration) *API {
	return &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *API) BaseURL() string {
	return c.baseURL
}

func (c *API) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *API) do(ctx context.Context, method, path string, body any, out any, headers ...string) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func notFound(err error, sentinel error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return sentinel
	}
	return err
}

func (c *API) Register(ctx context.Context, name, email, password string) (*User, error) {
	var u User
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", body, &u); err != nil {
		return nil, err
	}
	c.SetToken(u.Token)
	return &u, nil
}

func (c *API) Login(ctx context.Context, email, password string) (*User, error) {
	var u User
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &u); err != nil {
		return nil, err
	}
	c.SetToken(u.Token)
	return &u, nil
}

func (c *API) Products(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error) {
	q = q.Normalize()
	params := url.Values{}
	if q.Category != "" {
		params.Set("category", string(q.Category))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Sort != "" {
		params.Set("sort", string(q.Sort))
	}
	if q.Featured {
		params.Set("featured", "true")
	}
	path := "/api/products"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var out []domain.Product
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *API) Product(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, notFound(err, domain.ErrProductNotFound)
	}
	return &p, nil
}

func (c *API) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	var out domain.Product
	if err := c.do(ctx, http.MethodPost, "/api/products", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *API) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	var out domain.Product
	if err := c.do(ctx, http.MethodPut, "/api/products/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, notFound(err, domain.ErrProductNotFound)
	}
	return &out, nil
}

func (c *API) DeleteProduct(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(id), nil, nil)
	return notFound(err, domain.ErrProductNotFound)
}

func (c *API) CreateIntent(ctx context.Context, amount decimal.Decimal) (*Intent, error) {
	var out Intent
	if err := c.do(ctx, http.MethodPost, "/api/payment/create-intent", map[string]any{"amount": amount}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOrder submits a paid checkout. A non-empty idempotencyKey makes retries safe.
func (c *API) CreateOrder(ctx context.Context, req OrderRequest, idempotencyKey string) (*domain.Order, error) {
	var headers []string
	if idempotencyKey != "" {
		headers = []string{"Idempotency-Key", idempotencyKey}
	}
	var out domain.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &out, headers...); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *API) Orders(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *API) Stats(ctx context.Context) (*domain.OrderStats, error) {
	var out domain.OrderStats
	if err := c.do(ctx, http.MethodGet, "/api/orders/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *API) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	var out domain.Order
	body := map[string]domain.OrderStatus{"orderStatus": status}
	if err := c.do(ctx, http.MethodPut, "/api/orders/"+url.PathEscape(id), body, &out); err != nil {
		return nil, notFound(err, domain.ErrOrderNotFound)
	}
	return &out, nil
}

func (c *API) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
