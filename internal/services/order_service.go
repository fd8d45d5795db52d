package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cartify/internal/domain"
	"cartify/internal/infra/payment"
	rabbit "cartify/internal/infra/rabbitmq"
	rediscache "cartify/internal/infra/redis"
	"cartify/internal/realtime"
	"cartify/internal/repository"

	"golang.org/x/sync/errgroup"
)

const RecentOrdersLimit = 5

type OrderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	payments  payment.ProcessorInterface
	inventory realtime.PublisherInterface
	publisher rabbit.PublisherInterface
	cache     rediscache.CatalogCacheInterface
	log       *slog.Logger

	pending sync.WaitGroup
}

func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	payments payment.ProcessorInterface,
	inventory realtime.PublisherInterface,
	pub rabbit.PublisherInterface,
	log *slog.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		payments:  payments,
		inventory: inventory,
		publisher: pub,
		log:       log,
	}
}

func (s *OrderService) SetCache(c rediscache.CatalogCacheInterface) {
	s.cache = c
}

// CreateOrder persists a paid order. The payment authorization is checked first;
// when it fails nothing is written, no stock moves and no event is sent.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, order *domain.Order) (*domain.Order, error) {
	order.UserID = userID
	if err := order.Validate(); err != nil {
		return nil, err
	}
	if err := s.verifyPayment(ctx, order); err != nil {
		return nil, err
	}

	order.ID = ""
	order.User = nil
	order.PaymentStatus = domain.PaymentPaid
	order.OrderStatus = domain.OrderProcessing
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	for _, line := range order.Items {
		s.decrementLine(ctx, line)
	}

	s.dispatch(rabbit.PatternOrderCreated, domain.OrderCreatedEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice,
		ItemCount:  len(order.Items),
		CreatedAt:  order.CreatedAt,
	})
	return order, nil
}

func (s *OrderService) verifyPayment(ctx context.Context, order *domain.Order) error {
	intent, err := s.payments.GetIntent(ctx, order.StripePaymentIntentID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentFailed) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
	}
	if intent.UserID != order.UserID {
		return fmt.Errorf("%w: payment belongs to another account", domain.ErrPaymentFailed)
	}
	if !intent.Succeeded() {
		return fmt.Errorf("%w: payment not completed", domain.ErrPaymentFailed)
	}
	if intent.AmountCents != domain.AmountInCents(order.TotalPrice) {
		return fmt.Errorf("%w: authorized amount does not match order total", domain.ErrPaymentFailed)
	}
	return nil
}

// decrementLine removes one line's quantity from stock. The order is already
// stored, so failures here are logged and the remaining lines still run.
func (s *OrderService) decrementLine(ctx context.Context, line domain.OrderLine) {
	p, delta, err := s.products.DecrementStock(ctx, line.ProductID, line.Quantity)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			s.log.Info("ordered product no longer exists", "product_id", line.ProductID)
			return
		}
		s.log.Error("stock decrement failed", "product_id", line.ProductID, "quantity", line.Quantity, "error", err)
		return
	}
	if delta == 0 {
		return
	}
	invalidate(ctx, s.cache, s.log, p.ID)
	publishInventory(ctx, s.inventory, s.log, domain.NewInventoryEvent(*p, domain.ActionStockChanged))
}

func (s *OrderService) dispatch(pattern string, evt any) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.publishEvent(context.Background(), pattern, evt)
	}()
}

func (s *OrderService) publishEvent(ctx context.Context, pattern string, evt any) {
	if err := s.publisher.Publish(ctx, pattern, evt); err != nil {
		s.log.Error("failed to publish event", "pattern", pattern, "error", err)
		return
	}
	s.log.Debug("published event", "pattern", pattern)
}

// Wait blocks until every integration event handed to the broker has been sent.
func (s *OrderService) Wait() {
	s.pending.Wait()
}

// ListOrders returns every order for admins and only the caller's own otherwise.
func (s *OrderService) ListOrders(ctx context.Context, userID string, admin bool) ([]domain.Order, error) {
	if admin {
		return s.orders.ListAll(ctx)
	}
	return s.orders.ListByUser(ctx, userID)
}

func (s *OrderService) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.FindByID(ctx, id)
}

func (s *OrderService) Stats(ctx context.Context) (*domain.OrderStats, error) {
	var stats domain.OrderStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.TotalOrders, err = s.orders.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalRevenue, err = s.orders.SumRevenue(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalProducts, err = s.products.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.LowStockProducts, err = s.products.CountLowStock(gctx, domain.LowStockThreshold)
		return err
	})
	g.Go(func() (err error) {
		stats.RecentOrders, err = s.orders.Recent(gctx, RecentOrdersLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if stats.RecentOrders == nil {
		stats.RecentOrders = []domain.Order{}
	}
	return &stats, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		v := domain.NewValidationError()
		v.Add("orderStatus", "Invalid order status")
		return nil, v
	}
	order, err := s.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.dispatch(rabbit.PatternOrderStatusUpdated, domain.OrderStatusUpdatedEvent{
		OrderID:     order.ID,
		OrderStatus: order.OrderStatus,
		UpdatedAt:   time.Now(),
	})
	return order, nil
}
