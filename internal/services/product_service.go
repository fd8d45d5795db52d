package services

import (
	"context"
	"fmt"
	"log/slog"

	"cartify/internal/domain"
	rediscache "cartify/internal/infra/redis"
	"cartify/internal/realtime"
	"cartify/internal/repository"

	"golang.org/x/sync/singleflight"
)

type ProductService struct {
	repo   repository.ProductRepository
	events realtime.PublisherInterface
	cache  rediscache.CatalogCacheInterface
	group  singleflight.Group
	log    *slog.Logger
}

func NewProductService(r repository.ProductRepository, events realtime.PublisherInterface, log *slog.Logger) *ProductService {
	return &ProductService{
		repo:   r,
		events: events,
		log:    log,
	}
}

func (s *ProductService) SetCache(c rediscache.CatalogCacheInterface) {
	s.cache = c
}

func (s *ProductService) List(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error) {
	q = q.Normalize()
	if s.cache != nil {
		if list, ok, err := s.cache.GetList(ctx, q); err != nil {
			s.log.Warn("catalog cache read failed", "error", err)
		} else if ok {
			return list, nil
		}
	}

	key := fmt.Sprintf("list:%s|%s|%s|%t", q.Category, q.Search, q.Sort, q.Featured)
	v, err, _ := s.group.Do(key, func() (any, error) {
		list, err := s.repo.List(ctx, q)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.SetList(ctx, q, list); err != nil {
				s.log.Warn("catalog cache write failed", "error", err)
			}
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	shared := v.([]domain.Product)
	out := make([]domain.Product, len(shared))
	copy(out, shared)
	return out, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	if s.cache != nil {
		if p, ok, err := s.cache.GetProduct(ctx, id); err != nil {
			s.log.Warn("catalog cache read failed", "product_id", id, "error", err)
		} else if ok {
			return p, nil
		}
	}

	v, err, _ := s.group.Do("product:"+id, func() (any, error) {
		p, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.SetProduct(ctx, p); err != nil {
				s.log.Warn("catalog cache write failed", "product_id", id, "error", err)
			}
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	p := *v.(*domain.Product)
	return &p, nil
}

func (s *ProductService) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, *p, domain.ActionCreated)
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.ApplyTo(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, *p, domain.ActionUpdated)
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	p, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.afterWrite(ctx, *p, domain.ActionDeleted)
	return nil
}

// afterWrite runs once a write has committed. Neither step can fail the write.
func (s *ProductService) afterWrite(ctx context.Context, p domain.Product, action domain.InventoryAction) {
	invalidate(ctx, s.cache, s.log, p.ID)
	publishInventory(ctx, s.events, s.log, domain.NewInventoryEvent(p, action))
}

func invalidate(ctx context.Context, cache rediscache.CatalogCacheInterface, log *slog.Logger, id string) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, id); err != nil {
		log.Warn("catalog cache invalidate failed", "product_id", id, "error", err)
	}
}

func publishInventory(ctx context.Context, events realtime.PublisherInterface, log *slog.Logger, ev domain.InventoryEvent) {
	if err := events.Publish(ctx, ev); err != nil {
		log.Warn("inventory event not published", "product_id", ev.Product.ID, "action", ev.Action, "error", err)
	}
}
