package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cartify/internal/domain"
	"cartify/internal/reconcile"
)

// ProductLister is the catalog query a search view runs.
type ProductLister interface {
	Products(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error)
}

var _ ProductLister = (*API)(nil)

// CatalogSearch is a live catalog list whose query follows typed input.
// Keystrokes are debounced, so a burst of edits costs one fetch.
type CatalogSearch struct {
	ctx      context.Context
	api      ProductLister
	debounce *Debouncer
	live     *Live[reconcile.CatalogList]
	log      *slog.Logger

	mu    sync.Mutex
	query domain.ProductQuery
}

func NewCatalogSearch(ctx context.Context, api ProductLister, delay time.Duration, log *slog.Logger) *CatalogSearch {
	s := &CatalogSearch{
		ctx:      ctx,
		api:      api,
		debounce: NewDebouncer(delay),
		log:      log,
	}
	s.live = NewLive(reconcile.CatalogList{}, s.fetch)
	return s
}

func (s *CatalogSearch) fetch(ctx context.Context) (reconcile.CatalogList, error) {
	q := s.Query()
	products, err := s.api.Products(ctx, q)
	if err != nil {
		return reconcile.CatalogList{}, err
	}
	return reconcile.CatalogList{Products: products}, nil
}

// Live is the bound list view. Attach it to a Source for pushed updates.
func (s *CatalogSearch) Live() *Live[reconcile.CatalogList] {
	return s.live
}

func (s *CatalogSearch) Query() domain.ProductQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// SetSearch changes the search text and schedules a refetch.
func (s *CatalogSearch) SetSearch(text string) {
	s.mu.Lock()
	s.query.Search = text
	s.mu.Unlock()
	s.schedule()
}

// SetQuery replaces filters and sort, keeping the debounce.
func (s *CatalogSearch) SetQuery(q domain.ProductQuery) {
	s.mu.Lock()
	s.query = q
	s.mu.Unlock()
	s.schedule()
}

func (s *CatalogSearch) schedule() {
	s.debounce.Call(func() {
		if err := s.live.Refresh(s.ctx); err != nil {
			s.log.Warn("catalog search failed", "error", err)
		}
	})
}

func (s *CatalogSearch) Close() {
	s.debounce.Stop()
	s.live.Detach()
}
