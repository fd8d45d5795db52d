package services

import (
	"context"
	"errors"
	"testing"

	"cartify/internal/domain"
	"cartify/internal/logging"
	"cartify/internal/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func inventoryEvent(action domain.InventoryAction, id string) any {
	return mock.MatchedBy(func(ev domain.InventoryEvent) bool {
		return ev.Action == action && ev.Product.ID == id
	})
}

func TestProductService_Create(t *testing.T) {
	tests := []struct {
		name          string
		product       func() *domain.Product
		setupMocks    func(*mocks.MockProductRepository, *mocks.MockInventoryPublisher)
		wantRating    float64
		expectedError error
	}{
		{
			name: "created product is broadcast",
			product: func() *domain.Product {
				p := CreateMockProduct("", 10)
				p.Image = ""
				p.Rating = 0
				return p
			},
			setupMocks: func(repo *mocks.MockProductRepository, pub *mocks.MockInventoryPublisher) {
				repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil).Run(func(args mock.Arguments) {
					args.Get(1).(*domain.Product).ID = TestProductID
				})
				pub.On("Publish", mock.Anything, inventoryEvent(domain.ActionCreated, TestProductID)).Return(nil).Once()
			},
			wantRating: 0,
		},
		{
			name: "publish failure does not fail the write",
			product: func() *domain.Product {
				return CreateMockProduct(TestProductID, 10)
			},
			setupMocks: func(repo *mocks.MockProductRepository, pub *mocks.MockInventoryPublisher) {
				repo.On("Create", mock.Anything, mock.Anything).Return(nil)
				pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("hub closed"))
			},
			wantRating: domain.DefaultProductRating,
		},
		{
			name: "invalid product",
			product: func() *domain.Product {
				p := CreateMockProduct(TestProductID, -1)
				p.Category = "Toys"
				return p
			},
			setupMocks:    func(*mocks.MockProductRepository, *mocks.MockInventoryPublisher) {},
			expectedError: domain.ErrValidation,
		},
		{
			name: "duplicate sku",
			product: func() *domain.Product {
				return CreateMockProduct(TestProductID, 1)
			},
			setupMocks: func(repo *mocks.MockProductRepository, pub *mocks.MockInventoryPublisher) {
				repo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrDuplicateSKU)
			},
			expectedError: domain.ErrDuplicateSKU,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockProductRepository)
			pub := new(mocks.MockInventoryPublisher)
			tt.setupMocks(repo, pub)
			s := NewProductService(repo, pub, logging.Discard())

			p, err := s.Create(context.Background(), tt.product())
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, p)
				pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, domain.DefaultProductImage, p.Image)
				assert.Equal(t, tt.wantRating, p.Rating)
			}
			repo.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestProductService_Update(t *testing.T) {
	stock := 0
	badRating := 9.0

	tests := []struct {
		name          string
		patch         domain.ProductPatch
		setupMocks    func(*mocks.MockProductRepository, *mocks.MockInventoryPublisher)
		expectedError error
	}{
		{
			name:  "stock set to zero",
			patch: domain.ProductPatch{Stock: &stock},
			setupMocks: func(repo *mocks.MockProductRepository, pub *mocks.MockInventoryPublisher) {
				repo.On("FindByID", mock.Anything, TestProductID).Return(CreateMockProduct(TestProductID, 4), nil)
				repo.On("Save", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool { return p.Stock == 0 })).Return(nil)
				pub.On("Publish", mock.Anything, mock.MatchedBy(func(ev domain.InventoryEvent) bool {
					return ev.Action == domain.ActionUpdated && ev.Product.Stock == 0
				})).Return(nil)
			},
		},
		{
			name:  "missing product",
			patch: domain.ProductPatch{Stock: &stock},
			setupMocks: func(repo *mocks.MockProductRepository, pub *mocks.MockInventoryPublisher) {
				repo.On("FindByID", mock.Anything, TestProductID).Return(nil, domain.ErrProductNotFound)
			},
			expectedError: domain.ErrProductNotFound,
		},
		{
			name:  "invalid patch",
			patch: domain.ProductPatch{Rating: &badRating},
			setupMocks: func(repo *mocks.MockProductRepository, pub *mocks.MockInventoryPublisher) {
				repo.On("FindByID", mock.Anything, TestProductID).Return(CreateMockProduct(TestProductID, 4), nil)
			},
			expectedError: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockProductRepository)
			pub := new(mocks.MockInventoryPublisher)
			tt.setupMocks(repo, pub)
			s := NewProductService(repo, pub, logging.Discard())

			p, err := s.Update(context.Background(), TestProductID, tt.patch)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, p)
				repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
				pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
			}
			repo.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestProductService_Delete(t *testing.T) {
	repo := new(mocks.MockProductRepository)
	pub := new(mocks.MockInventoryPublisher)
	cache := new(mocks.MockCatalogCache)
	repo.On("Delete", mock.Anything, TestProductID).Return(CreateMockProduct(TestProductID, 2), nil)
	repo.On("Delete", mock.Anything, "missing").Return(nil, domain.ErrProductNotFound)
	cache.On("Invalidate", mock.Anything, TestProductID).Return(nil).Once()
	pub.On("Publish", mock.Anything, inventoryEvent(domain.ActionDeleted, TestProductID)).Return(nil).Once()

	s := NewProductService(repo, pub, logging.Discard())
	s.SetCache(cache)

	require.NoError(t, s.Delete(context.Background(), TestProductID))
	assert.ErrorIs(t, s.Delete(context.Background(), "missing"), domain.ErrProductNotFound)

	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestProductService_GetReadThrough(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*mocks.MockProductRepository, *mocks.MockCatalogCache)
	}{
		{
			name: "cache hit skips the store",
			setupMocks: func(repo *mocks.MockProductRepository, cache *mocks.MockCatalogCache) {
				cache.On("GetProduct", mock.Anything, TestProductID).Return(CreateMockProduct(TestProductID, 1), true, nil)
			},
		},
		{
			name: "cache miss fills the cache",
			setupMocks: func(repo *mocks.MockProductRepository, cache *mocks.MockCatalogCache) {
				cache.On("GetProduct", mock.Anything, TestProductID).Return(nil, false, nil)
				repo.On("FindByID", mock.Anything, TestProductID).Return(CreateMockProduct(TestProductID, 1), nil)
				cache.On("SetProduct", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)
			},
		},
		{
			name: "cache failure falls back to the store",
			setupMocks: func(repo *mocks.MockProductRepository, cache *mocks.MockCatalogCache) {
				cache.On("GetProduct", mock.Anything, TestProductID).Return(nil, false, errors.New("redis down"))
				repo.On("FindByID", mock.Anything, TestProductID).Return(CreateMockProduct(TestProductID, 1), nil)
				cache.On("SetProduct", mock.Anything, mock.Anything).Return(errors.New("redis down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockProductRepository)
			cache := new(mocks.MockCatalogCache)
			tt.setupMocks(repo, cache)
			s := NewProductService(repo, new(mocks.MockInventoryPublisher), logging.Discard())
			s.SetCache(cache)

			p, err := s.Get(context.Background(), TestProductID)
			require.NoError(t, err)
			assert.Equal(t, TestProductID, p.ID)
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestProductService_List(t *testing.T) {
	repo := new(mocks.MockProductRepository)
	q := domain.ProductQuery{Category: domain.CategoryElectronics, Sort: domain.SortPriceAsc}
	repo.On("List", mock.Anything, q).Return([]domain.Product{*CreateMockProduct("a", 1)}, nil)
	repo.On("List", mock.Anything, domain.ProductQuery{}).Return([]domain.Product{}, nil)
	s := NewProductService(repo, new(mocks.MockInventoryPublisher), logging.Discard())

	list, err := s.List(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// "All" and unknown sort keys normalize to the empty query
	list, err = s.List(context.Background(), domain.ProductQuery{Category: "All", Sort: "bogus"})
	require.NoError(t, err)
	assert.Empty(t, list)
	repo.AssertExpectations(t)
}
