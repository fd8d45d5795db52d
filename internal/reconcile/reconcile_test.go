package reconcile

import (
	"testing"

	"cartify/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id string, stock int) domain.Product {
	return domain.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    decimal.NewFromInt(10),
		Category: domain.CategoryElectronics,
		Stock:    stock,
		SKU:      "SKU-" + id,
	}
}

func ev(p domain.Product, action domain.InventoryAction) domain.InventoryEvent {
	return domain.NewInventoryEvent(p, action)
}

func ids(list []domain.Product) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.ID)
	}
	return out
}

var allActions = []domain.InventoryAction{
	domain.ActionCreated,
	domain.ActionUpdated,
	domain.ActionStockChanged,
	domain.ActionDeleted,
}

func TestApplyToList(t *testing.T) {
	base := []domain.Product{product("a", 5), product("b", 7)}

	tests := []struct {
		name    string
		event   domain.InventoryEvent
		wantIDs []string
		check   func(t *testing.T, out []domain.Product)
	}{
		{
			name:    "created prepends a new product",
			event:   ev(product("c", 1), domain.ActionCreated),
			wantIDs: []string{"c", "a", "b"},
		},
		{
			name:    "created for a known id replaces it",
			event:   ev(product("b", 3), domain.ActionCreated),
			wantIDs: []string{"a", "b"},
			check:   func(t *testing.T, out []domain.Product) { assert.Equal(t, 3, out[1].Stock) },
		},
		{
			name:    "updated replaces in place",
			event:   ev(product("a", 0), domain.ActionUpdated),
			wantIDs: []string{"a", "b"},
			check:   func(t *testing.T, out []domain.Product) { assert.Equal(t, 0, out[0].Stock) },
		},
		{
			name:    "stock-changed replaces in place",
			event:   ev(product("b", 2), domain.ActionStockChanged),
			wantIDs: []string{"a", "b"},
			check:   func(t *testing.T, out []domain.Product) { assert.Equal(t, 2, out[1].Stock) },
		},
		{
			name:    "updated for an unknown id is ignored",
			event:   ev(product("z", 2), domain.ActionUpdated),
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "deleted removes",
			event:   ev(product("a", 5), domain.ActionDeleted),
			wantIDs: []string{"b"},
		},
		{
			name:    "deleted for an unknown id is ignored",
			event:   ev(product("z", 5), domain.ActionDeleted),
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "unknown action is ignored",
			event:   ev(product("a", 99), "restocked"),
			wantIDs: []string{"a", "b"},
			check:   func(t *testing.T, out []domain.Product) { assert.Equal(t, 5, out[0].Stock) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ApplyToList(base, tt.event)
			assert.Equal(t, tt.wantIDs, ids(out))
			if tt.check != nil {
				tt.check(t, out)
			}
			// input untouched
			assert.Equal(t, []string{"a", "b"}, ids(base))
			assert.Equal(t, 5, base[0].Stock)
		})
	}
}

func views() map[string]func(domain.InventoryEvent) (once, twice any) {
	list := []domain.Product{product("a", 5), product("b", 7)}
	stats := domain.OrderStats{TotalOrders: 3}

	return map[string]func(domain.InventoryEvent) (any, any){
		"catalog": func(e domain.InventoryEvent) (any, any) {
			v := CatalogList{Products: list}
			return v.Apply(e), v.Apply(e).Apply(e)
		},
		"detail": func(e domain.InventoryEvent) (any, any) {
			p := product("a", 5)
			v := NewProductDetail(&p)
			return v.Apply(e), v.Apply(e).Apply(e)
		},
		"inventory": func(e domain.InventoryEvent) (any, any) {
			v := InventoryTable{Products: list}
			return v.Apply(e), v.Apply(e).Apply(e)
		},
		"dashboard": func(e domain.InventoryEvent) (any, any) {
			v := NewDashboard(stats, list)
			return v.Apply(e), v.Apply(e).Apply(e)
		},
	}
}

func TestViews_Idempotent(t *testing.T) {
	events := []domain.InventoryEvent{}
	for _, a := range allActions {
		events = append(events, ev(product("a", 1), a), ev(product("new", 1), a))
	}

	for name, apply := range views() {
		for _, e := range events {
			t.Run(name+"/"+string(e.Action)+"/"+e.Product.ID, func(t *testing.T) {
				once, twice := apply(e)
				assert.Equal(t, once, twice)
			})
		}
	}
}

func TestViews_UnknownIDOnlyCreatedMutates(t *testing.T) {
	list := []domain.Product{product("a", 5)}

	for _, a := range allActions {
		t.Run(string(a), func(t *testing.T) {
			e := ev(product("ghost", 2), a)

			catalog := CatalogList{Products: list}.Apply(e)
			dash := NewDashboard(domain.OrderStats{}, list).Apply(e)
			table := InventoryTable{Products: list}.Apply(e)
			p := product("a", 5)
			detail := NewProductDetail(&p).Apply(e)

			if a == domain.ActionCreated {
				assert.Equal(t, []string{"ghost", "a"}, ids(catalog.Products))
				assert.Equal(t, int64(2), dash.Stats.TotalProducts)
				assert.NotNil(t, table.LastUpdate)
			} else {
				assert.Equal(t, []string{"a"}, ids(catalog.Products))
				assert.Equal(t, int64(1), dash.Stats.TotalProducts)
				assert.Equal(t, InventoryTable{Products: list}, table)
			}
			// a detail view only follows its own id
			assert.Equal(t, 5, detail.Product.Stock)
			assert.False(t, detail.NotFound())
		})
	}
}

func TestViews_DeletionPropagates(t *testing.T) {
	list := []domain.Product{product("a", 5), product("b", 7)}
	p := product("a", 5)
	deleted := ev(p, domain.ActionDeleted)

	catalog := CatalogList{Products: list}.Apply(deleted)
	table := InventoryTable{Products: list}.Apply(deleted)
	dash := NewDashboard(domain.OrderStats{}, list).Apply(deleted)
	detail := NewProductDetail(&p).Apply(deleted)

	assert.NotContains(t, ids(catalog.Products), "a")
	assert.NotContains(t, ids(table.Products), "a")
	assert.Equal(t, int64(1), dash.Stats.TotalProducts)
	assert.True(t, detail.NotFound())
}

func TestProductDetail_StockChangedKeepsOtherFields(t *testing.T) {
	p := product("a", 5)
	p.Name = "Original"
	v := NewProductDetail(&p)

	changed := product("a", 1)
	changed.Name = "Renamed"
	v = v.Apply(ev(changed, domain.ActionStockChanged))

	assert.Equal(t, 1, v.Product.Stock)
	assert.Equal(t, "Original", v.Product.Name)
	assert.Equal(t, 5, p.Stock, "held product must not be mutated")

	v = v.Apply(ev(changed, domain.ActionUpdated))
	assert.Equal(t, "Renamed", v.Product.Name)
}

func TestProductDetail_LateEventsAfterDelete(t *testing.T) {
	list := []domain.Product{product("a", 5)}
	p := product("a", 5)

	detail := NewProductDetail(&p).Apply(ev(p, domain.ActionDeleted))
	catalog := CatalogList{Products: list}.Apply(ev(p, domain.ActionDeleted))

	for _, a := range []domain.InventoryAction{domain.ActionUpdated, domain.ActionStockChanged} {
		late := ev(product("a", 9), a)
		assert.True(t, detail.Apply(late).NotFound(), string(a))
		assert.Empty(t, catalog.Apply(late).Products, string(a))
	}

	recreated := detail.Apply(ev(product("a", 2), domain.ActionCreated))
	require.False(t, recreated.NotFound())
	assert.Equal(t, 2, recreated.Product.Stock)
}

func TestProductDetail_NotLoaded(t *testing.T) {
	v := ProductDetail{ID: "a"}
	v = v.Apply(ev(product("a", 1), domain.ActionUpdated))
	assert.True(t, v.NotFound())
}

func TestInventoryTable_SummaryAndBanner(t *testing.T) {
	v := InventoryTable{Products: []domain.Product{product("a", 0), product("b", 5), product("c", 40)}}

	s := v.Summary()
	assert.Equal(t, InventorySummary{LowStock: 2, OutOfStock: 1, TotalStock: 45}, s)
	assert.Nil(t, v.LastUpdate)

	v = v.Apply(ev(product("c", 4), domain.ActionStockChanged))
	require.NotNil(t, v.LastUpdate)
	assert.Equal(t, "Product c", v.LastUpdate.ProductName)
	assert.Equal(t, domain.ActionStockChanged, v.LastUpdate.Action)
	assert.Equal(t, InventorySummary{LowStock: 3, OutOfStock: 1, TotalStock: 9}, v.Summary())

	before := v
	v = v.Apply(ev(product("c", 0), "archived"))
	assert.Equal(t, before, v)
}

func TestDashboard_Recount(t *testing.T) {
	d := NewDashboard(domain.OrderStats{TotalOrders: 9, TotalProducts: 100, LowStockProducts: 100},
		[]domain.Product{product("a", 10), product("b", 3)})
	assert.Equal(t, int64(2), d.Stats.TotalProducts)
	assert.Equal(t, int64(1), d.Stats.LowStockProducts)

	d = d.Apply(ev(product("a", 2), domain.ActionStockChanged))
	assert.Equal(t, int64(2), d.Stats.LowStockProducts)
	assert.Equal(t, int64(9), d.Stats.TotalOrders)
}

// An admin creates TEST-1 while two tabs (one of them the admin's own) hold the
// catalog; duplicated delivery still yields exactly one entry per tab.
func TestCatalog_CreatedOnceAcrossTabs(t *testing.T) {
	base := []domain.Product{product("a", 5)}
	created := product("t1", 10)
	created.SKU = "TEST-1"
	e := ev(created, domain.ActionCreated)

	tabs := []CatalogList{{Products: base}, {Products: base}}
	for i := range tabs {
		tabs[i] = tabs[i].Apply(e)
	}
	tabs[1] = tabs[1].Apply(e)

	for _, tab := range tabs {
		n := 0
		for _, p := range tab.Products {
			if p.SKU == "TEST-1" {
				n++
			}
		}
		assert.Equal(t, 1, n)
		assert.Len(t, tab.Products, 2)
	}
}
