package reconcile

import "cartify/internal/domain"

// CatalogList is the storefront product grid for one filter.
type CatalogList struct {
	Products []domain.Product
}

func (v CatalogList) Apply(ev domain.InventoryEvent) CatalogList {
	return CatalogList{Products: ApplyToList(v.Products, ev)}
}

// ProductDetail tracks a single product page. Events for other ids are ignored.
type ProductDetail struct {
	ID      string
	Product *domain.Product
	Deleted bool
}

func NewProductDetail(p *domain.Product) ProductDetail {
	return ProductDetail{ID: p.ID, Product: p}
}

// NotFound reports whether the page should fall back to "not found".
func (v ProductDetail) NotFound() bool {
	return v.Product == nil || v.Deleted
}

// Apply follows the list rules for one id: once deleted, only a created event
// brings the product back.
func (v ProductDetail) Apply(ev domain.InventoryEvent) ProductDetail {
	if ev.Product.ID != v.ID || v.Product == nil {
		return v
	}

	switch ev.Action {
	case domain.ActionStockChanged:
		if v.Deleted {
			return v
		}
		p := *v.Product
		p.Stock = ev.Product.Stock
		v.Product = &p
	case domain.ActionUpdated:
		if v.Deleted {
			return v
		}
		p := ev.Product
		v.Product = &p
	case domain.ActionCreated:
		p := ev.Product
		v.Product = &p
		v.Deleted = false
	case domain.ActionDeleted:
		v.Deleted = true
	}
	return v
}

// LastUpdate is the admin banner describing the most recent applied event.
type LastUpdate struct {
	ProductName string
	Action      domain.InventoryAction
}

// InventoryTable is the admin stock table over the whole catalog.
type InventoryTable struct {
	Products   []domain.Product
	LastUpdate *LastUpdate
}

func (v InventoryTable) Apply(ev domain.InventoryEvent) InventoryTable {
	if !ev.Action.Known() {
		return v
	}
	if ev.Action != domain.ActionCreated && indexOf(v.Products, ev.Product.ID) < 0 {
		return v
	}
	return InventoryTable{
		Products:   ApplyToList(v.Products, ev),
		LastUpdate: &LastUpdate{ProductName: ev.Product.Name, Action: ev.Action},
	}
}

type InventorySummary struct {
	LowStock   int
	OutOfStock int
	TotalStock int
}

func (v InventoryTable) Summary() InventorySummary {
	var s InventorySummary
	for _, p := range v.Products {
		if p.LowStock() {
			s.LowStock++
		}
		if p.Stock == 0 {
			s.OutOfStock++
		}
		s.TotalStock += p.Stock
	}
	return s
}

// Dashboard keeps the admin stats current. Product totals are derived from a
// stock index so repeated events cannot drift the counters.
type Dashboard struct {
	Stats domain.OrderStats
	stock map[string]int
}

func NewDashboard(stats domain.OrderStats, products []domain.Product) Dashboard {
	idx := make(map[string]int, len(products))
	for _, p := range products {
		idx[p.ID] = p.Stock
	}
	d := Dashboard{Stats: stats, stock: idx}
	d.recount()
	return d
}

func (d Dashboard) Apply(ev domain.InventoryEvent) Dashboard {
	_, present := d.stock[ev.Product.ID]

	switch ev.Action {
	case domain.ActionCreated:
	case domain.ActionUpdated, domain.ActionStockChanged, domain.ActionDeleted:
		if !present {
			return d
		}
	default:
		return d
	}

	idx := make(map[string]int, len(d.stock)+1)
	for id, n := range d.stock {
		idx[id] = n
	}
	if ev.Action == domain.ActionDeleted {
		delete(idx, ev.Product.ID)
	} else {
		idx[ev.Product.ID] = ev.Product.Stock
	}

	out := Dashboard{Stats: d.Stats, stock: idx}
	out.recount()
	return out
}

func (d *Dashboard) recount() {
	d.Stats.TotalProducts = int64(len(d.stock))
	var low int64
	for _, n := range d.stock {
		if n <= domain.LowStockThreshold {
			low++
		}
	}
	d.Stats.LowStockProducts = low
}

var (
	_ View[CatalogList]    = CatalogList{}
	_ View[ProductDetail]  = ProductDetail{}
	_ View[InventoryTable] = InventoryTable{}
	_ View[Dashboard]      = Dashboard{}
)
