// Package reconcile merges inventory events into locally held views. Every merge
// is pure and idempotent, so a view tolerates duplicated, late and out-of-order
// events as well as fetch responses that race with them.
package reconcile

import "cartify/internal/domain"

// View is a client-held model that can absorb an inventory event.
type View[V any] interface {
	Apply(ev domain.InventoryEvent) V
}

func indexOf(list []domain.Product, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// ApplyToList returns list with ev merged in. The input slice is never modified.
//
//	created                 prepend when absent, replace when present
//	updated, stock-changed  replace when present, ignore otherwise
//	deleted                 remove when present
func ApplyToList(list []domain.Product, ev domain.InventoryEvent) []domain.Product {
	i := indexOf(list, ev.Product.ID)

	switch ev.Action {
	case domain.ActionCreated:
		if i < 0 {
			out := make([]domain.Product, 0, len(list)+1)
			out = append(out, ev.Product)
			return append(out, list...)
		}
		return replaceAt(list, i, ev.Product)
	case domain.ActionUpdated, domain.ActionStockChanged:
		if i < 0 {
			return list
		}
		return replaceAt(list, i, ev.Product)
	case domain.ActionDeleted:
		if i < 0 {
			return list
		}
		out := make([]domain.Product, 0, len(list)-1)
		out = append(out, list[:i]...)
		return append(out, list[i+1:]...)
	}
	return list
}

func replaceAt(list []domain.Product, i int, p domain.Product) []domain.Product {
	out := make([]domain.Product, len(list))
	copy(out, list)
	out[i] = p
	return out
}
