package domain

type InventoryAction string

const (
	ActionCreated      InventoryAction = "created"
	ActionUpdated      InventoryAction = "updated"
	ActionDeleted      InventoryAction = "deleted"
	ActionStockChanged InventoryAction = "stock-changed"
)

// Known reports whether consumers should act on the action. Unknown actions are no-ops.
func (a InventoryAction) Known() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted, ActionStockChanged:
		return true
	}
	return false
}

// InventoryEvent is broadcast once to every connected session and never stored.
type InventoryEvent struct {
	Product Product         `json:"product"`
	Action  InventoryAction `json:"action"`
}

func NewInventoryEvent(p Product, action InventoryAction) InventoryEvent {
	return InventoryEvent{Product: p, Action: action}
}
