package service

import "fmt"

type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemPreparing ItemStatus = "preparing"
	ItemReady     ItemStatus = "ready"
	ItemDelivered ItemStatus = "delivered"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case ItemPending, ItemPreparing, ItemReady, ItemDelivered:
		return true
	}
	return false
}

func ParseItemStatus(s string) (ItemStatus, error) {
	st := ItemStatus(s)
	if !st.Valid() {
		return "", newValidationError(fmt.Sprintf("unknown item status %q", s))
	}
	return st, nil
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// DeriveOrderStatus classifies an order from its item statuses:
// all delivered -> completed, all ready or delivered -> ready,
// any preparing -> preparing, otherwise pending.
// An order without items is pending. Cancelled is never derived.
func DeriveOrderStatus(items []ItemStatus) OrderStatus {
	if len(items) == 0 {
		return OrderPending
	}

	allDelivered, allServed, anyPreparing := true, true, false
	for _, s := range items {
		if s != ItemDelivered {
			allDelivered = false
		}
		if s != ItemReady && s != ItemDelivered {
			allServed = false
		}
		if s == ItemPreparing {
			anyPreparing = true
		}
	}

	switch {
	case allDelivered:
		return OrderCompleted
	case allServed:
		return OrderReady
	case anyPreparing:
		return OrderPreparing
	default:
		return OrderPending
	}
}
