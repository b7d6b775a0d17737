package domain

import "time"

type Order struct {
	ID              int64
	OrderNumber     string
	CustomerID      int64
	StaffID         int64
	Status          string
	TotalAmount     float64
	Notes           *string
	RejectionReason *string
	OrderDate       time.Time
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const (
	OrderStatusPending   = "pending"
	OrderStatusApproved  = "approved"
	OrderStatusRejected  = "rejected"
	OrderStatusCancelled = "cancelled"

	// OrderStatusProcessing exists only in rows imported from the legacy
	// system. No transition produces it, but such orders may still be
	// cancelled by their customer.
	OrderStatusProcessing = "processing"
)

// transitionSources maps a target status to the statuses it is reachable
// from. An appeal is not listed here: it never changes the order status.
var transitionSources = map[string][]string{
	OrderStatusApproved:  {OrderStatusPending},
	OrderStatusRejected:  {OrderStatusPending, OrderStatusApproved},
	OrderStatusCancelled: {OrderStatusPending, OrderStatusProcessing},
}

// CanTransition reports whether an order in status from may move to status to.
func CanTransition(from, to string) bool {
	for _, src := range transitionSources[to] {
		if src == from {
			return true
		}
	}
	return false
}

type OrderLine struct {
	ID          int64
	OrderID     int64
	StockItemID int64
	Quantity    int
	UnitPrice   float64
	LineTotal   float64
}
