package domain

import "time"

type StockItem struct {
	ID             int64
	Name           string
	QuantityOnHand int
	MinLevel       int
	MaxLevel       int
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CanSatisfy reports whether the item has enough stock on hand for the
// requested quantity.
func (s StockItem) CanSatisfy(quantity int) bool {
	return s.QuantityOnHand >= quantity
}
