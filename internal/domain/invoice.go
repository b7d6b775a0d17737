package domain

import (
	"fmt"
	"time"
)

type Invoice struct {
	ID               int64
	InvoiceNumber    string
	OrderID          int64
	Status           string
	TotalAmount      float64
	RemainingBalance float64
	IssuedAt         time.Time
	DueDate          time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Invoice lifecycle is owned by the payment subsystem once the invoice is
// emitted; only the initial status is ever set here.
const (
	InvoiceStatusAwaitingPayment = "awaiting_payment"
	InvoiceStatusPartiallyPaid   = "partially_paid"
	InvoiceStatusCompleted       = "completed"
	InvoiceStatusRejected        = "rejected"
	InvoiceStatusOverdue         = "overdue"
)

type InvoiceLine struct {
	ID          int64
	InvoiceID   int64
	StockItemID int64
	Quantity    int
	UnitPrice   float64
	LineTotal   float64
}

// DocumentNumber builds a human-readable document number such as
// ORD-20260901-0042 or INV-20260901-0042.
func DocumentNumber(prefix string, date time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, date.Format("20060102"), seq)
}
