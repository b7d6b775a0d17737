package dto

import (
	"time"

	"backoffice/internal/domain"
)

type CreateOrderRequest struct {
	CustomerID int64                    `json:"customerId"`
	Notes      *string                  `json:"notes,omitempty"`
	Lines      []CreateOrderLineRequest `json:"lines"`
}

type CreateOrderLineRequest struct {
	StockItemID int64   `json:"stockItemId"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

type OrderResponse struct {
	ID              int64               `json:"id"`
	OrderNumber     string              `json:"orderNumber"`
	CustomerID      int64               `json:"customerId"`
	StaffID         int64               `json:"staffId"`
	Status          string              `json:"status"`
	TotalAmount     float64             `json:"totalAmount"`
	Notes           *string             `json:"notes,omitempty"`
	RejectionReason *string             `json:"rejectionReason,omitempty"`
	OrderDate       time.Time           `json:"orderDate"`
	Lines           []OrderLineResponse `json:"lines,omitempty"`
}

type OrderLineResponse struct {
	ID          int64   `json:"id"`
	StockItemID int64   `json:"stockItemId"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	LineTotal   float64 `json:"lineTotal"`
}

type InvoiceResponse struct {
	ID               int64     `json:"id"`
	InvoiceNumber    string    `json:"invoiceNumber"`
	OrderID          int64     `json:"orderId"`
	Status           string    `json:"status"`
	TotalAmount      float64   `json:"totalAmount"`
	RemainingBalance float64   `json:"remainingBalance"`
	IssuedAt         time.Time `json:"issuedAt"`
	DueDate          time.Time `json:"dueDate"`
}

type TransitionResponse struct {
	TraceID   string           `json:"traceId"`
	Order     OrderResponse    `json:"order"`
	Invoice   *InvoiceResponse `json:"invoice,omitempty"`
	Warnings  []string         `json:"warnings,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

func NewOrderResponse(order *domain.Order, lines []domain.OrderLine) OrderResponse {
	resp := OrderResponse{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.CustomerID,
		StaffID:         order.StaffID,
		Status:          order.Status,
		TotalAmount:     order.TotalAmount,
		Notes:           order.Notes,
		RejectionReason: order.RejectionReason,
		OrderDate:       order.OrderDate,
	}
	for _, line := range lines {
		resp.Lines = append(resp.Lines, OrderLineResponse{
			ID:          line.ID,
			StockItemID: line.StockItemID,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
		})
	}
	return resp
}

func NewInvoiceResponse(inv *domain.Invoice) *InvoiceResponse {
	if inv == nil {
		return nil
	}
	return &InvoiceResponse{
		ID:               inv.ID,
		InvoiceNumber:    inv.InvoiceNumber,
		OrderID:          inv.OrderID,
		Status:           inv.Status,
		TotalAmount:      inv.TotalAmount,
		RemainingBalance: inv.RemainingBalance,
		IssuedAt:         inv.IssuedAt,
		DueDate:          inv.DueDate,
	}
}
