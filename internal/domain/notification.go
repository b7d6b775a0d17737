package domain

import "time"

type Notification struct {
	ID          int64
	Type        string
	Title       string
	Message     string
	CustomerID  *int64
	OrderID     *int64
	OrderNumber string
	Reason      string
	IsRead      bool
	AdminIsRead bool
	CreatedAt   time.Time
}

const (
	NotificationTypeOrderRejected = "order_rejected"
	NotificationTypeOrderAppeal   = "order_appeal"
	NotificationTypeGeneral       = "general"
)

// Read-tracking audiences. The same row can be visible to both a customer
// and staff, so each side keeps its own flag.
const (
	AudienceCustomer = "customer"
	AudienceStaff    = "staff"
)
