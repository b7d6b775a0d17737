package dto

import (
	"time"

	"backoffice/internal/domain"
)

type ReplyRequest struct {
	Message string `json:"message"`
}

type MarkReadRequest struct {
	Audience string `json:"audience"`
}

type NotificationResponse struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	CustomerID  *int64    `json:"customerId,omitempty"`
	OrderID     *int64    `json:"orderId,omitempty"`
	OrderNumber string    `json:"orderNumber,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	IsRead      bool      `json:"isRead"`
	AdminIsRead bool      `json:"adminIsRead"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:          n.ID,
		Type:        n.Type,
		Title:       n.Title,
		Message:     n.Message,
		CustomerID:  n.CustomerID,
		OrderID:     n.OrderID,
		OrderNumber: n.OrderNumber,
		Reason:      n.Reason,
		IsRead:      n.IsRead,
		AdminIsRead: n.AdminIsRead,
		CreatedAt:   n.CreatedAt,
	}
}

func NewNotificationListResponse(notifications []domain.Notification) []NotificationResponse {
	out := make([]NotificationResponse, len(notifications))
	for i := range notifications {
		out[i] = NewNotificationResponse(&notifications[i])
	}
	return out
}

type ErrorResponse struct {
	TraceID   string    `json:"traceId"`
	Status    int       `json:"status"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
