package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"backoffice/internal/domain"
	"backoffice/internal/dto"
	apperrors "backoffice/internal/errors"
	"backoffice/internal/middleware"
	"backoffice/internal/order/service"
	"backoffice/internal/order/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockOrderUseCase struct {
	createOrderFunc func(ctx context.Context, actor domain.Actor, customerID int64, notes *string, lines []usecase.NewOrderLine) (*domain.Order, []domain.OrderLine, error)
	getOrderFunc    func(ctx context.Context, id int64) (*domain.Order, []domain.OrderLine, error)
	listOrdersFunc  func(ctx context.Context, status string) ([]domain.Order, error)
	softDeleteFunc  func(ctx context.Context, id int64, actor domain.Actor) error
	approveFunc     func(ctx context.Context, orderID int64, actor domain.Actor) (*service.TransitionResult, error)
	rejectFunc      func(ctx context.Context, orderID int64, actor domain.Actor, reason string) (*service.TransitionResult, error)
	cancelFunc      func(ctx context.Context, orderID int64, actor domain.Actor) (*service.TransitionResult, error)
	appealFunc      func(ctx context.Context, orderID int64, actor domain.Actor, reason string) (*service.TransitionResult, error)
}

func (m *mockOrderUseCase) CreateOrder(ctx context.Context, actor domain.Actor, customerID int64, notes *string, lines []usecase.NewOrderLine) (*domain.Order, []domain.OrderLine, error) {
	return m.createOrderFunc(ctx, actor, customerID, notes, lines)
}

func (m *mockOrderUseCase) GetOrder(ctx context.Context, id int64) (*domain.Order, []domain.OrderLine, error) {
	return m.getOrderFunc(ctx, id)
}

func (m *mockOrderUseCase) ListOrders(ctx context.Context, status string) ([]domain.Order, error) {
	return m.listOrdersFunc(ctx, status)
}

func (m *mockOrderUseCase) SoftDeleteOrder(ctx context.Context, id int64, actor domain.Actor) error {
	return m.softDeleteFunc(ctx, id, actor)
}

func (m *mockOrderUseCase) Approve(ctx context.Context, orderID int64, actor domain.Actor) (*service.TransitionResult, error) {
	return m.approveFunc(ctx, orderID, actor)
}

func (m *mockOrderUseCase) Reject(ctx context.Context, orderID int64, actor domain.Actor, reason string) (*service.TransitionResult, error) {
	return m.rejectFunc(ctx, orderID, actor, reason)
}

func (m *mockOrderUseCase) Cancel(ctx context.Context, orderID int64, actor domain.Actor) (*service.TransitionResult, error) {
	return m.cancelFunc(ctx, orderID, actor)
}

func (m *mockOrderUseCase) Appeal(ctx context.Context, orderID int64, actor domain.Actor, reason string) (*service.TransitionResult, error) {
	return m.appealFunc(ctx, orderID, actor, reason)
}

func newTestRouter(uc OrderUseCase) *chi.Mux {
	c := NewOrderController(uc, zap.NewNop())

	r := chi.NewRouter()
	r.Post("/orders", c.Create)
	r.Get("/orders", c.List)
	r.Get("/orders/{orderId}", c.Get)
	r.Delete("/orders/{orderId}", c.Delete)
	r.Post("/orders/{orderId}/approve", c.Approve)
	r.Post("/orders/{orderId}/reject", c.Reject)
	r.Post("/orders/{orderId}/cancel", c.Cancel)
	r.Post("/orders/{orderId}/appeal", c.Appeal)
	return r
}

func doRequest(router http.Handler, method, path string, body []byte, actor *domain.Actor) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if actor != nil {
		req = req.WithContext(middleware.WithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestOrderController_Approve_Success(t *testing.T) {
	uc := &mockOrderUseCase{
		approveFunc: func(ctx context.Context, orderID int64, actor domain.Actor) (*service.TransitionResult, error) {
			return &service.TransitionResult{
				Order: &domain.Order{ID: orderID, OrderNumber: "ORD-20260901-0001", Status: domain.OrderStatusApproved},
				Invoice: &domain.Invoice{
					ID: 9, InvoiceNumber: "INV-20260901-0001",
					OrderID: orderID, Status: domain.InvoiceStatusAwaitingPayment,
				},
			}, nil
		},
	}

	actor := domain.Actor{ID: 100, Role: domain.RoleSales}
	rec := doRequest(newTestRouter(uc), http.MethodPost, "/orders/1/approve", nil, &actor)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.TransitionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.TraceID)
	assert.Equal(t, domain.OrderStatusApproved, resp.Order.Status)
	require.NotNil(t, resp.Invoice)
	assert.Equal(t, "INV-20260901-0001", resp.Invoice.InvoiceNumber)
	assert.Empty(t, resp.Warnings)
}

func TestOrderController_Approve_WarningsPassedThrough(t *testing.T) {
	uc := &mockOrderUseCase{
		approveFunc: func(ctx context.Context, orderID int64, actor domain.Actor) (*service.TransitionResult, error) {
			return &service.TransitionResult{
				Order:    &domain.Order{ID: orderID, Status: domain.OrderStatusApproved},
				Warnings: []string{"invoice emission failed, retry manually: timeout"},
			}, nil
		},
	}

	actor := domain.Actor{ID: 100, Role: domain.RoleSales}
	rec := doRequest(newTestRouter(uc), http.MethodPost, "/orders/1/approve", nil, &actor)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.TransitionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Invoice)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "invoice emission failed")
}

func TestOrderController_Approve_NoActor(t *testing.T) {
	rec := doRequest(newTestRouter(&mockOrderUseCase{}), http.MethodPost, "/orders/1/approve", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOrderController_Reject_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid transition", apperrors.NewInvalidTransitionError("cancelled", "rejected"), http.StatusConflict, "INVALID_TRANSITION"},
		{"not found", apperrors.NewNotFoundError("order with id 1 not found"), http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", apperrors.NewUnauthorizedError("staff role required"), http.StatusForbidden, "FORBIDDEN"},
		{"insufficient stock", apperrors.NewInsufficientStockError(10, 1, 5), http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK"},
		{"deadlock", apperrors.NewDeadlockError("max transition retries exceeded"), http.StatusConflict, "DEADLOCK"},
		{"validation", apperrors.NewValidationError("rejection reason is required"), http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	actor := domain.Actor{ID: 100, Role: domain.RoleSales}
	body := []byte(`{"reason":"whatever"}`)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockOrderUseCase{
				rejectFunc: func(ctx context.Context, orderID int64, actor domain.Actor, reason string) (*service.TransitionResult, error) {
					return nil, tt.err
				},
			}

			rec := doRequest(newTestRouter(uc), http.MethodPost, "/orders/1/reject", body, &actor)
			require.Equal(t, tt.wantStatus, rec.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotEmpty(t, resp.TraceID)
		})
	}
}

func TestOrderController_Reject_PassesReason(t *testing.T) {
	var gotReason string
	uc := &mockOrderUseCase{
		rejectFunc: func(ctx context.Context, orderID int64, actor domain.Actor, reason string) (*service.TransitionResult, error) {
			gotReason = reason
			return &service.TransitionResult{Order: &domain.Order{ID: orderID, Status: domain.OrderStatusRejected}}, nil
		},
	}

	actor := domain.Actor{ID: 100, Role: domain.RoleAdmin}
	rec := doRequest(newTestRouter(uc), http.MethodPost, "/orders/1/reject", []byte(`{"reason":"out of season"}`), &actor)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "out of season", gotReason)
}

func TestOrderController_Create(t *testing.T) {
	uc := &mockOrderUseCase{
		createOrderFunc: func(ctx context.Context, actor domain.Actor, customerID int64, notes *string, lines []usecase.NewOrderLine) (*domain.Order, []domain.OrderLine, error) {
			return &domain.Order{ID: 1, OrderNumber: "ORD-20260901-0001", CustomerID: customerID, Status: domain.OrderStatusPending},
				[]domain.OrderLine{{ID: 1, OrderID: 1, StockItemID: 10, Quantity: 2, UnitPrice: 5, LineTotal: 10}}, nil
		},
	}

	actor := domain.Actor{ID: 100, Role: domain.RoleSales}
	body := []byte(`{"customerId":7,"lines":[{"stockItemId":10,"quantity":2,"unitPrice":5}]}`)

	rec := doRequest(newTestRouter(uc), http.MethodPost, "/orders", body, &actor)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp dto.OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ORD-20260901-0001", resp.OrderNumber)
	require.Len(t, resp.Lines, 1)
}

func TestOrderController_Create_MissingCustomer(t *testing.T) {
	actor := domain.Actor{ID: 100, Role: domain.RoleSales}
	rec := doRequest(newTestRouter(&mockOrderUseCase{}), http.MethodPost, "/orders", []byte(`{"lines":[]}`), &actor)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderController_BadOrderID(t *testing.T) {
	actor := domain.Actor{ID: 100, Role: domain.RoleSales}
	rec := doRequest(newTestRouter(&mockOrderUseCase{}), http.MethodPost, "/orders/abc/approve", nil, &actor)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderController_Delete(t *testing.T) {
	deletedID := int64(0)
	uc := &mockOrderUseCase{
		softDeleteFunc: func(ctx context.Context, id int64, actor domain.Actor) error {
			deletedID = id
			return nil
		},
	}

	actor := domain.Actor{ID: 101, Role: domain.RoleAdmin}
	rec := doRequest(newTestRouter(uc), http.MethodDelete, "/orders/5", nil, &actor)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(5), deletedID)
}
