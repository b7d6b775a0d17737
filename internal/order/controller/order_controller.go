package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"backoffice/internal/domain"
	"backoffice/internal/dto"
	apperrors "backoffice/internal/errors"
	"backoffice/internal/middleware"
	"backoffice/internal/order/service"
	"backoffice/internal/order/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OrderUseCase interface {
	CreateOrder(ctx context.Context, actor domain.Actor, customerID int64, notes *string, lines []usecase.NewOrderLine) (*domain.Order, []domain.OrderLine, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, []domain.OrderLine, error)
	ListOrders(ctx context.Context, status string) ([]domain.Order, error)
	SoftDeleteOrder(ctx context.Context, id int64, actor domain.Actor) error
	Approve(ctx context.Context, orderID int64, actor domain.Actor) (*service.TransitionResult, error)
	Reject(ctx context.Context, orderID int64, actor domain.Actor, reason string) (*service.TransitionResult, error)
	Cancel(ctx context.Context, orderID int64, actor domain.Actor) (*service.TransitionResult, error)
	Appeal(ctx context.Context, orderID int64, actor domain.Actor, reason string) (*service.TransitionResult, error)
}

type OrderController struct {
	useCase OrderUseCase
	logger  *zap.Logger
}

func NewOrderController(useCase OrderUseCase, logger *zap.Logger) *OrderController {
	return &OrderController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		c.writeError(w, traceID, http.StatusUnauthorized, "UNAUTHORIZED", "no actor in context")
		return
	}

	var req dto.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeError(w, traceID, http.StatusBadRequest, "VALIDATION_ERROR", "request body must be valid JSON")
		return
	}

	if req.CustomerID <= 0 {
		c.writeError(w, traceID, http.StatusBadRequest, "VALIDATION_ERROR", "customerId is required")
		return
	}

	lines := make([]usecase.NewOrderLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = usecase.NewOrderLine{
			StockItemID: l.StockItemID,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		}
	}

	order, orderLines, err := c.useCase.CreateOrder(r.Context(), actor, req.CustomerID, req.Notes, lines)
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusCreated, dto.NewOrderResponse(order, orderLines))
}

func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	orderID, ok := c.orderIDFromPath(w, r, traceID)
	if !ok {
		return
	}

	order, lines, err := c.useCase.GetOrder(r.Context(), orderID)
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.NewOrderResponse(order, lines))
}

func (c *OrderController) List(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	orders, err := c.useCase.ListOrders(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	out := make([]dto.OrderResponse, len(orders))
	for i := range orders {
		out[i] = dto.NewOrderResponse(&orders[i], nil)
	}

	c.writeJSON(w, http.StatusOK, out)
}

func (c *OrderController) Delete(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		c.writeError(w, traceID, http.StatusUnauthorized, "UNAUTHORIZED", "no actor in context")
		return
	}

	orderID, ok := c.orderIDFromPath(w, r, traceID)
	if !ok {
		return
	}

	if err := c.useCase.SoftDeleteOrder(r.Context(), orderID, actor); err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *OrderController) Approve(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, func(ctx context.Context, orderID int64, actor domain.Actor, _ string) (*service.TransitionResult, error) {
		return c.useCase.Approve(ctx, orderID, actor)
	}, false)
}

func (c *OrderController) Reject(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.useCase.Reject, true)
}

func (c *OrderController) Cancel(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, func(ctx context.Context, orderID int64, actor domain.Actor, _ string) (*service.TransitionResult, error) {
		return c.useCase.Cancel(ctx, orderID, actor)
	}, false)
}

func (c *OrderController) Appeal(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, c.useCase.Appeal, true)
}

type transitionFunc func(ctx context.Context, orderID int64, actor domain.Actor, reason string) (*service.TransitionResult, error)

func (c *OrderController) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc, needsReason bool) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		c.writeError(w, traceID, http.StatusUnauthorized, "UNAUTHORIZED", "no actor in context")
		return
	}

	orderID, ok := c.orderIDFromPath(w, r, traceID)
	if !ok {
		return
	}

	var reason string
	if needsReason {
		var req dto.ReasonRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Warn("invalid JSON body", zap.Error(err))
			c.writeError(w, traceID, http.StatusBadRequest, "VALIDATION_ERROR", "request body must be valid JSON")
			return
		}
		reason = req.Reason
	}

	result, err := fn(r.Context(), orderID, actor, reason)
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	response := dto.TransitionResponse{
		TraceID:   traceID,
		Order:     dto.NewOrderResponse(result.Order, nil),
		Invoice:   dto.NewInvoiceResponse(result.Invoice),
		Warnings:  result.Warnings,
		Timestamp: time.Now().UTC(),
	}

	c.writeJSON(w, http.StatusOK, response)
}

func (c *OrderController) orderIDFromPath(w http.ResponseWriter, r *http.Request, traceID string) (int64, bool) {
	orderIDStr := chi.URLParam(r, "orderId")
	orderID, err := strconv.ParseInt(orderIDStr, 10, 64)
	if err != nil || orderID <= 0 {
		c.writeError(w, traceID, http.StatusBadRequest, "VALIDATION_ERROR", "orderId must be a positive integer")
		return 0, false
	}
	return orderID, true
}

func (c *OrderController) handleError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		c.writeError(w, traceID, http.StatusBadRequest, "VALIDATION_ERROR", ve.Message)
		return
	}
	if _, ok := apperrors.IsNotFoundError(err); ok {
		c.writeError(w, traceID, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	if _, ok := apperrors.IsUnauthorizedError(err); ok {
		c.writeError(w, traceID, http.StatusForbidden, "FORBIDDEN", err.Error())
		return
	}
	if _, ok := apperrors.IsInvalidTransitionError(err); ok {
		c.writeError(w, traceID, http.StatusConflict, "INVALID_TRANSITION", err.Error())
		return
	}
	if _, ok := apperrors.IsInsufficientStockError(err); ok {
		c.writeError(w, traceID, http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK", err.Error())
		return
	}
	if _, ok := apperrors.IsDeadlockError(err); ok {
		c.writeError(w, traceID, http.StatusConflict, "DEADLOCK", err.Error())
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	c.writeError(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred")
}

func (c *OrderController) writeError(w http.ResponseWriter, traceID string, status int, code, message string) {
	c.writeJSON(w, status, dto.ErrorResponse{
		TraceID:   traceID,
		Status:    status,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

func (c *OrderController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
