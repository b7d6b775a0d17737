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

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationService interface {
	ReplyToAppeal(ctx context.Context, notificationID int64, replyText string, actor domain.Actor) (*domain.Notification, error)
	ListCustomerFeed(ctx context.Context, customerID int64, actor domain.Actor) ([]domain.Notification, error)
	ListStaffFeed(ctx context.Context, actor domain.Actor) ([]domain.Notification, error)
	MarkRead(ctx context.Context, notificationID int64, audience string, actor domain.Actor) error
}

type NotificationController struct {
	service NotificationService
	logger  *zap.Logger
}

func NewNotificationController(service NotificationService, logger *zap.Logger) *NotificationController {
	return &NotificationController{
		service: service,
		logger:  logger,
	}
}

func (c *NotificationController) Reply(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		c.writeError(w, traceID, http.StatusUnauthorized, "UNAUTHORIZED", "no actor in context")
		return
	}

	notificationID, ok := c.notificationIDFromPath(w, r, traceID)
	if !ok {
		return
	}

	var req dto.ReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeError(w, traceID, http.StatusBadRequest, "VALIDATION_ERROR", "request body must be valid JSON")
		return
	}
	if req.Message == "" {
		c.writeError(w, traceID, http.StatusBadRequest, "VALIDATION_ERROR", "message is required")
		return
	}

	reply, err := c.service.ReplyToAppeal(r.Context(), notificationID, req.Message, actor)
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusCreated, dto.NewNotificationResponse(reply))
}

func (c *NotificationController) ListStaff(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		c.writeError(w, traceID, http.StatusUnauthorized, "UNAUTHORIZED", "no actor in context")
		return
	}

	notifications, err := c.service.ListStaffFeed(r.Context(), actor)
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.NewNotificationListResponse(notifications))
}

func (c *NotificationController) ListCustomer(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		c.writeError(w, traceID, http.StatusUnauthorized, "UNAUTHORIZED", "no actor in context")
		return
	}

	customerIDStr := chi.URLParam(r, "customerId")
	customerID, err := strconv.ParseInt(customerIDStr, 10, 64)
	if err != nil || customerID <= 0 {
		c.writeError(w, traceID, http.StatusBadRequest, "VALIDATION_ERROR", "customerId must be a positive integer")
		return
	}

	notifications, err := c.service.ListCustomerFeed(r.Context(), customerID, actor)
	if err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.NewNotificationListResponse(notifications))
}

func (c *NotificationController) MarkRead(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		c.writeError(w, traceID, http.StatusUnauthorized, "UNAUTHORIZED", "no actor in context")
		return
	}

	notificationID, ok := c.notificationIDFromPath(w, r, traceID)
	if !ok {
		return
	}

	var req dto.MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeError(w, traceID, http.StatusBadRequest, "VALIDATION_ERROR", "request body must be valid JSON")
		return
	}

	if err := c.service.MarkRead(r.Context(), notificationID, req.Audience, actor); err != nil {
		c.handleError(w, traceID, err, logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *NotificationController) notificationIDFromPath(w http.ResponseWriter, r *http.Request, traceID string) (int64, bool) {
	idStr := chi.URLParam(r, "notificationId")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		c.writeError(w, traceID, http.StatusBadRequest, "VALIDATION_ERROR", "notificationId must be a positive integer")
		return 0, false
	}
	return id, true
}

func (c *NotificationController) handleError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
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
	if _, ok := apperrors.IsNotAnAppealError(err); ok {
		c.writeError(w, traceID, http.StatusConflict, "NOT_AN_APPEAL", err.Error())
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	c.writeError(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred")
}

func (c *NotificationController) writeError(w http.ResponseWriter, traceID string, status int, code, message string) {
	c.writeJSON(w, status, dto.ErrorResponse{
		TraceID:   traceID,
		Status:    status,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

func (c *NotificationController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
