package service

import (
	"context"
	"fmt"

	"backoffice/internal/domain"
	"backoffice/internal/errors"
	"backoffice/internal/infrastructure/mysql"

	"go.uber.org/zap"
)

type NotificationRepository interface {
	Insert(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	InsertTx(ctx context.Context, tx mysql.Tx, n *domain.Notification) (*domain.Notification, error)
	FindByID(ctx context.Context, id int64) (*domain.Notification, error)
	MarkAdminReadTx(ctx context.Context, tx mysql.Tx, id int64) error
	MarkRead(ctx context.Context, id int64, audience string) error
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.Notification, error)
	ListStaff(ctx context.Context) ([]domain.Notification, error)
}

type CustomerRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Customer, error)
}

// Dispatcher produces fire-and-forget notification records. Callers attach
// rejection/approval dispatches to a transition as best-effort follow-ups:
// an error from NotifyRejection is downgraded to a warning, never a rollback.
type Dispatcher struct {
	db               mysql.TxBeginner
	notificationRepo NotificationRepository
	customerRepo     CustomerRepository
	logger           *zap.Logger
}

func NewDispatcher(db mysql.TxBeginner, notificationRepo NotificationRepository, customerRepo CustomerRepository, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		db:               db,
		notificationRepo: notificationRepo,
		customerRepo:     customerRepo,
		logger:           logger,
	}
}

// NotifyRejection emits a customer-addressed order_rejected notification.
func (d *Dispatcher) NotifyRejection(ctx context.Context, order *domain.Order, reason string) error {
	n := &domain.Notification{
		Type:        domain.NotificationTypeOrderRejected,
		Title:       "Order rejected",
		Message:     fmt.Sprintf("Your order %s was rejected: %s", order.OrderNumber, reason),
		CustomerID:  &order.CustomerID,
		OrderID:     &order.ID,
		OrderNumber: order.OrderNumber,
		Reason:      reason,
	}

	if _, err := d.notificationRepo.Insert(ctx, n); err != nil {
		d.logger.Error("failed to dispatch rejection notification",
			zap.Int64("orderId", order.ID), zap.Error(err))
		return err
	}

	d.logger.Info("rejection notification dispatched",
		zap.Int64("orderId", order.ID), zap.String("orderNumber", order.OrderNumber))
	return nil
}

// NotifyAppeal emits a staff-addressed order_appeal notification carrying
// the customer identity. The appeal never changes the order status.
func (d *Dispatcher) NotifyAppeal(ctx context.Context, order *domain.Order, reason string) error {
	customerName := fmt.Sprintf("customer %d", order.CustomerID)
	if customer, err := d.customerRepo.FindByID(ctx, order.CustomerID); err == nil {
		customerName = customer.Name
	}

	n := &domain.Notification{
		Type:        domain.NotificationTypeOrderAppeal,
		Title:       "Order appeal",
		Message:     fmt.Sprintf("%s appealed the rejection of order %s: %s", customerName, order.OrderNumber, reason),
		CustomerID:  &order.CustomerID,
		OrderID:     &order.ID,
		OrderNumber: order.OrderNumber,
		Reason:      reason,
	}

	if _, err := d.notificationRepo.Insert(ctx, n); err != nil {
		d.logger.Error("failed to dispatch appeal notification",
			zap.Int64("orderId", order.ID), zap.Error(err))
		return err
	}

	d.logger.Info("appeal notification dispatched",
		zap.Int64("orderId", order.ID), zap.String("orderNumber", order.OrderNumber))
	return nil
}

// ReplyToAppeal emits a customer-addressed general notification answering
// an appeal and marks the appeal read on the staff side. Both writes share
// one transaction.
func (d *Dispatcher) ReplyToAppeal(ctx context.Context, notificationID int64, replyText string, actor domain.Actor) (*domain.Notification, error) {
	if !actor.IsStaff() {
		return nil, errors.NewUnauthorizedError("only staff may reply to appeals")
	}

	appeal, err := d.notificationRepo.FindByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}

	if appeal.Type != domain.NotificationTypeOrderAppeal {
		return nil, errors.NewNotAnAppealError(appeal.ID, appeal.Type)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternalError("beginning reply transaction", err)
	}
	defer tx.Rollback()

	reply := &domain.Notification{
		Type:        domain.NotificationTypeGeneral,
		Title:       fmt.Sprintf("Reply to your appeal on order %s", appeal.OrderNumber),
		Message:     replyText,
		CustomerID:  appeal.CustomerID,
		OrderID:     appeal.OrderID,
		OrderNumber: appeal.OrderNumber,
		Reason:      appeal.Reason,
	}

	reply, err = d.notificationRepo.InsertTx(ctx, tx, reply)
	if err != nil {
		return nil, err
	}

	if err := d.notificationRepo.MarkAdminReadTx(ctx, tx, appeal.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternalError("committing reply transaction", err)
	}

	d.logger.Info("appeal reply dispatched",
		zap.Int64("appealId", appeal.ID),
		zap.Int64("replyId", reply.ID),
		zap.Int64("staffId", actor.ID))

	return reply, nil
}

func (d *Dispatcher) ListCustomerFeed(ctx context.Context, customerID int64, actor domain.Actor) ([]domain.Notification, error) {
	if !actor.IsStaff() && actor.ID != customerID {
		return nil, errors.NewUnauthorizedError("cannot read another customer's notifications")
	}
	return d.notificationRepo.ListByCustomer(ctx, customerID)
}

func (d *Dispatcher) ListStaffFeed(ctx context.Context, actor domain.Actor) ([]domain.Notification, error) {
	if !actor.IsStaff() {
		return nil, errors.NewUnauthorizedError("staff role required")
	}
	return d.notificationRepo.ListStaff(ctx)
}

func (d *Dispatcher) MarkRead(ctx context.Context, notificationID int64, audience string, actor domain.Actor) error {
	if audience != domain.AudienceCustomer && audience != domain.AudienceStaff {
		return errors.NewValidationError("audience must be customer or staff")
	}
	if audience == domain.AudienceStaff && !actor.IsStaff() {
		return errors.NewUnauthorizedError("staff role required")
	}

	if audience == domain.AudienceCustomer && !actor.IsStaff() {
		n, err := d.notificationRepo.FindByID(ctx, notificationID)
		if err != nil {
			return err
		}
		if n.CustomerID == nil || *n.CustomerID != actor.ID {
			return errors.NewUnauthorizedError("cannot mark another customer's notification")
		}
	}

	return d.notificationRepo.MarkRead(ctx, notificationID, audience)
}
