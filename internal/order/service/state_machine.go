package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"backoffice/internal/domain"
	"backoffice/internal/errors"
	"backoffice/internal/infrastructure/mysql"

	"go.uber.org/zap"
)

type OrderRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	FindByIDForUpdate(ctx context.Context, tx mysql.Tx, id int64) (*domain.Order, error)
	FindLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error)
	UpdateStatus(ctx context.Context, tx mysql.Tx, id int64, status string, rejectionReason *string) error
}

type InventoryLedger interface {
	Reserve(ctx context.Context, tx mysql.Tx, lines []domain.OrderLine) error
	Release(ctx context.Context, tx mysql.Tx, lines []domain.OrderLine) error
}

type InvoiceEmitter interface {
	Emit(ctx context.Context, orderID int64) (*domain.Invoice, error)
}

type NotificationDispatcher interface {
	NotifyRejection(ctx context.Context, order *domain.Order, reason string) error
	NotifyAppeal(ctx context.Context, order *domain.Order, reason string) error
}

// TransitionResult is what a transition hands back to the HTTP layer: the
// updated order, the emitted invoice when approval produced one, and
// warnings for recovered best-effort failures.
type TransitionResult struct {
	Order    *domain.Order
	Invoice  *domain.Invoice
	Warnings []string
}

// StateMachine is the single entry point for order status transitions. The
// status write and the inventory effect share one transaction; invoice
// emission and notifications run after commit as best-effort follow-ups.
type StateMachine struct {
	db         mysql.TxBeginner
	orderRepo  OrderRepository
	ledger     InventoryLedger
	emitter    InvoiceEmitter
	dispatcher NotificationDispatcher
	logger     *zap.Logger
	txTimeout  time.Duration
}

func NewStateMachine(
	db mysql.TxBeginner,
	orderRepo OrderRepository,
	ledger InventoryLedger,
	emitter InvoiceEmitter,
	dispatcher NotificationDispatcher,
	logger *zap.Logger,
	txTimeout time.Duration,
) *StateMachine {
	return &StateMachine{
		db:         db,
		orderRepo:  orderRepo,
		ledger:     ledger,
		emitter:    emitter,
		dispatcher: dispatcher,
		logger:     logger,
		txTimeout:  txTimeout,
	}
}

// Approve moves a pending order to approved: stock is reserved for every
// line (all-or-nothing) and an invoice is emitted afterwards. A failed
// emission leaves the order approved and is reported as a warning.
func (m *StateMachine) Approve(ctx context.Context, orderID int64, actor domain.Actor) (*TransitionResult, error) {
	if !actor.IsStaff() {
		return nil, errors.NewUnauthorizedError("staff role required to approve orders")
	}

	order, err := m.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	alreadyApproved := order.Status == domain.OrderStatusApproved
	if !alreadyApproved && !domain.CanTransition(order.Status, domain.OrderStatusApproved) {
		return nil, errors.NewInvalidTransitionError(order.Status, domain.OrderStatusApproved)
	}

	lines, err := m.orderRepo.FindLines(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errors.NewValidationError("order has no lines to approve")
	}

	if !alreadyApproved {
		reserved, err := m.reserveAndApprove(ctx, orderID, lines)
		if err != nil {
			return nil, err
		}
		// reserved is false when a concurrent approval won the row lock;
		// stock is already committed, fall through to idempotent emission.
		if reserved {
			m.logger.Info("order approved",
				zap.Int64("orderId", orderID),
				zap.String("orderNumber", order.OrderNumber))
		}
	}

	order.Status = domain.OrderStatusApproved
	order.RejectionReason = nil

	result := &TransitionResult{Order: order}

	invoice, err := m.emitter.Emit(ctx, orderID)
	switch {
	case err == nil:
		result.Invoice = invoice
	default:
		if _, ok := errors.IsInvoiceExistsError(err); ok {
			result.Warnings = append(result.Warnings, err.Error())
		} else {
			m.logger.Error("invoice emission failed after approval",
				zap.Int64("orderId", orderID), zap.Error(err))
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("invoice emission failed, retry manually: %v", err))
		}
	}

	return result, nil
}

// reserveAndApprove runs the transactional phase of an approval. It returns
// false without error when the order turned approved under the lock.
func (m *StateMachine) reserveAndApprove(ctx context.Context, orderID int64, lines []domain.OrderLine) (bool, error) {
	txCtx, cancel := context.WithTimeout(ctx, m.txTimeout)
	defer cancel()

	tx, err := m.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return false, errors.NewInternalError("beginning transition transaction", err)
	}
	// MySQL ignores rollback after a successful commit.
	defer tx.Rollback()

	locked, err := m.orderRepo.FindByIDForUpdate(txCtx, tx, orderID)
	if err != nil {
		return false, err
	}

	if locked.Status == domain.OrderStatusApproved {
		return false, nil
	}
	if !domain.CanTransition(locked.Status, domain.OrderStatusApproved) {
		return false, errors.NewInvalidTransitionError(locked.Status, domain.OrderStatusApproved)
	}

	if err := m.ledger.Reserve(txCtx, tx, lines); err != nil {
		return false, err
	}

	if err := m.orderRepo.UpdateStatus(txCtx, tx, orderID, domain.OrderStatusApproved, nil); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, errors.NewInternalError("committing transition transaction", err)
	}

	return true, nil
}

// Reject moves a pending or approved order to rejected. Stock reserved by a
// prior approval is released in the same transaction as the status write.
func (m *StateMachine) Reject(ctx context.Context, orderID int64, actor domain.Actor, reason string) (*TransitionResult, error) {
	if !actor.IsStaff() {
		return nil, errors.NewUnauthorizedError("staff role required to reject orders")
	}
	if reason == "" {
		return nil, errors.NewValidationError("rejection reason is required")
	}

	order, err := m.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(order.Status, domain.OrderStatusRejected) {
		return nil, errors.NewInvalidTransitionError(order.Status, domain.OrderStatusRejected)
	}

	lines, err := m.orderRepo.FindLines(ctx, orderID)
	if err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, m.txTimeout)
	defer cancel()

	tx, err := m.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, errors.NewInternalError("beginning transition transaction", err)
	}
	defer tx.Rollback()

	locked, err := m.orderRepo.FindByIDForUpdate(txCtx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(locked.Status, domain.OrderStatusRejected) {
		return nil, errors.NewInvalidTransitionError(locked.Status, domain.OrderStatusRejected)
	}

	// Nothing was reserved for a pending order, so nothing to release.
	if locked.Status == domain.OrderStatusApproved {
		if err := m.ledger.Release(txCtx, tx, lines); err != nil {
			return nil, err
		}
	}

	if err := m.orderRepo.UpdateStatus(txCtx, tx, orderID, domain.OrderStatusRejected, &reason); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternalError("committing transition transaction", err)
	}

	order.Status = domain.OrderStatusRejected
	order.RejectionReason = &reason

	m.logger.Info("order rejected",
		zap.Int64("orderId", orderID),
		zap.String("orderNumber", order.OrderNumber),
		zap.String("reason", reason))

	result := &TransitionResult{Order: order}

	if err := m.dispatcher.NotifyRejection(ctx, order, reason); err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("rejection notification failed: %v", err))
	}

	return result, nil
}

// Cancel moves a pending (or legacy processing) order to cancelled. Only
// the order's own customer may cancel; stock was never reserved, so there
// is no inventory effect.
func (m *StateMachine) Cancel(ctx context.Context, orderID int64, actor domain.Actor) (*TransitionResult, error) {
	order, err := m.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !actor.Owns(order) {
		return nil, errors.NewUnauthorizedError("only the order's customer may cancel it")
	}

	if !domain.CanTransition(order.Status, domain.OrderStatusCancelled) {
		return nil, errors.NewInvalidTransitionError(order.Status, domain.OrderStatusCancelled)
	}

	txCtx, cancel := context.WithTimeout(ctx, m.txTimeout)
	defer cancel()

	tx, err := m.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, errors.NewInternalError("beginning transition transaction", err)
	}
	defer tx.Rollback()

	locked, err := m.orderRepo.FindByIDForUpdate(txCtx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(locked.Status, domain.OrderStatusCancelled) {
		return nil, errors.NewInvalidTransitionError(locked.Status, domain.OrderStatusCancelled)
	}

	if err := m.orderRepo.UpdateStatus(txCtx, tx, orderID, domain.OrderStatusCancelled, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternalError("committing transition transaction", err)
	}

	order.Status = domain.OrderStatusCancelled

	m.logger.Info("order cancelled",
		zap.Int64("orderId", orderID),
		zap.Int64("customerId", actor.ID))

	return &TransitionResult{Order: order}, nil
}

// Appeal records a customer's request to reconsider a rejected order. It is
// a notification-only side channel: the order stays rejected, and the
// staff-addressed appeal record is the only persisted trace.
func (m *StateMachine) Appeal(ctx context.Context, orderID int64, actor domain.Actor, reason string) (*TransitionResult, error) {
	if reason == "" {
		return nil, errors.NewValidationError("appeal reason is required")
	}

	order, err := m.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !actor.Owns(order) {
		return nil, errors.NewUnauthorizedError("only the order's customer may appeal it")
	}

	if order.Status != domain.OrderStatusRejected {
		return nil, errors.NewInvalidTransitionError(order.Status, "appeal")
	}

	// The appeal notification is the whole operation here, so a dispatch
	// failure fails the appeal rather than degrading to a warning.
	if err := m.dispatcher.NotifyAppeal(ctx, order, reason); err != nil {
		return nil, errors.NewInternalError("recording appeal", err)
	}

	m.logger.Info("order appealed",
		zap.Int64("orderId", orderID),
		zap.Int64("customerId", actor.ID))

	return &TransitionResult{Order: order}, nil
}
