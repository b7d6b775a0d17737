package usecase

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"backoffice/internal/domain"
	apperrors "backoffice/internal/errors"
	"backoffice/internal/order/service"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

type StateMachine interface {
	Approve(ctx context.Context, orderID int64, actor domain.Actor) (*service.TransitionResult, error)
	Reject(ctx context.Context, orderID int64, actor domain.Actor, reason string) (*service.TransitionResult, error)
	Cancel(ctx context.Context, orderID int64, actor domain.Actor) (*service.TransitionResult, error)
	Appeal(ctx context.Context, orderID int64, actor domain.Actor, reason string) (*service.TransitionResult, error)
}

type OrderRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	FindLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error)
	List(ctx context.Context, status string) ([]domain.Order, error)
	Insert(ctx context.Context, order *domain.Order, lines []domain.OrderLine) (*domain.Order, error)
	SoftDelete(ctx context.Context, id int64) error
}

// OrderUseCase is what the HTTP controller talks to. Transitions go through
// the state machine with a deadlock retry; plain order access goes straight
// to the repository.
type OrderUseCase struct {
	machine          StateMachine
	orderRepo        OrderRepository
	logger           *zap.Logger
	maxRetryAttempts int
}

func NewOrderUseCase(machine StateMachine, orderRepo OrderRepository, logger *zap.Logger, maxRetryAttempts int) *OrderUseCase {
	return &OrderUseCase{
		machine:          machine,
		orderRepo:        orderRepo,
		logger:           logger,
		maxRetryAttempts: maxRetryAttempts,
	}
}

type NewOrderLine struct {
	StockItemID int64
	Quantity    int
	UnitPrice   float64
}

// CreateOrder persists a new pending order. Line totals and the order total
// are computed server-side from quantity and unit price.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, actor domain.Actor, customerID int64, notes *string, newLines []NewOrderLine) (*domain.Order, []domain.OrderLine, error) {
	if !actor.IsStaff() {
		return nil, nil, apperrors.NewUnauthorizedError("staff role required to create orders")
	}
	if len(newLines) == 0 {
		return nil, nil, apperrors.NewValidationError("order must have at least one line")
	}

	lines := make([]domain.OrderLine, len(newLines))
	total := 0.0
	for i, nl := range newLines {
		if nl.Quantity < 1 {
			return nil, nil, apperrors.NewValidationError("line quantity must be positive")
		}
		if nl.UnitPrice < 0 {
			return nil, nil, apperrors.NewValidationError("line unit price must be non-negative")
		}
		lineTotal := nl.UnitPrice * float64(nl.Quantity)
		lines[i] = domain.OrderLine{
			StockItemID: nl.StockItemID,
			Quantity:    nl.Quantity,
			UnitPrice:   nl.UnitPrice,
			LineTotal:   lineTotal,
		}
		total += lineTotal
	}

	order := &domain.Order{
		CustomerID:  customerID,
		StaffID:     actor.ID,
		Status:      domain.OrderStatusPending,
		TotalAmount: total,
		Notes:       notes,
		OrderDate:   time.Now(),
	}

	order, err := uc.orderRepo.Insert(ctx, order, lines)
	if err != nil {
		return nil, nil, err
	}

	uc.logger.Info("order created",
		zap.Int64("orderId", order.ID),
		zap.String("orderNumber", order.OrderNumber),
		zap.Int64("customerId", customerID),
		zap.Float64("totalAmount", total))

	return order, lines, nil
}

func (uc *OrderUseCase) GetOrder(ctx context.Context, id int64) (*domain.Order, []domain.OrderLine, error) {
	order, err := uc.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	lines, err := uc.orderRepo.FindLines(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return order, lines, nil
}

func (uc *OrderUseCase) ListOrders(ctx context.Context, status string) ([]domain.Order, error) {
	return uc.orderRepo.List(ctx, status)
}

func (uc *OrderUseCase) SoftDeleteOrder(ctx context.Context, id int64, actor domain.Actor) error {
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewUnauthorizedError("admin role required to delete orders")
	}
	return uc.orderRepo.SoftDelete(ctx, id)
}

func (uc *OrderUseCase) Approve(ctx context.Context, orderID int64, actor domain.Actor) (*service.TransitionResult, error) {
	return uc.withRetry(ctx, orderID, func() (*service.TransitionResult, error) {
		return uc.machine.Approve(ctx, orderID, actor)
	})
}

func (uc *OrderUseCase) Reject(ctx context.Context, orderID int64, actor domain.Actor, reason string) (*service.TransitionResult, error) {
	return uc.withRetry(ctx, orderID, func() (*service.TransitionResult, error) {
		return uc.machine.Reject(ctx, orderID, actor, reason)
	})
}

func (uc *OrderUseCase) Cancel(ctx context.Context, orderID int64, actor domain.Actor) (*service.TransitionResult, error) {
	return uc.withRetry(ctx, orderID, func() (*service.TransitionResult, error) {
		return uc.machine.Cancel(ctx, orderID, actor)
	})
}

func (uc *OrderUseCase) Appeal(ctx context.Context, orderID int64, actor domain.Actor, reason string) (*service.TransitionResult, error) {
	// Appeals take no row locks, so no retry wrapper.
	return uc.machine.Appeal(ctx, orderID, actor, reason)
}

// withRetry re-runs a transition when MySQL reports a deadlock or lock wait
// timeout. Backoff intervals: attempt 1 (0ms), attempt 2 (100ms), attempt 3
// (200ms), each with ±20% jitter.
func (uc *OrderUseCase) withRetry(ctx context.Context, orderID int64, fn func() (*service.TransitionResult, error)) (*service.TransitionResult, error) {
	maxAttempts := uc.maxRetryAttempts

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		if !isDeadlockError(err) {
			return nil, err
		}

		if attempt < maxAttempts {
			uc.logger.Warn("deadlock detected, retrying transition",
				zap.Int("attempt", attempt),
				zap.Int("maxAttempts", maxAttempts),
				zap.Int64("orderId", orderID))
			jitter := time.Duration(float64(backoffFor(attempt)) * (0.8 + rand.Float64()*0.4))
			time.Sleep(jitter)
		}
	}

	return nil, apperrors.NewDeadlockError("max transition retries exceeded")
}

// backoffFor returns the pause before the retry following the given attempt.
// Attempts beyond the table keep the longest pause.
func backoffFor(attempt int) time.Duration {
	backoffs := []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond}
	if attempt > len(backoffs) {
		return backoffs[len(backoffs)-1]
	}
	return backoffs[attempt-1]
}

func isDeadlockError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	return false
}
