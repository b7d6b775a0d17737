package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/domain"
	apperrors "backoffice/internal/errors"
	"backoffice/internal/infrastructure/mysql"

	gomysql "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

type InvoiceRepository interface {
	FindByOrderID(ctx context.Context, tx mysql.Tx, orderID int64) (*domain.Invoice, error)
	NextSequence(ctx context.Context, tx mysql.Tx, date time.Time) (int, error)
	Insert(ctx context.Context, tx mysql.Tx, inv *domain.Invoice, lines []domain.InvoiceLine) (*domain.Invoice, error)
}

type OrderSource interface {
	FindByIDForUpdate(ctx context.Context, tx mysql.Tx, id int64) (*domain.Order, error)
	FindLinesTx(ctx context.Context, tx mysql.Tx, orderID int64) ([]domain.OrderLine, error)
}

// Emitter creates at most one invoice per approved order. It runs in its
// own transaction: emission is a best-effort follow-up to approval, not
// part of the approval's transactional boundary.
type Emitter struct {
	db          mysql.TxBeginner
	invoiceRepo InvoiceRepository
	orderRepo   OrderSource
	logger      *zap.Logger
	dueDays     int
	txTimeout   time.Duration
	now         func() time.Time
}

func NewEmitter(db mysql.TxBeginner, invoiceRepo InvoiceRepository, orderRepo OrderSource, logger *zap.Logger, dueDays int, txTimeout time.Duration) *Emitter {
	return &Emitter{
		db:          db,
		invoiceRepo: invoiceRepo,
		orderRepo:   orderRepo,
		logger:      logger,
		dueDays:     dueDays,
		txTimeout:   txTimeout,
		now:         time.Now,
	}
}

// Emit is safe to retry: a second call for the same order observes the
// existing invoice and fails with InvoiceExistsError without side effects.
func (e *Emitter) Emit(ctx context.Context, orderID int64) (*domain.Invoice, error) {
	txCtx, cancel := context.WithTimeout(ctx, e.txTimeout)
	defer cancel()

	tx, err := e.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, apperrors.NewInternalError("beginning invoice transaction", err)
	}
	defer tx.Rollback()

	// The order row lock serializes concurrent emissions for one order.
	order, err := e.orderRepo.FindByIDForUpdate(txCtx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != domain.OrderStatusApproved {
		return nil, apperrors.NewInvalidTransitionError(order.Status, domain.OrderStatusApproved)
	}

	existing, err := e.invoiceRepo.FindByOrderID(txCtx, tx, order.ID)
	if err == nil {
		return nil, apperrors.NewInvoiceExistsError(order.ID, existing.InvoiceNumber)
	}
	if _, ok := apperrors.IsNotFoundError(err); !ok {
		return nil, err
	}

	orderLines, err := e.orderRepo.FindLinesTx(txCtx, tx, order.ID)
	if err != nil {
		return nil, err
	}

	issuedAt := e.now()
	seq, err := e.invoiceRepo.NextSequence(txCtx, tx, issuedAt)
	if err != nil {
		return nil, err
	}

	inv := &domain.Invoice{
		OrderID:          order.ID,
		Status:           domain.InvoiceStatusAwaitingPayment,
		TotalAmount:      order.TotalAmount,
		RemainingBalance: order.TotalAmount,
		IssuedAt:         issuedAt,
		DueDate:          issuedAt.AddDate(0, 0, e.dueDays),
	}

	// Snapshot copies: later order edits must not alter a billed invoice.
	lines := make([]domain.InvoiceLine, len(orderLines))
	for i, ol := range orderLines {
		lines[i] = domain.InvoiceLine{
			StockItemID: ol.StockItemID,
			Quantity:    ol.Quantity,
			UnitPrice:   ol.UnitPrice,
			LineTotal:   ol.LineTotal,
		}
	}

	// A concurrent emission for a different same-day order can take the
	// computed number first; move to the next sequence and try again.
	var created *domain.Invoice
	for attempt := 0; attempt < 3; attempt++ {
		inv.InvoiceNumber = domain.DocumentNumber("INV", issuedAt, seq+attempt)

		created, err = e.invoiceRepo.Insert(txCtx, tx, inv, lines)
		if err == nil {
			break
		}
		if !isDuplicateEntry(err) {
			return nil, err
		}
		created = nil
	}
	if created == nil {
		return nil, fmt.Errorf("inserting invoice: could not assign a unique invoice number")
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewInternalError("committing invoice transaction", err)
	}

	e.logger.Info("invoice emitted",
		zap.Int64("orderId", order.ID),
		zap.String("invoiceNumber", created.InvoiceNumber),
		zap.Float64("totalAmount", created.TotalAmount))

	return created, nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
