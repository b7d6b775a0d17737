package service

import (
	"context"
	"database/sql"
	stderrors "errors"
	"testing"
	"time"

	"backoffice/internal/domain"
	"backoffice/internal/errors"
	"backoffice/internal/infrastructure/mysql"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (f *fakeTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, nil
}

func (f *fakeTx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, nil
}

func (f *fakeTx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

func (f *fakeTx) Commit() error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback() error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

type fakeTxBeginner struct {
	tx     *fakeTx
	gotCtx context.Context
}

func (f *fakeTxBeginner) BeginTx(ctx context.Context, opts *sql.TxOptions) (mysql.Tx, error) {
	f.gotCtx = ctx
	return f.tx, nil
}

type mockInvoiceRepository struct {
	findByOrderIDFunc func(ctx context.Context, tx mysql.Tx, orderID int64) (*domain.Invoice, error)
	nextSequenceFunc  func(ctx context.Context, tx mysql.Tx, date time.Time) (int, error)
	insertFunc        func(ctx context.Context, tx mysql.Tx, inv *domain.Invoice, lines []domain.InvoiceLine) (*domain.Invoice, error)
}

func (m *mockInvoiceRepository) FindByOrderID(ctx context.Context, tx mysql.Tx, orderID int64) (*domain.Invoice, error) {
	return m.findByOrderIDFunc(ctx, tx, orderID)
}

func (m *mockInvoiceRepository) NextSequence(ctx context.Context, tx mysql.Tx, date time.Time) (int, error) {
	return m.nextSequenceFunc(ctx, tx, date)
}

func (m *mockInvoiceRepository) Insert(ctx context.Context, tx mysql.Tx, inv *domain.Invoice, lines []domain.InvoiceLine) (*domain.Invoice, error) {
	return m.insertFunc(ctx, tx, inv, lines)
}

type mockOrderSource struct {
	findByIDForUpdateFunc func(ctx context.Context, tx mysql.Tx, id int64) (*domain.Order, error)
	findLinesTxFunc       func(ctx context.Context, tx mysql.Tx, orderID int64) ([]domain.OrderLine, error)
}

func (m *mockOrderSource) FindByIDForUpdate(ctx context.Context, tx mysql.Tx, id int64) (*domain.Order, error) {
	return m.findByIDForUpdateFunc(ctx, tx, id)
}

func (m *mockOrderSource) FindLinesTx(ctx context.Context, tx mysql.Tx, orderID int64) ([]domain.OrderLine, error) {
	return m.findLinesTxFunc(ctx, tx, orderID)
}

func approvedOrder() *domain.Order {
	return &domain.Order{
		ID:          1,
		OrderNumber: "ORD-20260901-0001",
		CustomerID:  7,
		Status:      domain.OrderStatusApproved,
		TotalAmount: 240.50,
	}
}

func TestEmitter_Emit_Success(t *testing.T) {
	tx := &fakeTx{}
	issuedAt := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	orders := &mockOrderSource{
		findByIDForUpdateFunc: func(ctx context.Context, tx mysql.Tx, id int64) (*domain.Order, error) {
			return approvedOrder(), nil
		},
		findLinesTxFunc: func(ctx context.Context, tx mysql.Tx, orderID int64) ([]domain.OrderLine, error) {
			return []domain.OrderLine{
				{ID: 11, OrderID: 1, StockItemID: 10, Quantity: 2, UnitPrice: 100.00, LineTotal: 200.00},
				{ID: 12, OrderID: 1, StockItemID: 20, Quantity: 1, UnitPrice: 40.50, LineTotal: 40.50},
			}, nil
		},
	}

	var insertedLines []domain.InvoiceLine
	invoices := &mockInvoiceRepository{
		findByOrderIDFunc: func(ctx context.Context, tx mysql.Tx, orderID int64) (*domain.Invoice, error) {
			return nil, errors.NewNotFoundError("invoice not found")
		},
		nextSequenceFunc: func(ctx context.Context, tx mysql.Tx, date time.Time) (int, error) {
			return 3, nil
		},
		insertFunc: func(ctx context.Context, tx mysql.Tx, inv *domain.Invoice, lines []domain.InvoiceLine) (*domain.Invoice, error) {
			insertedLines = lines
			inv.ID = 99
			return inv, nil
		},
	}

	emitter := NewEmitter(&fakeTxBeginner{tx: tx}, invoices, orders, zap.NewNop(), 30, 5*time.Second)
	emitter.now = func() time.Time { return issuedAt }

	inv, err := emitter.Emit(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "INV-20260901-0003", inv.InvoiceNumber)
	assert.Equal(t, domain.InvoiceStatusAwaitingPayment, inv.Status)
	assert.Equal(t, 240.50, inv.TotalAmount)
	assert.Equal(t, 240.50, inv.RemainingBalance)
	assert.Equal(t, issuedAt, inv.IssuedAt)
	assert.Equal(t, issuedAt.AddDate(0, 0, 30), inv.DueDate)
	assert.True(t, tx.committed)

	// Lines are value snapshots, not references to the order's rows.
	require.Len(t, insertedLines, 2)
	assert.Equal(t, int64(0), insertedLines[0].ID)
	assert.Equal(t, int64(10), insertedLines[0].StockItemID)
	assert.Equal(t, 200.00, insertedLines[0].LineTotal)
}

func TestEmitter_Emit_OrderNotApproved(t *testing.T) {
	tx := &fakeTx{}

	orders := &mockOrderSource{
		findByIDForUpdateFunc: func(ctx context.Context, tx mysql.Tx, id int64) (*domain.Order, error) {
			order := approvedOrder()
			order.Status = domain.OrderStatusPending
			return order, nil
		},
	}

	emitter := NewEmitter(&fakeTxBeginner{tx: tx}, &mockInvoiceRepository{}, orders, zap.NewNop(), 30, 5*time.Second)

	_, err := emitter.Emit(context.Background(), 1)
	require.Error(t, err)

	it, ok := errors.IsInvalidTransitionError(err)
	require.True(t, ok)
	assert.Equal(t, domain.OrderStatusPending, it.From)
	assert.True(t, tx.rolledBack)
}

func TestEmitter_Emit_BoundsTransactionByTimeout(t *testing.T) {
	tx := &fakeTx{}
	tb := &fakeTxBeginner{tx: tx}

	orders := &mockOrderSource{
		findByIDForUpdateFunc: func(ctx context.Context, tx mysql.Tx, id int64) (*domain.Order, error) {
			order := approvedOrder()
			order.Status = domain.OrderStatusPending
			return order, nil
		},
	}

	emitter := NewEmitter(tb, &mockInvoiceRepository{}, orders, zap.NewNop(), 30, 5*time.Second)

	_, err := emitter.Emit(context.Background(), 1)
	require.Error(t, err)

	require.NotNil(t, tb.gotCtx)
	_, hasDeadline := tb.gotCtx.Deadline()
	assert.True(t, hasDeadline)
}

func TestEmitter_Emit_RetriesOnDuplicateNumber(t *testing.T) {
	tx := &fakeTx{}
	issuedAt := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	orders := &mockOrderSource{
		findByIDForUpdateFunc: func(ctx context.Context, tx mysql.Tx, id int64) (*domain.Order, error) {
			return approvedOrder(), nil
		},
		findLinesTxFunc: func(ctx context.Context, tx mysql.Tx, orderID int64) ([]domain.OrderLine, error) {
			return []domain.OrderLine{{StockItemID: 10, Quantity: 1, UnitPrice: 240.50, LineTotal: 240.50}}, nil
		},
	}

	var attempted []string
	invoices := &mockInvoiceRepository{
		findByOrderIDFunc: func(ctx context.Context, tx mysql.Tx, orderID int64) (*domain.Invoice, error) {
			return nil, errors.NewNotFoundError("invoice not found")
		},
		nextSequenceFunc: func(ctx context.Context, tx mysql.Tx, date time.Time) (int, error) {
			return 3, nil
		},
		insertFunc: func(ctx context.Context, tx mysql.Tx, inv *domain.Invoice, lines []domain.InvoiceLine) (*domain.Invoice, error) {
			attempted = append(attempted, inv.InvoiceNumber)
			// A concurrent emission took the first number.
			if len(attempted) == 1 {
				return nil, &gomysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
			}
			inv.ID = 99
			return inv, nil
		},
	}

	emitter := NewEmitter(&fakeTxBeginner{tx: tx}, invoices, orders, zap.NewNop(), 30, 5*time.Second)
	emitter.now = func() time.Time { return issuedAt }

	inv, err := emitter.Emit(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"INV-20260901-0003", "INV-20260901-0004"}, attempted)
	assert.Equal(t, "INV-20260901-0004", inv.InvoiceNumber)
	assert.True(t, tx.committed)
}

func TestEmitter_Emit_DuplicateNumberExhaustsRetries(t *testing.T) {
	tx := &fakeTx{}

	orders := &mockOrderSource{
		findByIDForUpdateFunc: func(ctx context.Context, tx mysql.Tx, id int64) (*domain.Order, error) {
			return approvedOrder(), nil
		},
		findLinesTxFunc: func(ctx context.Context, tx mysql.Tx, orderID int64) ([]domain.OrderLine, error) {
			return []domain.OrderLine{{StockItemID: 10, Quantity: 1, UnitPrice: 240.50, LineTotal: 240.50}}, nil
		},
	}

	inserts := 0
	invoices := &mockInvoiceRepository{
		findByOrderIDFunc: func(ctx context.Context, tx mysql.Tx, orderID int64) (*domain.Invoice, error) {
			return nil, errors.NewNotFoundError("invoice not found")
		},
		nextSequenceFunc: func(ctx context.Context, tx mysql.Tx, date time.Time) (int, error) {
			return 1, nil
		},
		insertFunc: func(ctx context.Context, tx mysql.Tx, inv *domain.Invoice, lines []domain.InvoiceLine) (*domain.Invoice, error) {
			inserts++
			return nil, &gomysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
		},
	}

	emitter := NewEmitter(&fakeTxBeginner{tx: tx}, invoices, orders, zap.NewNop(), 30, 5*time.Second)

	_, err := emitter.Emit(context.Background(), 1)
	require.Error(t, err)

	assert.Equal(t, 3, inserts)
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestEmitter_Emit_InsertErrorNotRetried(t *testing.T) {
	tx := &fakeTx{}

	orders := &mockOrderSource{
		findByIDForUpdateFunc: func(ctx context.Context, tx mysql.Tx, id int64) (*domain.Order, error) {
			return approvedOrder(), nil
		},
		findLinesTxFunc: func(ctx context.Context, tx mysql.Tx, orderID int64) ([]domain.OrderLine, error) {
			return []domain.OrderLine{{StockItemID: 10, Quantity: 1, UnitPrice: 240.50, LineTotal: 240.50}}, nil
		},
	}

	inserts := 0
	invoices := &mockInvoiceRepository{
		findByOrderIDFunc: func(ctx context.Context, tx mysql.Tx, orderID int64) (*domain.Invoice, error) {
			return nil, errors.NewNotFoundError("invoice not found")
		},
		nextSequenceFunc: func(ctx context.Context, tx mysql.Tx, date time.Time) (int, error) {
			return 1, nil
		},
		insertFunc: func(ctx context.Context, tx mysql.Tx, inv *domain.Invoice, lines []domain.InvoiceLine) (*domain.Invoice, error) {
			inserts++
			return nil, stderrors.New("connection lost")
		},
	}

	emitter := NewEmitter(&fakeTxBeginner{tx: tx}, invoices, orders, zap.NewNop(), 30, 5*time.Second)

	_, err := emitter.Emit(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, 1, inserts)
	assert.False(t, tx.committed)
}

func TestEmitter_Emit_AlreadyExists(t *testing.T) {
	tx := &fakeTx{}
	inserts := 0

	orders := &mockOrderSource{
		findByIDForUpdateFunc: func(ctx context.Context, tx mysql.Tx, id int64) (*domain.Order, error) {
			return approvedOrder(), nil
		},
	}
	invoices := &mockInvoiceRepository{
		findByOrderIDFunc: func(ctx context.Context, tx mysql.Tx, orderID int64) (*domain.Invoice, error) {
			return &domain.Invoice{ID: 50, InvoiceNumber: "INV-20260830-0007", OrderID: orderID}, nil
		},
		insertFunc: func(ctx context.Context, tx mysql.Tx, inv *domain.Invoice, lines []domain.InvoiceLine) (*domain.Invoice, error) {
			inserts++
			return inv, nil
		},
	}

	emitter := NewEmitter(&fakeTxBeginner{tx: tx}, invoices, orders, zap.NewNop(), 30, 5*time.Second)

	_, err := emitter.Emit(context.Background(), 1)
	require.Error(t, err)

	ie, ok := errors.IsInvoiceExistsError(err)
	require.True(t, ok)
	assert.Equal(t, int64(1), ie.OrderID)
	assert.Equal(t, "INV-20260830-0007", ie.InvoiceNumber)
	assert.Equal(t, 0, inserts)
	assert.False(t, tx.committed)
}
