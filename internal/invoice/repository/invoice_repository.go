package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"backoffice/internal/domain"
	apperrors "backoffice/internal/errors"
	"backoffice/internal/infrastructure/mysql"
)

type MySQLInvoiceRepository struct {
	db *sql.DB
}

func NewMySQLInvoiceRepository(db *sql.DB) *MySQLInvoiceRepository {
	return &MySQLInvoiceRepository{db: db}
}

// FindByOrderID reads within the emitter's transaction so the existence
// check and the insert are serialized by the order row lock.
func (r *MySQLInvoiceRepository) FindByOrderID(ctx context.Context, tx mysql.Tx, orderID int64) (*domain.Invoice, error) {
	query := `
		SELECT id, invoice_number, order_id, status, total_amount, remaining_balance,
		       issued_at, due_date, created_at, updated_at
		FROM invoices
		WHERE order_id = ?
	`

	var inv domain.Invoice
	err := tx.QueryRowContext(ctx, query, orderID).Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.OrderID, &inv.Status,
		&inv.TotalAmount, &inv.RemainingBalance,
		&inv.IssuedAt, &inv.DueDate, &inv.CreatedAt, &inv.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no invoice for order %d", orderID))
	}
	if err != nil {
		return nil, fmt.Errorf("querying invoice by order id: %w", err)
	}

	return &inv, nil
}

func (r *MySQLInvoiceRepository) NextSequence(ctx context.Context, tx mysql.Tx, date time.Time) (int, error) {
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invoices WHERE invoice_number LIKE ?`,
		"INV-"+date.Format("20060102")+"-%",
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting invoices for number generation: %w", err)
	}
	return count + 1, nil
}

func (r *MySQLInvoiceRepository) Insert(ctx context.Context, tx mysql.Tx, inv *domain.Invoice, lines []domain.InvoiceLine) (*domain.Invoice, error) {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO invoices (invoice_number, order_id, status, total_amount,
		                      remaining_balance, issued_at, due_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inv.InvoiceNumber, inv.OrderID, inv.Status, inv.TotalAmount,
		inv.RemainingBalance, inv.IssuedAt, inv.DueDate,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting invoice: %w", err)
	}

	invoiceID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting invoice id: %w", err)
	}
	inv.ID = invoiceID

	for i := range lines {
		lines[i].InvoiceID = invoiceID
		lineResult, err := tx.ExecContext(ctx, `
			INSERT INTO invoice_lines (invoice_id, stock_item_id, quantity, unit_price, line_total)
			VALUES (?, ?, ?, ?, ?)`,
			lines[i].InvoiceID, lines[i].StockItemID, lines[i].Quantity,
			lines[i].UnitPrice, lines[i].LineTotal,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting invoice line: %w", err)
		}
		lineID, err := lineResult.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting invoice line id: %w", err)
		}
		lines[i].ID = lineID
	}

	return inv, nil
}
