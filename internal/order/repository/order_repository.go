package repository

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
)

const orderColumns = `id, order_number, customer_id, staff_id, status, total_amount,
	       notes, rejection_reason, order_date, is_active, created_at, updated_at`

type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

func scanOrder(row interface{ Scan(dest ...any) error }) (*domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID, &order.OrderNumber, &order.CustomerID, &order.StaffID,
		&order.Status, &order.TotalAmount, &order.Notes, &order.RejectionReason,
		&order.OrderDate, &order.IsActive, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *MySQLOrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = ? AND is_active = 1`, orderColumns)

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}

	return order, nil
}

// FindByIDForUpdate locks the order row inside the caller's transaction.
// Transitions re-read the order under this lock so a concurrent transition
// cannot slip between the guard check and the status write.
func (r *MySQLOrderRepository) FindByIDForUpdate(ctx context.Context, tx mysql.Tx, id int64) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = ? AND is_active = 1 FOR UPDATE`, orderColumns)

	order, err := scanOrder(tx.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order for update: %w", err)
	}

	return order, nil
}

func (r *MySQLOrderRepository) List(ctx context.Context, status string) ([]domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE is_active = 1`, orderColumns)
	args := []any{}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY order_date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order rows: %w", err)
	}

	return orders, nil
}

// Insert persists a new pending order with its lines and assigns the next
// ORD-YYYYMMDD-#### number. A duplicate number from a concurrent insert is
// retried with the next sequence.
func (r *MySQLOrderRepository) Insert(ctx context.Context, order *domain.Order, lines []domain.OrderLine) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	seq, err := r.nextSequence(ctx, tx, order.OrderDate)
	if err != nil {
		return nil, err
	}

	var orderID int64
	for attempt := 0; attempt < 3; attempt++ {
		order.OrderNumber = domain.DocumentNumber("ORD", order.OrderDate, seq+attempt)

		result, err := tx.ExecContext(ctx, `
			INSERT INTO orders (order_number, customer_id, staff_id, status, total_amount,
			                    notes, order_date, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, 1)`,
			order.OrderNumber, order.CustomerID, order.StaffID, order.Status,
			order.TotalAmount, order.Notes, order.OrderDate,
		)
		if err != nil {
			if isDuplicateEntry(err) {
				continue
			}
			return nil, fmt.Errorf("inserting order: %w", err)
		}

		orderID, err = result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting last insert id: %w", err)
		}
		break
	}

	if orderID == 0 {
		return nil, fmt.Errorf("inserting order: could not assign a unique order number")
	}

	for i := range lines {
		lines[i].OrderID = orderID
		result, err := tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, stock_item_id, quantity, unit_price, line_total)
			VALUES (?, ?, ?, ?, ?)`,
			lines[i].OrderID, lines[i].StockItemID, lines[i].Quantity,
			lines[i].UnitPrice, lines[i].LineTotal,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting order line: %w", err)
		}
		lineID, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting order line id: %w", err)
		}
		lines[i].ID = lineID
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	order.ID = orderID
	order.IsActive = true
	return order, nil
}

func (r *MySQLOrderRepository) nextSequence(ctx context.Context, tx *sql.Tx, date time.Time) (int, error) {
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE order_number LIKE ?`,
		"ORD-"+date.Format("20060102")+"-%",
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting orders for number generation: %w", err)
	}
	return count + 1, nil
}

func (r *MySQLOrderRepository) FindLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	query := `
		SELECT id, order_id, stock_item_id, quantity, unit_price, line_total
		FROM order_lines
		WHERE order_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		err := rows.Scan(&line.ID, &line.OrderID, &line.StockItemID,
			&line.Quantity, &line.UnitPrice, &line.LineTotal)
		if err != nil {
			return nil, fmt.Errorf("scanning order line row: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order line rows: %w", err)
	}

	return lines, nil
}

// FindLinesTx reads lines inside an open transaction; the invoice emitter
// snapshots them under the order row lock.
func (r *MySQLOrderRepository) FindLinesTx(ctx context.Context, tx mysql.Tx, orderID int64) ([]domain.OrderLine, error) {
	query := `
		SELECT id, order_id, stock_item_id, quantity, unit_price, line_total
		FROM order_lines
		WHERE order_id = ?
		ORDER BY id
	`

	rows, err := tx.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		err := rows.Scan(&line.ID, &line.OrderID, &line.StockItemID,
			&line.Quantity, &line.UnitPrice, &line.LineTotal)
		if err != nil {
			return nil, fmt.Errorf("scanning order line row: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order line rows: %w", err)
	}

	return lines, nil
}

func (r *MySQLOrderRepository) UpdateStatus(ctx context.Context, tx mysql.Tx, id int64, status string, rejectionReason *string) error {
	query := `UPDATE orders SET status = ?, rejection_reason = ? WHERE id = ?`

	result, err := tx.ExecContext(ctx, query, status, rejectionReason, id)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}

	return nil
}

// SoftDelete deactivates the order; orders are never hard-deleted.
func (r *MySQLOrderRepository) SoftDelete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET is_active = 0 WHERE id = ? AND is_active = 1`, id)
	if err != nil {
		return fmt.Errorf("soft deleting order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}

	return nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
