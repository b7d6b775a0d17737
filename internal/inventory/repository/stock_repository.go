package repository

import (
	"context"
	"database/sql"
	"fmt"

	"backoffice/internal/domain"
	"backoffice/internal/errors"
	"backoffice/internal/infrastructure/mysql"
)

type MySQLStockRepository struct {
	db *sql.DB
}

func NewMySQLStockRepository(db *sql.DB) *MySQLStockRepository {
	return &MySQLStockRepository{db: db}
}

// FindByIDForUpdate locks the stock row for the duration of the caller's
// transaction so the availability check and the decrement see the same
// snapshot.
func (r *MySQLStockRepository) FindByIDForUpdate(ctx context.Context, tx mysql.Tx, id int64) (*domain.StockItem, error) {
	query := `
		SELECT id, name, quantity_on_hand, min_level, max_level, is_active,
		       created_at, updated_at
		FROM stock_items
		WHERE id = ?
		FOR UPDATE
	`

	var item domain.StockItem
	err := tx.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.Name, &item.QuantityOnHand, &item.MinLevel, &item.MaxLevel,
		&item.IsActive, &item.CreatedAt, &item.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("stock item with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying stock item for update: %w", err)
	}

	return &item, nil
}

// Decrement applies a conditional decrement; zero rows affected means the
// on-hand quantity would have gone negative.
func (r *MySQLStockRepository) Decrement(ctx context.Context, tx mysql.Tx, id int64, quantity int) error {
	query := `
		UPDATE stock_items
		SET quantity_on_hand = quantity_on_hand - ?
		WHERE id = ? AND quantity_on_hand >= ?
	`

	result, err := tx.ExecContext(ctx, query, quantity, id, quantity)
	if err != nil {
		return fmt.Errorf("decrementing stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewInsufficientStockError(id, 0, quantity)
	}

	return nil
}

func (r *MySQLStockRepository) Increment(ctx context.Context, tx mysql.Tx, id int64, quantity int) error {
	query := `UPDATE stock_items SET quantity_on_hand = quantity_on_hand + ? WHERE id = ?`

	result, err := tx.ExecContext(ctx, query, quantity, id)
	if err != nil {
		return fmt.Errorf("incrementing stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("stock item with id %d not found", id))
	}

	return nil
}
