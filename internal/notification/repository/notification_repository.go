package repository

import (
	"context"
	"database/sql"
	"fmt"

	"backoffice/internal/domain"
	apperrors "backoffice/internal/errors"
	"backoffice/internal/infrastructure/mysql"
)

const notificationColumns = `id, type, title, message, customer_id, order_id,
	       order_number, reason, is_read, admin_is_read, created_at`

type MySQLNotificationRepository struct {
	db *sql.DB
}

func NewMySQLNotificationRepository(db *sql.DB) *MySQLNotificationRepository {
	return &MySQLNotificationRepository{db: db}
}

func scanNotification(row interface{ Scan(dest ...any) error }) (*domain.Notification, error) {
	var n domain.Notification
	err := row.Scan(
		&n.ID, &n.Type, &n.Title, &n.Message, &n.CustomerID, &n.OrderID,
		&n.OrderNumber, &n.Reason, &n.IsRead, &n.AdminIsRead, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *MySQLNotificationRepository) Insert(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (type, title, message, customer_id, order_id,
		                           order_number, reason, is_read, admin_is_read)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0)`,
		n.Type, n.Title, n.Message, n.CustomerID, n.OrderID, n.OrderNumber, n.Reason,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting notification id: %w", err)
	}
	n.ID = id

	return n, nil
}

func (r *MySQLNotificationRepository) InsertTx(ctx context.Context, tx mysql.Tx, n *domain.Notification) (*domain.Notification, error) {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO notifications (type, title, message, customer_id, order_id,
		                           order_number, reason, is_read, admin_is_read)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0)`,
		n.Type, n.Title, n.Message, n.CustomerID, n.OrderID, n.OrderNumber, n.Reason,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting notification id: %w", err)
	}
	n.ID = id

	return n, nil
}

func (r *MySQLNotificationRepository) FindByID(ctx context.Context, id int64) (*domain.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE id = ?`, notificationColumns)

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("notification with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying notification by id: %w", err)
	}

	return n, nil
}

func (r *MySQLNotificationRepository) MarkAdminReadTx(ctx context.Context, tx mysql.Tx, id int64) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE notifications SET admin_is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("marking notification admin-read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("notification with id %d not found", id))
	}

	return nil
}

// MarkRead flips the read flag for one audience; the other audience's flag
// is untouched.
func (r *MySQLNotificationRepository) MarkRead(ctx context.Context, id int64, audience string) error {
	column := "is_read"
	if audience == domain.AudienceStaff {
		column = "admin_is_read"
	}

	result, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE notifications SET %s = 1 WHERE id = ?`, column), id)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("notification with id %d not found", id))
	}

	return nil
}

func (r *MySQLNotificationRepository) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Notification, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM notifications
		WHERE customer_id = ? AND type IN (?, ?)
		ORDER BY created_at DESC, id DESC`, notificationColumns)

	rows, err := r.db.QueryContext(ctx, query, customerID,
		domain.NotificationTypeOrderRejected, domain.NotificationTypeGeneral)
	if err != nil {
		return nil, fmt.Errorf("querying customer notifications: %w", err)
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func (r *MySQLNotificationRepository) ListStaff(ctx context.Context) ([]domain.Notification, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM notifications
		WHERE type = ?
		ORDER BY created_at DESC, id DESC`, notificationColumns)

	rows, err := r.db.QueryContext(ctx, query, domain.NotificationTypeOrderAppeal)
	if err != nil {
		return nil, fmt.Errorf("querying staff notifications: %w", err)
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func collectNotifications(rows *sql.Rows) ([]domain.Notification, error) {
	var notifications []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning notification row: %w", err)
		}
		notifications = append(notifications, *n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notification rows: %w", err)
	}

	return notifications, nil
}
