package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/go-sql-driver/mysql"
)

// SetupTestDB opens the local test database, skipping the test when it is
// not available. Expects a MySQL instance on localhost:3306 with a
// 'backoffice_test' schema.
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := "root:@tcp(localhost:3306)/backoffice_test?parseTime=true"
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("test database not available: %v", err)
	}

	return db
}

func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	tables := []string{"invoice_lines", "invoices", "notifications", "order_lines", "orders", "stock_items", "customers"}
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

func SetupTestTables(t *testing.T, db *sql.DB) {
	createCustomers := `
	CREATE TABLE IF NOT EXISTS customers (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(150) NOT NULL,
		email VARCHAR(150) NOT NULL,
		phone VARCHAR(30),
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`

	createStockItems := `
	CREATE TABLE IF NOT EXISTS stock_items (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(150) NOT NULL,
		quantity_on_hand INT NOT NULL DEFAULT 0,
		min_level INT NOT NULL DEFAULT 0,
		max_level INT NOT NULL DEFAULT 0,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`

	createOrders := `
	CREATE TABLE IF NOT EXISTS orders (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		order_number VARCHAR(30) NOT NULL UNIQUE,
		customer_id BIGINT NOT NULL,
		staff_id BIGINT NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		total_amount DECIMAL(12,2) NOT NULL DEFAULT 0.00,
		notes TEXT,
		rejection_reason TEXT,
		order_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_customer (customer_id),
		INDEX idx_status (status)
	)`

	createOrderLines := `
	CREATE TABLE IF NOT EXISTS order_lines (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		order_id BIGINT NOT NULL,
		stock_item_id BIGINT NOT NULL,
		quantity INT NOT NULL DEFAULT 1,
		unit_price DECIMAL(12,2) NOT NULL,
		line_total DECIMAL(12,2) NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
		INDEX idx_order (order_id),
		INDEX idx_stock_item (stock_item_id)
	)`

	createInvoices := `
	CREATE TABLE IF NOT EXISTS invoices (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		invoice_number VARCHAR(30) NOT NULL UNIQUE,
		order_id BIGINT NOT NULL UNIQUE,
		status VARCHAR(20) NOT NULL DEFAULT 'awaiting_payment',
		total_amount DECIMAL(12,2) NOT NULL,
		remaining_balance DECIMAL(12,2) NOT NULL,
		issued_at DATETIME NOT NULL,
		due_date DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		FOREIGN KEY (order_id) REFERENCES orders(id)
	)`

	createInvoiceLines := `
	CREATE TABLE IF NOT EXISTS invoice_lines (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		invoice_id BIGINT NOT NULL,
		stock_item_id BIGINT NOT NULL,
		quantity INT NOT NULL DEFAULT 1,
		unit_price DECIMAL(12,2) NOT NULL,
		line_total DECIMAL(12,2) NOT NULL,
		FOREIGN KEY (invoice_id) REFERENCES invoices(id) ON DELETE CASCADE,
		INDEX idx_invoice (invoice_id)
	)`

	createNotifications := `
	CREATE TABLE IF NOT EXISTS notifications (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		type VARCHAR(30) NOT NULL,
		title VARCHAR(200) NOT NULL,
		message TEXT NOT NULL,
		customer_id BIGINT,
		order_id BIGINT,
		order_number VARCHAR(30) NOT NULL DEFAULT '',
		reason TEXT NOT NULL,
		is_read TINYINT(1) NOT NULL DEFAULT 0,
		admin_is_read TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_customer (customer_id),
		INDEX idx_type (type)
	)`

	tables := []struct {
		name  string
		query string
	}{
		{"customers", createCustomers},
		{"stock_items", createStockItems},
		{"orders", createOrders},
		{"order_lines", createOrderLines},
		{"invoices", createInvoices},
		{"invoice_lines", createInvoiceLines},
		{"notifications", createNotifications},
	}

	for _, tbl := range tables {
		if _, err := db.Exec(tbl.query); err != nil {
			t.Logf("failed to create table %s: %v", tbl.name, err)
		}
	}
}
