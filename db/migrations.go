package db

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Migrate runs all table creation statements. Safe to call multiple times
// due to IF NOT EXISTS clauses.
func Migrate(db *sql.DB) error {
	slog.Info("running database migrations")

	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w\nstatement: %s", err, stmt)
		}
	}

	slog.Info("database migrations complete")
	return nil
}

var migrations = []string{
	// Orders: the customer booking an agent sent in
	`CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reference_id TEXT,
		first_name TEXT NOT NULL,
		last_name TEXT,
		agent_name TEXT,
		pax_adt INTEGER NOT NULL DEFAULT 0,
		pax_chd INTEGER NOT NULL DEFAULT 0,
		pax_inf INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	// Tour bookings: one service line per tour day
	`CREATE TABLE IF NOT EXISTS tour_bookings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id INTEGER NOT NULL,
		tour_date DATE,
		tour_detail TEXT,
		tour_hotel TEXT,
		send_to TEXT,
		pax_adt INTEGER NOT NULL DEFAULT 0,
		pax_chd INTEGER NOT NULL DEFAULT 0,
		pax_inf INTEGER NOT NULL DEFAULT 0,
		cost_price REAL NOT NULL DEFAULT 0,
		selling_price REAL NOT NULL DEFAULT 0,
		payment_status TEXT NOT NULL DEFAULT 'notPaid',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	)`,

	// Transfer bookings: airport/hotel transfers
	`CREATE TABLE IF NOT EXISTS transfer_bookings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id INTEGER NOT NULL,
		transfer_date DATE,
		transfer_detail TEXT,
		send_to TEXT,
		pax_adt INTEGER NOT NULL DEFAULT 0,
		pax_chd INTEGER NOT NULL DEFAULT 0,
		pax_inf INTEGER NOT NULL DEFAULT 0,
		cost_price REAL NOT NULL DEFAULT 0,
		selling_price REAL NOT NULL DEFAULT 0,
		payment_status TEXT NOT NULL DEFAULT 'notPaid',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	)`,

	// Payments: bookings selected for billing against one order.
	// bookings holds the ordered line list as JSON.
	`CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		payment_code TEXT,
		order_id INTEGER NOT NULL UNIQUE,
		first_name TEXT,
		last_name TEXT,
		agent_name TEXT,
		pax TEXT,
		bookings TEXT NOT NULL DEFAULT '[]',
		total_cost REAL NOT NULL DEFAULT 0,
		total_selling_price REAL NOT NULL DEFAULT 0,
		total_profit REAL NOT NULL DEFAULT 0,
		invoiced BOOLEAN NOT NULL DEFAULT 0,
		ref TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	)`,

	// Invoices: payment_ids is the ordered JSON id list, attachments the
	// uploaded file descriptors. Totals are the snapshot taken at save time.
	`CREATE TABLE IF NOT EXISTS invoices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		invoice_name TEXT NOT NULL,
		invoice_date TEXT,
		payment_ids TEXT NOT NULL DEFAULT '[]',
		total_amount REAL NOT NULL DEFAULT 0,
		total_cost REAL NOT NULL DEFAULT 0,
		total_selling_price REAL NOT NULL DEFAULT 0,
		total_profit REAL NOT NULL DEFAULT 0,
		deduction_description TEXT NOT NULL DEFAULT '',
		deduction_amount REAL NOT NULL DEFAULT 0,
		status BOOLEAN NOT NULL DEFAULT 0,
		attachments TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	// Information: lookup values per category, soft-deleted via active
	`CREATE TABLE IF NOT EXISTS information (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL CHECK(category IN ('agent', 'tour_recipient', 'transfer_recipient', 'tour_type', 'transfer_type', 'place')),
		value TEXT NOT NULL,
		description TEXT,
		phone TEXT,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	// Indexes for common queries
	`CREATE INDEX IF NOT EXISTS idx_tour_bookings_order ON tour_bookings(order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tour_bookings_date ON tour_bookings(tour_date)`,
	`CREATE INDEX IF NOT EXISTS idx_transfer_bookings_order ON transfer_bookings(order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transfer_bookings_date ON transfer_bookings(transfer_date)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_invoiced ON payments(invoiced)`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_name ON invoices(invoice_name)`,
	`CREATE INDEX IF NOT EXISTS idx_information_category ON information(category, active)`,
}
