package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/raghav/banknifty_flip/internal/domain"
)

// SQLiteJournal is an append-only audit log of orders and webhook
// outcomes. It is never read back to reconstruct position state.
type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	j := &SQLiteJournal{db: db}
	if err := j.initSchema(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *SQLiteJournal) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			mode TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS signals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			side TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			status TEXT NOT NULL,
			reason TEXT,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);`,
	}

	for _, q := range queries {
		if _, err := j.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

func (j *SQLiteJournal) RecordOrder(ctx context.Context, order *domain.Order) error {
	query := `INSERT INTO orders (order_id, symbol, side, quantity, mode, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`
	_, err := j.db.ExecContext(ctx, query,
		order.OrderID, order.Symbol, order.Side, order.Quantity, order.Mode, order.CreatedAt)
	return err
}

func (j *SQLiteJournal) RecordSignal(ctx context.Context, log *domain.SignalLog) error {
	query := `INSERT INTO signals (side, quantity, status, reason, created_at)
			  VALUES (?, ?, ?, ?, ?)`
	_, err := j.db.ExecContext(ctx, query,
		log.Side, log.Quantity, log.Status, log.Reason, log.CreatedAt)
	return err
}

func (j *SQLiteJournal) ListOrders(ctx context.Context, limit int) ([]*domain.Order, error) {
	query := `SELECT id, order_id, symbol, side, quantity, mode, created_at
			  FROM orders ORDER BY id DESC LIMIT ?`
	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.OrderID, &o.Symbol, &o.Side, &o.Quantity, &o.Mode, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
