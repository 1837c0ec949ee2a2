package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Status is an order's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Order is a purchase tracked locally.
type Order struct {
	ID string `json:"id"`

	// Amount is in minor currency units.
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	UserID    string    `json:"userId"`
	Receipt   string    `json:"receipt"`
	Status    Status    `json:"status"`
	PaymentID string    `json:"paymentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists orders.
//
// Contract:
//   - Get of an unknown id returns ErrOrderNotFound.
//   - Complete marks a pending order completed with the payment id. It
//     returns ErrOrderCompleted when the order is no longer pending.
type Store interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	Complete(ctx context.Context, id, paymentID string, at time.Time) error
}

// SQLiteStore keeps orders in a payment_orders table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the orders table in db if needed.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS payment_orders (
			id         TEXT PRIMARY KEY,
			amount     INTEGER NOT NULL,
			currency   TEXT NOT NULL,
			user_id    TEXT NOT NULL,
			receipt    TEXT NOT NULL,
			status     TEXT NOT NULL,
			payment_id TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_payment_orders_user ON payment_orders(user_id);
	`)
	if err != nil {
		return nil, fmt.Errorf("payment: initializing schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Create inserts o.
func (s *SQLiteStore) Create(ctx context.Context, o Order) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_orders (id, amount, currency, user_id, receipt, status, payment_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.Amount, o.Currency, o.UserID, o.Receipt, string(o.Status), o.PaymentID,
		o.CreatedAt.UnixNano(), o.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("payment: storing order: %w", err)
	}
	return nil
}

// Get returns the order with id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Order, error) {
	var (
		o                Order
		status           string
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, amount, currency, user_id, receipt, status, payment_id, created_at, updated_at
		FROM payment_orders WHERE id = ?
	`, id).Scan(&o.ID, &o.Amount, &o.Currency, &o.UserID, &o.Receipt, &status, &o.PaymentID, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("payment: reading order: %w", err)
	}
	o.Status = Status(status)
	o.CreatedAt = time.Unix(0, created).UTC()
	o.UpdatedAt = time.Unix(0, updated).UTC()
	return o, nil
}

// Complete marks a pending order paid. The status check is part of the
// update, so of two racing completions only one succeeds.
func (s *SQLiteStore) Complete(ctx context.Context, id, paymentID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE payment_orders SET status = ?, payment_id = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(StatusCompleted), paymentID, at.UnixNano(), id, string(StatusPending),
	)
	if err != nil {
		return fmt.Errorf("payment: updating order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("payment: updating order: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return ErrOrderCompleted
}

var _ Store = (*SQLiteStore)(nil)
