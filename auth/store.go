package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Store persists users.
//
// Contract:
//   - Email uniqueness is enforced by the store; Create returns ErrUserExists.
//   - Lookups of unknown users return ErrUserNotFound.
//   - Emails are compared exactly; callers normalize them.
type Store interface {
	Create(ctx context.Context, u User) error
	ByEmail(ctx context.Context, email string) (User, error)
	ByID(ctx context.Context, id string) (User, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
	SetPlan(ctx context.Context, id string, plan Plan) error
}

// SQLiteStore keeps users in a users table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the users table in db if needed.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL,
			password_hash BLOB NOT NULL,
			plan          TEXT NOT NULL,
			created_at    INTEGER NOT NULL,
			last_login_at INTEGER NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("auth: initializing schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Create inserts u.
func (s *SQLiteStore) Create(ctx context.Context, u User) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, plan, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO NOTHING
	`, u.ID, u.Email, u.Name, u.PasswordHash, string(u.Plan), u.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("auth: creating user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("auth: creating user: %w", err)
	}
	if n == 0 {
		return ErrUserExists
	}
	return nil
}

// ByEmail returns the user registered with email.
func (s *SQLiteStore) ByEmail(ctx context.Context, email string) (User, error) {
	return s.one(ctx, `WHERE email = ?`, email)
}

// ByID returns the user with id.
func (s *SQLiteStore) ByID(ctx context.Context, id string) (User, error) {
	return s.one(ctx, `WHERE id = ?`, id)
}

// TouchLogin records a successful login.
func (s *SQLiteStore) TouchLogin(ctx context.Context, id string, at time.Time) error {
	return s.update(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, at.UnixNano(), id)
}

// SetPlan changes the user's plan.
func (s *SQLiteStore) SetPlan(ctx context.Context, id string, plan Plan) error {
	return s.update(ctx, `UPDATE users SET plan = ? WHERE id = ?`, string(plan), id)
}

func (s *SQLiteStore) one(ctx context.Context, where string, arg any) (User, error) {
	var (
		u                  User
		plan               string
		created, lastLogin int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, plan, created_at, last_login_at FROM users `+where, arg,
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &plan, &created, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("auth: reading user: %w", err)
	}
	u.Plan = Plan(plan)
	u.CreatedAt = time.Unix(0, created).UTC()
	if lastLogin > 0 {
		u.LastLoginAt = time.Unix(0, lastLogin).UTC()
	}
	return u, nil
}

func (s *SQLiteStore) update(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("auth: updating user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("auth: updating user: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
