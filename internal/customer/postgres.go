// Package customer records which applicants are known customers.
package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const Schema = `
CREATE TABLE IF NOT EXISTS customers (
	name          TEXT PRIMARY KEY,
	registered_at TIMESTAMPTZ NOT NULL
);`

var ErrBlankName = errors.New("customer name is required")

// Repository is the customer store as seen by read-side callers.
type Repository interface {
	RegisterCustomer(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
}

// PostgresRepository keeps one row per customer name. Registering a
// known name is a no-op and keeps the first registration time.
type PostgresRepository struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, clock: time.Now}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create customers schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RegisterCustomer(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrBlankName
	}

	query := `
		INSERT INTO customers (name, registered_at)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, name, r.clock().UTC()); err != nil {
		return fmt.Errorf("register customer %s: %w", name, err)
	}
	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM customers WHERE name = $1)`
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("check customer %s: %w", name, err)
	}
	return exists, nil
}
