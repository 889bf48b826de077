// internal/application/postgres.go
package application

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ApplicationsSchema creates the applications table. Rows are keyed by a
// surrogate sequence so the same application id may be stored twice.
const ApplicationsSchema = `
CREATE TABLE IF NOT EXISTS applications (
	seq        BIGSERIAL PRIMARY KEY,
	id         TEXT        NOT NULL,
	name       TEXT        NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS applications_name_idx ON applications (name);
CREATE INDEX IF NOT EXISTS applications_id_idx ON applications (id);`

// PostgresRepository stores applications in PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the applications table when it is missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, ApplicationsSchema); err != nil {
		return fmt.Errorf("create applications schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Save(ctx context.Context, app Application) error {
	query := `INSERT INTO applications (id, name, created_at) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, app.ID(), app.Name(), app.CreatedAt()); err != nil {
		return fmt.Errorf("insert application %s: %w", app.ID(), err)
	}
	return nil
}

func (r *PostgresRepository) FindByName(ctx context.Context, name string) ([]Application, error) {
	query := `SELECT id, name, created_at FROM applications WHERE name = $1 ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("query applications by name: %w", err)
	}
	return scanApplications(rows)
}

func (r *PostgresRepository) FindOpen(ctx context.Context) ([]Application, error) {
	query := `SELECT id, name, created_at FROM applications ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query open applications: %w", err)
	}
	return scanApplications(rows)
}

func (r *PostgresRepository) Remove(ctx context.Context, app Application) error {
	query := `DELETE FROM applications WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, app.ID()); err != nil {
		return fmt.Errorf("delete application %s: %w", app.ID(), err)
	}
	return nil
}

func scanApplications(rows *sql.Rows) ([]Application, error) {
	defer rows.Close()

	apps := make([]Application, 0)
	for rows.Next() {
		var (
			id, name  string
			createdAt time.Time
		)
		if err := rows.Scan(&id, &name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, Restore(id, name, createdAt))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return apps, nil
}
