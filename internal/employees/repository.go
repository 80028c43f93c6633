package employees

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keystone-rbac/keystone/internal/shared"
)

// RepositoryPort defines data access methods for employee records.
type RepositoryPort interface {
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	List(ctx context.Context, page, perPage int) ([]Employee, shared.Pagination, error)
	Get(ctx context.Context, id int64) (*Employee, error)
	Delete(ctx context.Context, id int64) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

// Create persists a new employee record.
func (r *Repository) Create(ctx context.Context, employee *Employee) (*Employee, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO employees (name, email, position)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		employee.Name, employee.Email, employee.Position,
	).Scan(&employee.ID, &employee.CreatedAt, &employee.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("employees: create: %w", err)
	}
	return employee, nil
}

// List returns a page of employee records.
func (r *Repository) List(ctx context.Context, page, perPage int) ([]Employee, shared.Pagination, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM employees`).Scan(&total); err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("employees: count: %w", err)
	}
	meta := shared.NewPagination(page, perPage, total)

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, position, created_at, updated_at
		FROM employees ORDER BY id LIMIT $1 OFFSET $2`, meta.PerPage, meta.Offset())
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("employees: list: %w", err)
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.Position, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, shared.Pagination{}, err
		}
		out = append(out, e)
	}
	return out, meta, rows.Err()
}

// Get fetches a single employee record by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Employee, error) {
	var e Employee
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, position, created_at, updated_at
		FROM employees WHERE id = $1`, id,
	).Scan(&e.ID, &e.Name, &e.Email, &e.Position, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("employees: get: %w", err)
	}
	return &e, nil
}

// Delete removes an employee record by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("employees: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
