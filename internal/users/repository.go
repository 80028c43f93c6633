package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keystone-rbac/keystone/internal/platform/db"
	"github.com/keystone-rbac/keystone/internal/rbac"
	"github.com/keystone-rbac/keystone/internal/shared"
)

// RepositoryPort defines data access methods for user management.
type RepositoryPort interface {
	ListUsers(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	UpdateUserRole(ctx context.Context, userID, roleID int64) error
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

const userSelect = `
	SELECT u.id, u.username, u.email, u.kind, u.created_at, u.updated_at,
	       r.id, r.name, r.description, r.created_at, r.updated_at
	FROM users u
	JOIN roles r ON r.id = u.role_id`

// ListUsers returns a page of users with role and permissions.
func (r *Repository) ListUsers(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("users: count: %w", err)
	}
	meta := shared.NewPagination(page, perPage, total)

	rows, err := r.pool.Query(ctx, userSelect+` ORDER BY u.id LIMIT $1 OFFSET $2`, meta.PerPage, meta.Offset())
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var user User
		if err := scanUser(rows, &user); err != nil {
			return nil, shared.Pagination{}, err
		}
		out = append(out, user)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Pagination{}, err
	}
	for i := range out {
		perms, err := r.rolePermissions(ctx, out[i].Role.ID)
		if err != nil {
			return nil, shared.Pagination{}, err
		}
		out[i].Role.Permissions = perms
	}
	return out, meta, nil
}

// GetUser fetches a user with role and permissions by ID.
func (r *Repository) GetUser(ctx context.Context, id int64) (*User, error) {
	var user User
	err := scanUser(r.pool.QueryRow(ctx, userSelect+` WHERE u.id = $1`, id), &user)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("users: get: %w", err)
	}
	perms, err := r.rolePermissions(ctx, user.Role.ID)
	if err != nil {
		return nil, err
	}
	user.Role.Permissions = perms
	return &user, nil
}

// UpdateUserRole reassigns a user's role atomically. The role row is verified
// inside the same transaction so the reference can never point at a role that
// vanished between check and write.
func (r *Repository) UpdateUserRole(ctx context.Context, userID, roleID int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE id = $1)`, roleID).Scan(&exists); err != nil {
			return fmt.Errorf("users: check role: %w", err)
		}
		if !exists {
			return shared.ErrBadRequest
		}
		tag, err := tx.Exec(ctx, `UPDATE users SET role_id = $1, updated_at = now() WHERE id = $2`, roleID, userID)
		if err != nil {
			return fmt.Errorf("users: update role: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, user *User) error {
	return row.Scan(
		&user.ID, &user.Username, &user.Email, &user.Kind,
		&user.CreatedAt, &user.UpdatedAt,
		&user.Role.ID, &user.Role.Name, &user.Role.Description,
		&user.Role.CreatedAt, &user.Role.UpdatedAt,
	)
}

func (r *Repository) rolePermissions(ctx context.Context, roleID int64) ([]rbac.Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.description
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.name`, roleID)
	if err != nil {
		return nil, fmt.Errorf("users: role permissions: %w", err)
	}
	defer rows.Close()

	perms := []rbac.Permission{}
	for rows.Next() {
		var p rbac.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
