package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keystone-rbac/keystone/internal/rbac"
	"github.com/keystone-rbac/keystone/internal/shared"
)

// Repository defines persistence operations for the identity service. Lookups
// return the user aggregate with role and permissions resolved in one shot.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

const userSelect = `
	SELECT u.id, u.username, u.email, u.password_hash, u.kind, u.created_at, u.updated_at,
	       r.id, r.name, r.description, r.created_at, r.updated_at
	FROM users u
	JOIN roles r ON r.id = u.role_id`

// FindByEmail fetches a user aggregate by unique email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.loadUser(ctx, userSelect+` WHERE u.email = $1`, email)
}

// FindByID fetches a user aggregate by ID.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	return r.loadUser(ctx, userSelect+` WHERE u.id = $1`, id)
}

func (r *PGRepository) loadUser(ctx context.Context, query string, arg any) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Kind,
		&user.CreatedAt, &user.UpdatedAt,
		&user.Role.ID, &user.Role.Name, &user.Role.Description,
		&user.Role.CreatedAt, &user.Role.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("auth: load user: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.description
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.name`, user.Role.ID)
	if err != nil {
		return nil, fmt.Errorf("auth: load permissions: %w", err)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	user.Role.Permissions = perms
	return &user, nil
}

// Create persists a new user and returns it with generated fields populated.
func (r *PGRepository) Create(ctx context.Context, user *User) (*User, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, kind, role_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		user.Username, user.Email, user.PasswordHash, user.Kind, user.Role.ID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return nil, shared.ErrConflict
		}
		return nil, fmt.Errorf("auth: create user: %w", err)
	}
	return user, nil
}
