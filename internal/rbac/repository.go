package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keystone-rbac/keystone/internal/shared"
)

// RepositoryPort defines data access for the role/permission entity graph.
// Every method that returns a Role returns it with its permission set resolved.
type RepositoryPort interface {
	FindRoleByName(ctx context.Context, name string) (*Role, error)
	GetRole(ctx context.Context, id int64) (*Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	FindPermissionsByNames(ctx context.Context, names []string) ([]Permission, error)
	EnsureRole(ctx context.Context, name, description string) (*Role, error)
	EnsurePermission(ctx context.Context, name, description string) (*Permission, error)
	SetRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
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

// FindRoleByName fetches a role and its permissions by unique name.
func (r *Repository) FindRoleByName(ctx context.Context, name string) (*Role, error) {
	return r.loadRole(ctx, `SELECT id, name, description, created_at, updated_at FROM roles WHERE name = $1`, name)
}

// GetRole fetches a role and its permissions by ID.
func (r *Repository) GetRole(ctx context.Context, id int64) (*Role, error) {
	return r.loadRole(ctx, `SELECT id, name, description, created_at, updated_at FROM roles WHERE id = $1`, id)
}

func (r *Repository) loadRole(ctx context.Context, query string, arg any) (*Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("rbac: load role: %w", err)
	}
	perms, err := r.rolePermissions(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	role.Permissions = perms
	return &role, nil
}

func (r *Repository) rolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.description
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.name`, roleID)
	if err != nil {
		return nil, fmt.Errorf("rbac: role permissions: %w", err)
	}
	defer rows.Close()

	perms := []Permission{}
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// ListRoles returns all roles with their permissions, ordered by name.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("rbac: list roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range roles {
		perms, err := r.rolePermissions(ctx, roles[i].ID)
		if err != nil {
			return nil, err
		}
		roles[i].Permissions = perms
	}
	return roles, nil
}

// ListPermissions returns all permissions ordered by name.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description FROM permissions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("rbac: list permissions: %w", err)
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// FindPermissionsByNames returns the permissions matching the given names.
// Unknown names are silently absent from the result.
func (r *Repository) FindPermissionsByNames(ctx context.Context, names []string) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description FROM permissions WHERE name = ANY($1) ORDER BY name`, names)
	if err != nil {
		return nil, fmt.Errorf("rbac: find permissions: %w", err)
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// EnsureRole upserts a role by name and returns it with current permissions.
func (r *Repository) EnsureRole(ctx context.Context, name, description string) (*Role, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO roles (name, description)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, updated_at = now()`,
		name, description)
	if err != nil {
		return nil, fmt.Errorf("rbac: ensure role: %w", err)
	}
	return r.FindRoleByName(ctx, name)
}

// EnsurePermission upserts a permission by name.
func (r *Repository) EnsurePermission(ctx context.Context, name, description string) (*Permission, error) {
	var p Permission
	err := r.pool.QueryRow(ctx, `
		INSERT INTO permissions (name, description)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
		RETURNING id, name, description`,
		name, description).Scan(&p.ID, &p.Name, &p.Description)
	if err != nil {
		return nil, fmt.Errorf("rbac: ensure permission: %w", err)
	}
	return &p, nil
}

// SetRolePermissions replaces the permission set of a role.
func (r *Repository) SetRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	existing, err := r.rolePermissions(ctx, roleID)
	if err != nil {
		return err
	}
	current := make(map[int64]struct{}, len(existing))
	for _, p := range existing {
		current[p.ID] = struct{}{}
	}
	keep := make(map[int64]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		keep[id] = struct{}{}
		if _, ok := current[id]; ok {
			continue
		}
		_, err := r.pool.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			roleID, id)
		if err != nil {
			return fmt.Errorf("rbac: attach permission: %w", err)
		}
	}
	for id := range current {
		if _, ok := keep[id]; ok {
			continue
		}
		_, err := r.pool.Exec(ctx,
			`DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`,
			roleID, id)
		if err != nil {
			return fmt.Errorf("rbac: detach permission: %w", err)
		}
	}
	return nil
}
