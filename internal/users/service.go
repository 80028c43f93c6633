package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/keystone-rbac/keystone/internal/rbac"
	"github.com/keystone-rbac/keystone/internal/shared"
)

// Service handles user management business logic.
type Service struct {
	repo  RepositoryPort
	roles rbac.RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, roles rbac.RepositoryPort) *Service {
	return &Service{repo: repo, roles: roles}
}

// ListUsers returns one page of users.
func (s *Service) ListUsers(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	return s.repo.ListUsers(ctx, page, perPage)
}

// GetUser returns a single user by ID.
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

// UpdateUserRole reassigns a user's role by role name. A missing user is
// NotFound, a missing role is BadRequest. The returned user is re-fetched
// from storage so the caller observes the authoritative post-update state
// rather than a stale in-memory object.
func (s *Service) UpdateUserRole(ctx context.Context, userID int64, roleName string) (*User, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	role, err := s.roles.FindRoleByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: role %q not found", shared.ErrBadRequest, roleName)
		}
		return nil, err
	}

	if err := s.repo.UpdateUserRole(ctx, userID, role.ID); err != nil {
		return nil, err
	}

	return s.repo.GetUser(ctx, userID)
}
