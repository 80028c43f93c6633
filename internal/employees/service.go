package employees

import (
	"context"

	"github.com/keystone-rbac/keystone/internal/rbac"
	"github.com/keystone-rbac/keystone/internal/shared"
)

// Service handles employee record business logic, including the self-scoped
// ownership refinement. The route guard has already verified that the caller
// holds the blanket permission OR its ":self" variant; only after the record
// is loaded can this layer tell which of the two actually applies.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create persists a new employee record.
func (s *Service) Create(ctx context.Context, name, email, position string) (*Employee, error) {
	return s.repo.Create(ctx, &Employee{Name: name, Email: email, Position: position})
}

// List returns one page of employee records.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Employee, shared.Pagination, error) {
	return s.repo.List(ctx, page, perPage)
}

// Get fetches an employee record. A nil principal means an internal call with
// no ownership restriction; otherwise the caller must hold "read" or own the
// record while holding "read:self".
func (s *Service) Get(ctx context.Context, id int64, principal *shared.Principal) (*Employee, error) {
	employee, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if principal == nil {
		return employee, nil
	}
	if err := rbac.AllowOwned(principal, rbac.PermRead, rbac.PermReadSelf, employee.ID); err != nil {
		return nil, err
	}
	return employee, nil
}

// Delete removes an employee record under the same ownership refinement with
// the "delete" permission pair.
func (s *Service) Delete(ctx context.Context, id int64, principal *shared.Principal) error {
	employee, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if principal != nil {
		if err := rbac.AllowOwned(principal, rbac.PermDelete, rbac.PermDeleteSelf, employee.ID); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, employee.ID)
}
