package users

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone-rbac/keystone/internal/rbac"
	"github.com/keystone-rbac/keystone/internal/shared"
)

type mockRepository struct {
	users map[int64]*User
	roles map[int64]rbac.Role
}

func newMockRepository(roles ...rbac.Role) *mockRepository {
	m := &mockRepository{
		users: make(map[int64]*User),
		roles: make(map[int64]rbac.Role),
	}
	for _, role := range roles {
		m.roles[role.ID] = role
	}
	return m
}

func (m *mockRepository) ListUsers(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	var out []User
	for _, user := range m.users {
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	meta := shared.NewPagination(page, perPage, len(out))
	low := meta.Offset()
	if low > len(out) {
		low = len(out)
	}
	high := low + meta.PerPage
	if high > len(out) {
		high = len(out)
	}
	return out[low:high], meta, nil
}

func (m *mockRepository) GetUser(ctx context.Context, id int64) (*User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (m *mockRepository) UpdateUserRole(ctx context.Context, userID, roleID int64) error {
	user, ok := m.users[userID]
	if !ok {
		return shared.ErrNotFound
	}
	role, ok := m.roles[roleID]
	if !ok {
		return shared.ErrBadRequest
	}
	user.Role = role
	return nil
}

type mockRolesPort struct {
	byName map[string]*rbac.Role
}

func newMockRolesPort(roles ...rbac.Role) *mockRolesPort {
	m := &mockRolesPort{byName: make(map[string]*rbac.Role)}
	for i := range roles {
		m.byName[roles[i].Name] = &roles[i]
	}
	return m
}

func (m *mockRolesPort) FindRoleByName(ctx context.Context, name string) (*rbac.Role, error) {
	role, ok := m.byName[name]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *role
	return &clone, nil
}

func (m *mockRolesPort) GetRole(ctx context.Context, id int64) (*rbac.Role, error) {
	for _, role := range m.byName {
		if role.ID == id {
			clone := *role
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRolesPort) ListRoles(ctx context.Context) ([]rbac.Role, error) { return nil, nil }
func (m *mockRolesPort) ListPermissions(ctx context.Context) ([]rbac.Permission, error) {
	return nil, nil
}
func (m *mockRolesPort) FindPermissionsByNames(ctx context.Context, names []string) ([]rbac.Permission, error) {
	return nil, nil
}
func (m *mockRolesPort) EnsureRole(ctx context.Context, name, description string) (*rbac.Role, error) {
	return nil, errors.New("not supported")
}
func (m *mockRolesPort) EnsurePermission(ctx context.Context, name, description string) (*rbac.Permission, error) {
	return nil, errors.New("not supported")
}
func (m *mockRolesPort) SetRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	return errors.New("not supported")
}

func testRoles() (rbac.Role, rbac.Role) {
	userRole := rbac.Role{
		ID:          2,
		Name:        rbac.RoleUser,
		Permissions: []rbac.Permission{{ID: 1, Name: rbac.PermRead}},
	}
	adminRole := rbac.Role{
		ID:   1,
		Name: rbac.RoleAdmin,
		Permissions: []rbac.Permission{
			{ID: 1, Name: rbac.PermRead},
			{ID: 2, Name: rbac.PermUpdate},
			{ID: 3, Name: rbac.PermManageUsers},
		},
	}
	return userRole, adminRole
}

func TestUpdateUserRole(t *testing.T) {
	userRole, adminRole := testRoles()
	repo := newMockRepository(userRole, adminRole)
	repo.users[3] = &User{ID: 3, Username: "u3", Email: "u3@x.com", Kind: "candidate", Role: userRole}

	service := NewService(repo, newMockRolesPort(userRole, adminRole))

	updated, err := service.UpdateUserRole(context.Background(), 3, rbac.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, updated.Role.Name)
	assert.Contains(t, updated.Role.PermissionNames(), rbac.PermManageUsers)
}

func TestUpdateUserRoleUnknownRole(t *testing.T) {
	userRole, adminRole := testRoles()
	repo := newMockRepository(userRole, adminRole)
	repo.users[3] = &User{ID: 3, Username: "u3", Role: userRole}

	service := NewService(repo, newMockRolesPort(userRole, adminRole))

	_, err := service.UpdateUserRole(context.Background(), 3, "nonexistent_role")
	require.ErrorIs(t, err, shared.ErrBadRequest)
}

func TestUpdateUserRoleUnknownUser(t *testing.T) {
	userRole, adminRole := testRoles()
	service := NewService(newMockRepository(userRole, adminRole), newMockRolesPort(userRole, adminRole))

	_, err := service.UpdateUserRole(context.Background(), 999, rbac.RoleAdmin)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetUser(t *testing.T) {
	userRole, adminRole := testRoles()
	repo := newMockRepository(userRole, adminRole)
	repo.users[1] = &User{ID: 1, Username: "u1", Role: userRole}

	service := NewService(repo, newMockRolesPort(userRole, adminRole))

	user, err := service.GetUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.Username)

	_, err = service.GetUser(context.Background(), 2)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListUsers(t *testing.T) {
	userRole, adminRole := testRoles()
	repo := newMockRepository(userRole, adminRole)
	repo.users[1] = &User{ID: 1, Username: "u1", Role: userRole}
	repo.users[2] = &User{ID: 2, Username: "u2", Role: adminRole}

	service := NewService(repo, newMockRolesPort(userRole, adminRole))

	list, meta, err := service.ListUsers(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, meta.Total)
	assert.Equal(t, 1, meta.Page)

	page2, meta2, err := service.ListUsers(context.Background(), 2, 1)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, int64(2), page2[0].ID)
	assert.Equal(t, 2, meta2.TotalPages)
}
