package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone-rbac/keystone/internal/shared"
)

func TestAllowedEmptyRequirement(t *testing.T) {
	assert.True(t, Allowed(nil, nil))
	assert.True(t, Allowed([]string{}, nil))
	assert.True(t, Allowed(nil, &shared.Principal{UserID: 1, Permissions: []string{"read"}}))
}

func TestAllowedDeniesWithoutPrincipal(t *testing.T) {
	assert.False(t, Allowed([]string{"read"}, nil))
}

func TestAllowedDeniesWithoutPermissionList(t *testing.T) {
	assert.False(t, Allowed([]string{"read"}, &shared.Principal{UserID: 1}))
}

func TestAllowedOrSemantics(t *testing.T) {
	p := &shared.Principal{UserID: 1, Permissions: []string{"read:self", "update:self"}}

	assert.True(t, Allowed([]string{"read", "read:self"}, p))
	assert.True(t, Allowed([]string{"update:self"}, p))
	assert.False(t, Allowed([]string{"read", "delete"}, p))
	assert.False(t, Allowed([]string{"delete:self"}, p))
}

func TestAllowedNormalizesNames(t *testing.T) {
	p := &shared.Principal{UserID: 1, Permissions: []string{"Read"}}
	assert.True(t, Allowed([]string{" read "}, p))
}

func TestAllowOwnedBlanketIgnoresOwnership(t *testing.T) {
	p := &shared.Principal{UserID: 5, Permissions: []string{PermRead}}

	require.NoError(t, AllowOwned(p, PermRead, PermReadSelf, 5))
	require.NoError(t, AllowOwned(p, PermRead, PermReadSelf, 7))
}

func TestAllowOwnedSelfRequiresOwnership(t *testing.T) {
	p := &shared.Principal{UserID: 5, Permissions: []string{PermReadSelf}}

	require.NoError(t, AllowOwned(p, PermRead, PermReadSelf, 5))

	err := AllowOwned(p, PermRead, PermReadSelf, 7)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestAllowOwnedNeitherPermissionDenies(t *testing.T) {
	p := &shared.Principal{UserID: 5, Permissions: []string{"update"}}

	err := AllowOwned(p, PermRead, PermReadSelf, 5)
	require.ErrorIs(t, err, shared.ErrForbidden)

	require.ErrorIs(t, AllowOwned(nil, PermRead, PermReadSelf, 5), shared.ErrForbidden)
}

func TestRoleKnowsItsPermissionNames(t *testing.T) {
	role := Role{
		Name: RoleCandidate,
		Permissions: []Permission{
			{ID: 1, Name: PermRead},
			{ID: 2, Name: PermReadSelf},
			{ID: 3, Name: PermUpdateSelf},
		},
	}
	assert.Equal(t, []string{PermRead, PermReadSelf, PermUpdateSelf}, role.PermissionNames())
}
