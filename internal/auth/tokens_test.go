package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone-rbac/keystone/internal/auth"
	"github.com/keystone-rbac/keystone/internal/rbac"
)

func TestTokenIssuerRequiresSecret(t *testing.T) {
	_, err := auth.NewTokenIssuer("", time.Hour)
	require.Error(t, err)
}

func TestTokenIssueParseRoundTrip(t *testing.T) {
	issuer, err := auth.NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)

	user := &auth.User{
		ID:       42,
		Username: "u1",
		Email:    "u1@x.com",
		Kind:     auth.KindEmployee,
		Role:     rbac.Role{Name: rbac.RoleEmployee, Permissions: []rbac.Permission{{Name: rbac.PermRead}, {Name: rbac.PermReadSelf}}},
	}

	token, issued, err := issuer.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, rbac.RoleEmployee, claims.Role)
	assert.Equal(t, []string{rbac.PermRead, rbac.PermReadSelf}, claims.Permissions)
	assert.Equal(t, "employee", claims.UserType)
	assert.Equal(t, issued.ID, claims.ID)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenParseRejectsWrongSecret(t *testing.T) {
	issuer, err := auth.NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)
	other, err := auth.NewTokenIssuer("different", time.Hour)
	require.NoError(t, err)

	token, _, err := issuer.Issue(&auth.User{ID: 1, Role: rbac.Role{Name: rbac.RoleUser}})
	require.NoError(t, err)

	_, err = other.Parse(token)
	require.Error(t, err)
}

func TestTokenParseRejectsGarbage(t *testing.T) {
	issuer, err := auth.NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)

	_, err = issuer.Parse("not-a-token")
	require.Error(t, err)
}

func TestClaimsUserIDFailsClosed(t *testing.T) {
	var claims *auth.Claims
	_, err := claims.UserID()
	require.Error(t, err)

	_, err = (&auth.Claims{}).UserID()
	require.Error(t, err)
}
