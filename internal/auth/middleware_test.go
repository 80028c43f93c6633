package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/keystone-rbac/keystone/internal/auth"
	"github.com/keystone-rbac/keystone/internal/rbac"
	"github.com/keystone-rbac/keystone/internal/shared"
)

func newTestAuthenticator(t *testing.T) (*auth.Authenticator, *auth.Service, *stubRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	issuer, err := auth.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	revoker := auth.NewRevoker(redisClient)

	repo := newStubRepo()
	service := auth.NewService(repo, newStubRoles(userRole()), issuer, revoker, bcrypt.MinCost)

	authenticator := &auth.Authenticator{
		Issuer:  issuer,
		Service: service,
		Revoker: revoker,
	}
	return authenticator, service, repo
}

func echoPrincipal(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := shared.PrincipalFromContext(r.Context())
		require.NotNil(t, principal)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticatorRejectsMissingToken(t *testing.T) {
	authenticator, _, _ := newTestAuthenticator(t)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	res := httptest.NewRecorder()
	authenticator.Middleware(echoPrincipal(t)).ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestAuthenticatorRejectsGarbageToken(t *testing.T) {
	authenticator, _, _ := newTestAuthenticator(t)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	res := httptest.NewRecorder()
	authenticator.Middleware(echoPrincipal(t)).ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestAuthenticatorAttachesPrincipal(t *testing.T) {
	authenticator, service, _ := newTestAuthenticator(t)

	_, err := service.Register(context.Background(), "u1", "u1@x.com", "password1", auth.KindCandidate)
	require.NoError(t, err)
	token, _, err := service.Login(context.Background(), "u1@x.com", "password1")
	require.NoError(t, err)

	var seen *shared.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	authenticator.Middleware(next).ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, seen)
	assert.Equal(t, int64(1), seen.UserID)
	assert.Equal(t, rbac.RoleUser, seen.Role)
	assert.Equal(t, []string{rbac.PermRead}, seen.Permissions)
}

func TestAuthenticatorRejectsRevokedToken(t *testing.T) {
	authenticator, service, _ := newTestAuthenticator(t)

	_, err := service.Register(context.Background(), "u1", "u1@x.com", "password1", auth.KindCandidate)
	require.NoError(t, err)
	token, claims, err := service.Login(context.Background(), "u1@x.com", "password1")
	require.NoError(t, err)

	require.NoError(t, service.Logout(context.Background(), claims))

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	authenticator.Middleware(echoPrincipal(t)).ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestAuthenticatorRejectsDeletedUser(t *testing.T) {
	authenticator, service, repo := newTestAuthenticator(t)

	_, err := service.Register(context.Background(), "u1", "u1@x.com", "password1", auth.KindCandidate)
	require.NoError(t, err)
	token, _, err := service.Login(context.Background(), "u1@x.com", "password1")
	require.NoError(t, err)

	delete(repo.byID, 1)
	delete(repo.byEmail, "u1@x.com")

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	authenticator.Middleware(echoPrincipal(t)).ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRevokerRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	revoker := auth.NewRevoker(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	revoked, err := revoker.IsRevoked(context.Background(), "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, revoker.Revoke(context.Background(), "jti-1", time.Minute))

	revoked, err = revoker.IsRevoked(context.Background(), "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}
