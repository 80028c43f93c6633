package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/keystone-rbac/keystone/internal/rbac"
	"github.com/keystone-rbac/keystone/internal/shared"
)

// Service wraps registration, authentication and principal re-hydration.
type Service struct {
	repo       Repository
	roles      rbac.RepositoryPort
	issuer     *TokenIssuer
	revoker    *Revoker
	bcryptCost int
}

// NewService constructs a new Service. A nil revoker disables logout support.
func NewService(repo Repository, roles rbac.RepositoryPort, issuer *TokenIssuer, revoker *Revoker, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, roles: roles, issuer: issuer, revoker: revoker, bcryptCost: bcryptCost}
}

// Register creates a new account with the default "user" role. The default
// role missing from storage is a deployment-integrity failure, not a
// per-request condition.
func (s *Service) Register(ctx context.Context, username, email, password string, kind Kind) (*User, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown user kind %q", shared.ErrBadRequest, kind)
	}

	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: email already registered", shared.ErrConflict)
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	defaultRole, err := s.roles.FindRoleByName(ctx, rbac.RoleUser)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: default role %q is not seeded", shared.ErrConfiguration, rbac.RoleUser)
		}
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user := &User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Kind:         kind,
		Role:         *defaultRole,
	}
	return s.repo.Create(ctx, user)
}

// Login validates credentials and issues a token carrying a snapshot of the
// user's role and permission names. Every failure path returns the same
// generic error so callers cannot probe which accounts exist.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Claims, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}
	return s.issuer.Issue(user)
}

// Validate re-hydrates a principal from previously issued claims. It fails
// closed: a missing subject or a deleted user yields a nil principal with no
// error, which the caller must treat as unauthenticated. Permissions come from
// the database, not the token, so role edits are observed on the next call.
func (s *Service) Validate(ctx context.Context, claims *Claims) (*shared.Principal, error) {
	id, err := claims.UserID()
	if err != nil {
		return nil, nil
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shared.Principal{
		UserID:      user.ID,
		Email:       user.Email,
		Username:    user.Username,
		Role:        user.Role.Name,
		UserType:    string(user.Kind),
		Permissions: user.Role.PermissionNames(),
	}, nil
}

// Logout revokes the presented token for its remaining validity window.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if s.revoker == nil || claims == nil {
		return nil
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
			ttl = remaining
		}
	}
	return s.revoker.Revoke(ctx, claims.ID, ttl)
}

// GetProfile fetches the user aggregate for the given ID.
func (s *Service) GetProfile(ctx context.Context, userID int64) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}
