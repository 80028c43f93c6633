package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/keystone-rbac/keystone/internal/platform/httpx"
	"github.com/keystone-rbac/keystone/internal/shared"
)

type claimsContextKey struct{}

// Authenticator is the first stage of the two-stage pipeline: it turns a
// bearer token into a principal in the request context, or rejects the
// request. Authorization middleware runs strictly after it.
type Authenticator struct {
	Logger  *slog.Logger
	Issuer  *TokenIssuer
	Service *Service
	Revoker *Revoker
}

// Middleware authenticates the request. The principal it attaches is
// re-derived from storage on every call, so a token with stale permission
// claims still authorizes against current data.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}

		claims, err := a.Issuer.Parse(token)
		if err != nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
			return
		}

		if a.Revoker != nil {
			revoked, err := a.Revoker.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				a.logError("revocation check", err)
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if revoked {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
				return
			}
		}

		principal, err := a.Service.Validate(r.Context(), claims)
		if err != nil {
			a.logError("validate principal", err)
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		if principal == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
			return
		}

		ctx := shared.ContextWithPrincipal(r.Context(), principal)
		ctx = contextWithClaims(ctx, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) logError(msg string, err error) {
	if a.Logger != nil {
		a.Logger.Error(msg, slog.Any("error", err))
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func contextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext retrieves the verified claims for the current request.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsContextKey{}).(*Claims)
	return claims
}
