package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/keystone-rbac/keystone/internal/platform/httpx"
	"github.com/keystone-rbac/keystone/internal/shared"
)

// Middleware wires the authorization guard into HTTP routing. The permission
// requirement for an operation is declared once, at route definition time, by
// passing it to RequireAny; the guard reads it back at dispatch time.
type Middleware struct {
	Logger *slog.Logger

	// Denied, when set, is called with the route pattern of every rejected
	// request. Wired to the denial counter in production, left nil in tests.
	Denied func(route string)
}

// RequireAny guards a route group with a permission requirement satisfied by
// any one of the given names. It runs strictly after authentication: the
// principal, if any, is already in the request context. Calling it with no
// names leaves the group unguarded.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	required := dedupe(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			if Allowed(required, principal) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Warn("permission denied",
					slog.String("path", r.URL.Path),
					slog.Any("required", required))
			}
			if m.Denied != nil {
				m.Denied(routePattern(r))
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient permissions")
		})
	}
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func dedupe(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	result := make([]string, 0, len(perms))
	for _, p := range perms {
		p = normalize(p)
		if p == "" {
			continue
		}
		if _, ok := unique[p]; ok {
			continue
		}
		unique[p] = struct{}{}
		result = append(result, p)
	}
	return result
}
