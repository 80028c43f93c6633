package shared

import "context"

// Principal describes the authenticated actor attached to a request. Its
// permission list is re-derived from the database on every authenticated call,
// so it reflects the current role assignment rather than the token snapshot.
type Principal struct {
	UserID      int64
	Email       string
	Username    string
	Role        string
	UserType    string
	Permissions []string
}

// HasPermission reports whether the principal holds the named permission.
func (p *Principal) HasPermission(name string) bool {
	if p == nil {
		return false
	}
	for _, perm := range p.Permissions {
		if perm == name {
			return true
		}
	}
	return false
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in the context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext retrieves the principal, or nil when the request is
// unauthenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
