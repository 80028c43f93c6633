package rbac

import (
	"strings"

	"github.com/keystone-rbac/keystone/internal/shared"
)

// Allowed is the authorization decision procedure. It is pure: no state is
// touched and no error is raised; the caller converts false into a Forbidden
// response.
//
// An empty requirement always allows, including for a nil principal — routes
// without a declared requirement are intentionally public. A principal without
// a permission list always denies. Otherwise the requirement is satisfied when
// any one of the required names is held (logical OR).
func Allowed(required []string, p *shared.Principal) bool {
	if len(required) == 0 {
		return true
	}
	if p == nil || p.Permissions == nil {
		return false
	}
	held := make(map[string]struct{}, len(p.Permissions))
	for _, name := range p.Permissions {
		held[normalize(name)] = struct{}{}
	}
	for _, name := range required {
		if _, ok := held[normalize(name)]; ok {
			return true
		}
	}
	return false
}

// AllowOwned enforces the blanket-versus-self refinement once the resource and
// its owner are known. Holding the blanket permission allows unconditionally;
// holding only the ":self" variant allows only when the caller owns the
// resource.
func AllowOwned(p *shared.Principal, blanket, selfPerm string, ownerID int64) error {
	if p == nil {
		return shared.ErrForbidden
	}
	if p.HasPermission(blanket) {
		return nil
	}
	if p.HasPermission(selfPerm) && ownerID == p.UserID {
		return nil
	}
	return shared.ErrForbidden
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
