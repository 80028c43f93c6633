package rbac

import "time"

// Permission represents an atomic named capability such as "read" or
// "delete:self". The set is seeded once and never deleted in normal operation.
type Permission struct {
	ID          int64
	Name        string
	Description string
}

// Role is a named, reusable bundle of permissions. A Role value always carries
// its full permission set; repositories never return a partially loaded role.
type Role struct {
	ID          int64
	Name        string
	Description string
	Permissions []Permission
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PermissionNames returns the names of the role's permissions in load order.
func (r Role) PermissionNames() []string {
	names := make([]string, len(r.Permissions))
	for i, p := range r.Permissions {
		names[i] = p.Name
	}
	return names
}

// Well-known role names the system is seeded with.
const (
	RoleAdmin     = "admin"
	RoleUser      = "user"
	RoleCandidate = "candidate_role"
	RoleEmployee  = "employee_role"
)

// Seeded permission names.
const (
	PermCreate           = "create"
	PermRead             = "read"
	PermUpdate           = "update"
	PermDelete           = "delete"
	PermReadSelf         = "read:self"
	PermUpdateSelf       = "update:self"
	PermDeleteSelf       = "delete:self"
	PermManageCandidates = "manage:candidates"
	PermManageEmployees  = "manage:employees"
	PermManageUsers      = "manage:users"
)
