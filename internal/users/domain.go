package users

import (
	"time"

	"github.com/keystone-rbac/keystone/internal/rbac"
)

// User is the management projection of an account. It never carries the
// password digest, and its role arrives with permissions resolved.
type User struct {
	ID        int64
	Username  string
	Email     string
	Kind      string
	Role      rbac.Role
	CreatedAt time.Time
	UpdatedAt time.Time
}
