package auth

import (
	"time"

	"github.com/keystone-rbac/keystone/internal/rbac"
)

// Kind distinguishes the two account populations.
type Kind string

const (
	KindCandidate Kind = "candidate"
	KindEmployee  Kind = "employee"
)

// Valid reports whether the kind is one of the known values.
func (k Kind) Valid() bool {
	return k == KindCandidate || k == KindEmployee
}

// User represents a principal account. A User loaded from the repository
// always carries its role with the role's permissions resolved; a detached
// user without authorization context is not representable.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Kind         Kind
	Role         rbac.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
