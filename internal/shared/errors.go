package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a duplicate unique key.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials indicates login failure. The message is shared by
	// the missing-user and wrong-password paths so callers cannot tell them apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden indicates the caller is authenticated but lacks permission.
	ErrForbidden = errors.New("forbidden")
	// ErrBadRequest indicates malformed input or a reference to a nonexistent role.
	ErrBadRequest = errors.New("bad request")
	// ErrConfiguration indicates required seed data is missing. The system
	// cannot operate without it, so it is surfaced loudly rather than swallowed.
	ErrConfiguration = errors.New("configuration error")
)
