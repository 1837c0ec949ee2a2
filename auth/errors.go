package auth

import "errors"

// Sentinel errors for credentials and accounts.
var (
	// Credential errors
	ErrMissingCredentials = errors.New("auth: missing credentials")
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrTokenExpired       = errors.New("auth: token expired")
	ErrTokenMalformed     = errors.New("auth: token malformed")
	ErrKeyNotFound        = errors.New("auth: signing key not found")

	// Account errors
	ErrUserExists   = errors.New("auth: user already exists with this email")
	ErrUserNotFound = errors.New("auth: user not found")
	ErrInvalidInput = errors.New("auth: missing required fields")
	ErrInvalidPlan  = errors.New("auth: unknown plan")
	ErrNilStore     = errors.New("auth: nil store")
)
