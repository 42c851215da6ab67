package domain

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStoreUnavailable   = errors.New("credential store unavailable")
	ErrRateLimited        = errors.New("rate limited")

	// ErrMissingSecret is returned when a token component is built without a
	// signing key.
	ErrMissingSecret = errors.New("token secret key is not configured")
)

// Token rejection reasons. A Verdict carries one of these when Valid is false.
var (
	ErrTokenMissing           = errors.New("token missing")
	ErrTokenMalformed         = errors.New("token malformed")
	ErrTokenSignatureMismatch = errors.New("token signature mismatch")
	ErrTokenExpired           = errors.New("token expired")
	ErrTokenUserNotFound      = errors.New("token user not found")
)
