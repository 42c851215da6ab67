package domain

import "time"

// TokenUser is the public identity carried inside a token.
type TokenUser struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Permissions []string `json:"permissions"`
}

// NewTokenUser projects the public fields of a credential record.
func NewTokenUser(u *User) TokenUser {
	perms := make([]string, len(u.Permissions))
	copy(perms, u.Permissions)
	return TokenUser{ID: u.ID, Username: u.Username, Permissions: perms}
}

// HasPermission reports whether p is part of the token's permission set.
func (t TokenUser) HasPermission(p string) bool {
	for _, have := range t.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// IssuedToken is the result of a successful login. User is the identity
// embedded in Token.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
	User      TokenUser
}

// Verdict is the outcome of a single token validation. Reason is nil when
// Valid is true and one of the ErrToken* sentinels otherwise.
type Verdict struct {
	Valid     bool
	Reason    error
	User      *TokenUser
	ExpiresAt time.Time // zero when the token could not be decoded
}

// Message is the human readable outcome shown to callers. It never exposes
// more than the rejection class.
func (v Verdict) Message() string {
	if v.Valid {
		return "Token is valid"
	}
	switch v.Reason {
	case ErrTokenMissing:
		return "Token is required"
	case ErrTokenExpired:
		return "Token has expired"
	case ErrTokenSignatureMismatch:
		return "Token signature is invalid"
	case ErrTokenUserNotFound:
		return "User not found"
	default:
		return "Invalid token"
	}
}
