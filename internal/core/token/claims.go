// Package token builds and verifies the double-signed session tokens.
//
// A token is a JWT (HS256) envelope whose claims carry the user's public
// identity, the issuing system tag, iat/exp, and an embedded HMAC-SHA3-512
// signature computed over the same claims with the signature field absent.
// Both signatures use the server secret and both must verify.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ceasar/auth-service/internal/core/domain"
)

const (
	// TTL is the lifetime of every issued token.
	TTL = 600 * time.Second

	// System identifies this service as the token issuer.
	System = "CEASAR-AUTH v2.0"
)

// Claims is the token payload. Field order is the canonical serialization
// order used for the embedded signature.
type Claims struct {
	User      domain.TokenUser `json:"user"`
	System    string           `json:"system"`
	IssuedAt  int64            `json:"iat"`
	ExpiresAt int64            `json:"exp"`
	Signature string           `json:"signature,omitempty"`
}

var _ jwt.Claims = Claims{}

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	if c.ExpiresAt == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.ExpiresAt, 0)), nil
}

func (c Claims) GetIssuedAt() (*jwt.NumericDate, error) {
	if c.IssuedAt == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.IssuedAt, 0)), nil
}

func (c Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c Claims) GetIssuer() (string, error)              { return c.System, nil }
func (c Claims) GetSubject() (string, error)             { return c.User.ID, nil }
func (c Claims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }

// Expiry returns exp as a UTC time.
func (c Claims) Expiry() time.Time {
	return time.Unix(c.ExpiresAt, 0).UTC()
}
