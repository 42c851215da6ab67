package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ceasar/auth-service/internal/core/domain"
)

// Builder issues tokens for users whose password has already been checked.
type Builder struct {
	secret []byte
	now    func() time.Time
}

// NewBuilder returns domain.ErrMissingSecret when secret is empty.
func NewBuilder(secret string, opts ...Option) (*Builder, error) {
	if secret == "" {
		return nil, domain.ErrMissingSecret
	}
	o := buildOptions(opts)
	return &Builder{secret: []byte(secret), now: o.now}, nil
}

// Issue signs a token for user that expires TTL after the current second.
func (b *Builder) Issue(user *domain.User) (domain.IssuedToken, error) {
	if len(b.secret) == 0 {
		return domain.IssuedToken{}, domain.ErrMissingSecret
	}

	issuedAt := b.now().Unix()
	claims := Claims{
		User:      domain.NewTokenUser(user),
		System:    System,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt + int64(TTL/time.Second),
	}

	sig, err := Sign(b.secret, claims)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("issue token: %w", err)
	}
	claims.Signature = sig

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("issue token: %w", err)
	}

	return domain.IssuedToken{Token: signed, ExpiresAt: claims.Expiry(), User: claims.User}, nil
}
