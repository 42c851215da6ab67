package token

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ceasar/auth-service/internal/core/domain"
	"github.com/ceasar/auth-service/internal/core/ports"
)

// Verifier decides whether a presented token is valid.
//
// Checks run in a fixed order and every one of them runs for a token that
// reaches it:
//  1. envelope decode and HS256 signature (expired envelopes stop here as expired)
//  2. the user referenced by the token still exists
//  3. the embedded signature matches a recomputation over a payload that
//     holds exactly the known claims
//  4. the current time is before exp
type Verifier struct {
	secret []byte
	users  ports.UserFinder
	now    func() time.Time
	parser *jwt.Parser
}

// NewVerifier returns domain.ErrMissingSecret when secret is empty.
func NewVerifier(secret string, users ports.UserFinder, opts ...Option) (*Verifier, error) {
	if secret == "" {
		return nil, domain.ErrMissingSecret
	}
	o := buildOptions(opts)
	return &Verifier{
		secret: []byte(secret),
		users:  users,
		now:    o.now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(o.now),
		),
	}, nil
}

// Verify always returns a verdict for bad tokens. The error is reserved for
// credential store failures, which the caller must treat as a 500.
func (v *Verifier) Verify(ctx context.Context, raw string) (domain.Verdict, error) {
	if raw == "" {
		return reject(domain.ErrTokenMissing), nil
	}

	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		// The envelope signature is checked before exp, so an expired error
		// means the token really came from us.
		if errors.Is(err, jwt.ErrTokenExpired) && claims.ExpiresAt > 0 {
			return expired(claims), nil
		}
		return reject(domain.ErrTokenMalformed), nil
	}

	if _, err := v.users.FindByID(ctx, claims.User.ID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return reject(domain.ErrTokenUserNotFound), nil
		}
		return domain.Verdict{}, fmt.Errorf("verify token: %w", err)
	}

	if !v.canonical(raw) || !VerifySignature(v.secret, *claims) {
		return reject(domain.ErrTokenSignatureMismatch), nil
	}

	if !v.now().Before(time.UnixMilli(claims.ExpiresAt * 1000)) {
		return expired(claims), nil
	}

	user := claims.User
	return domain.Verdict{Valid: true, User: &user, ExpiresAt: claims.Expiry()}, nil
}

// canonical reports whether the payload segment of raw decodes into Claims
// with no unknown fields and an explicit permissions list. Anything else would
// be dropped or normalized before the embedded signature is recomputed.
func (v *Verifier) canonical(raw string) bool {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return false
	}
	payload, err := v.parser.DecodeSegment(parts[1])
	if err != nil {
		return false
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	var c Claims
	if err := dec.Decode(&c); err != nil || dec.More() {
		return false
	}
	return c.User.Permissions != nil
}

func reject(reason error) domain.Verdict {
	return domain.Verdict{Reason: reason}
}

func expired(c *Claims) domain.Verdict {
	return domain.Verdict{Reason: domain.ErrTokenExpired, ExpiresAt: c.Expiry()}
}
