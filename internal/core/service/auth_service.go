package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ceasar/auth-service/internal/core/domain"
	"github.com/ceasar/auth-service/internal/core/ports"
)

// TokenIssuer signs tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *domain.User) (domain.IssuedToken, error)
}

// TokenVerifier checks presented tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (domain.Verdict, error)
}

// AuthService implements registration, login and token validation.
type AuthService struct {
	store    ports.CredentialStore
	hasher   ports.PasswordHasher
	issuer   TokenIssuer
	verifier TokenVerifier
	log      zerolog.Logger

	// dummyHash is verified against when a login names an unknown user so
	// both failure paths cost one hash verification.
	dummyHash string
}

func NewAuthService(
	store ports.CredentialStore,
	hasher ports.PasswordHasher,
	issuer TokenIssuer,
	verifier TokenVerifier,
	log zerolog.Logger,
) (*AuthService, error) {
	dummy, err := hasher.Hash("ceasar-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}
	return &AuthService{
		store:     store,
		hasher:    hasher,
		issuer:    issuer,
		verifier:  verifier,
		log:       log,
		dummyHash: dummy,
	}, nil
}

// Register creates a credential record with the default permission set.
// No token is issued.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, domain.ErrValidation
	}

	// Fast path for the common duplicate case. The store's Create is the
	// authority when two registrations race past this check.
	if _, err := s.store.FindByUsername(ctx, username); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	created, err := s.store.Create(ctx, &domain.User{
		ID:           domain.NewID(),
		Username:     username,
		PasswordHash: hash,
		Permissions:  domain.DefaultPermissions(),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return created, nil
}

// Login checks the password and issues a token. Unknown users and wrong
// passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.IssuedToken, error) {
	if username == "" || password == "" {
		return domain.IssuedToken{}, domain.ErrInvalidCredentials
	}

	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_, _ = s.hasher.Verify(password, s.dummyHash)
			return domain.IssuedToken{}, domain.ErrInvalidCredentials
		}
		return domain.IssuedToken{}, fmt.Errorf("login: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("stored password hash is unreadable")
	}
	if !ok {
		return domain.IssuedToken{}, domain.ErrInvalidCredentials
	}

	issued, err := s.issuer.Issue(user)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("login: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Time("expires_at", issued.ExpiresAt).Msg("token issued")
	return issued, nil
}

// Validate returns the verifier's verdict. Store failures are returned as
// errors; every other rejection is part of the verdict.
func (s *AuthService) Validate(ctx context.Context, token string) (domain.Verdict, error) {
	verdict, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("validate: %w", err)
	}

	if !verdict.Valid {
		s.log.Debug().Str("reason", verdict.Reason.Error()).Msg("token rejected")
	}
	return verdict, nil
}
