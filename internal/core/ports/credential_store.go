package ports

import (
	"context"

	"github.com/ceasar/auth-service/internal/core/domain"
)

// CredentialStore persists credential records keyed by username and by id.
//
// Create must be atomic with respect to the username: when two callers race
// on the same username exactly one succeeds and the other receives
// domain.ErrUserExists. Lookups that find nothing return domain.ErrUserNotFound.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}

// UserFinder is the read-only slice of CredentialStore the token verifier needs.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
