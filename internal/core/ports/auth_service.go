package ports

import (
	"context"

	"github.com/ceasar/auth-service/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (domain.IssuedToken, error)
	Validate(ctx context.Context, token string) (domain.Verdict, error)
}
