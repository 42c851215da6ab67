package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ceasar/auth-service/internal/core/domain"
)

// Context keys set by RequireToken.
const (
	ContextKeyUser      = "auth_user"
	ContextKeyExpiresAt = "auth_expires_at"
)

// TokenValidator is the subset of the auth service used by RequireToken.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (domain.Verdict, error)
}

// RequireToken validates the bearer token and injects the identity into context.
func RequireToken(validator TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			verdict, err := validator.Validate(c.Request().Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				return err
			}
			if !verdict.Valid || verdict.User == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, verdict.Message())
			}

			c.Set(ContextKeyUser, *verdict.User)
			c.Set(ContextKeyExpiresAt, verdict.ExpiresAt)

			return next(c)
		}
	}
}
