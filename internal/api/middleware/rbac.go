package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ceasar/auth-service/internal/core/domain"
)

// RequirePermission allows the request when the authenticated user holds at
// least one of the given permissions. It must run after RequireToken.
func RequirePermission(allowed ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := c.Get(ContextKeyUser).(domain.TokenUser)
			if !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			for _, p := range allowed {
				if user.HasPermission(p) {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}
	}
}
