package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ceasar/auth-service/internal/api/middleware"
	"github.com/ceasar/auth-service/internal/core/domain"
)

// ctxUser extracts the identity injected by the RequireToken middleware.
// A missing identity means the route was mounted without the middleware.
func ctxUser(c echo.Context) (domain.TokenUser, time.Time, error) {
	user, ok := c.Get(middleware.ContextKeyUser).(domain.TokenUser)
	if !ok || user.ID == "" {
		return domain.TokenUser{}, time.Time{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	expiresAt, _ := c.Get(middleware.ContextKeyExpiresAt).(time.Time)
	return user, expiresAt, nil
}
