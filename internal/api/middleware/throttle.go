package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ceasar/auth-service/internal/api/metrics"
	"github.com/ceasar/auth-service/internal/core/ports"
)

const throttledMessage = "Too many login attempts, please try again later"

// LoginThrottle rejects requests from a client IP once the limiter's budget
// is spent. Limiter failures let the request through.
func LoginThrottle(limiter ports.LoginLimiter, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			allowed, err := limiter.Allow(c.Request().Context(), ip)
			if err != nil {
				log.Warn().Err(err).Str("ip", ip).Msg("login limiter unavailable")
				return next(c)
			}
			if !allowed {
				metrics.LoginsTotal.WithLabelValues("throttled").Inc()
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": throttledMessage})
			}
			return next(c)
		}
	}
}

// MemoryLimiter is an in-process LoginLimiter backed by echo's token bucket
// store. Used when no Redis is configured.
type MemoryLimiter struct {
	store *echomiddleware.RateLimiterMemoryStore
}

// NewMemoryLimiter allows limit attempts per window per key, refilled evenly.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(limit) / window.Seconds()),
			Burst:     limit,
			ExpiresIn: window,
		}),
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	return m.store.Allow(key)
}
