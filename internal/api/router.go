package api

import (
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/ceasar/auth-service/docs"
	"github.com/ceasar/auth-service/internal/api/handler"
	"github.com/ceasar/auth-service/internal/api/middleware"
	"github.com/ceasar/auth-service/internal/core/domain"
	"github.com/ceasar/auth-service/internal/core/ports"
)

// Dependencies are the collaborators the HTTP layer needs.
type Dependencies struct {
	AuthService ports.AuthService
	// LoginLimiter throttles POST /login per client IP. Nil disables throttling.
	LoginLimiter ports.LoginLimiter
	// Audit receives authentication events. Nil disables the audit trail.
	Audit ports.AuditRecorder
	// Readiness lists the dependencies pinged by GET /health/ready.
	Readiness map[string]handler.Pinger

	CORSOrigin string
	// TrustedProxies are the peers whose X-Forwarded-For header is believed
	// when resolving the client IP. Empty means the TCP peer is the client.
	TrustedProxies []*net.IPNet
	Log            zerolog.Logger

	// Registerer and Gatherer back the HTTP metrics and GET /metrics.
	// Metrics are disabled when Registerer is nil.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	e.IPExtractor = clientIPExtractor(deps.TrustedProxies)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{deps.CORSOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	if deps.Registerer != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace:  "ceasar_auth",
			Subsystem:  "http",
			Registerer: deps.Registerer,
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics"
			},
		}))
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
			Gatherer: deps.Gatherer,
		}))
	}

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.AuthService, deps.Audit)

	// --- Auth routes ---
	e.POST("/register", authHandler.Register)
	if deps.LoginLimiter != nil {
		e.POST("/login", authHandler.Login, middleware.LoginThrottle(deps.LoginLimiter, deps.Log))
	} else {
		e.POST("/login", authHandler.Login)
	}
	e.POST("/validate", authHandler.Validate)
	e.GET("/me", authHandler.Me,
		middleware.RequireToken(deps.AuthService),
		middleware.RequirePermission(domain.PermissionUser),
	)

	// --- Health checks (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// clientIPExtractor decides what c.RealIP returns. Login throttling and the
// audit trail key on it, so forwarding headers are only honoured when they
// arrive from a configured proxy.
func clientIPExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, r := range trusted {
		opts = append(opts, echo.TrustIPRange(r))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}
