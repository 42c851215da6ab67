// Command server runs the Ceasar auth HTTP API.
//
// @title                       Ceasar Auth API
// @version                     2.0
// @description                 Username and password registration, login and token validation.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ceasar/auth-service/internal/api"
	"github.com/ceasar/auth-service/internal/api/handler"
	"github.com/ceasar/auth-service/internal/api/middleware"
	"github.com/ceasar/auth-service/internal/core/ports"
	"github.com/ceasar/auth-service/internal/core/service"
	"github.com/ceasar/auth-service/internal/core/token"
	"github.com/ceasar/auth-service/internal/infrastructure/config"
	"github.com/ceasar/auth-service/internal/infrastructure/db"
	"github.com/ceasar/auth-service/internal/infrastructure/db/redis"
	"github.com/ceasar/auth-service/internal/infrastructure/hashing"
	"github.com/ceasar/auth-service/internal/infrastructure/queue"
	"github.com/ceasar/auth-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "ceasar-auth",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := db.Open(ctx, cfg.Store.URI, cfg.Store.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("closing credential store")
		}
	}()

	readiness := map[string]handler.Pinger{"store": store}

	var limiter ports.LoginLimiter = middleware.NewMemoryLimiter(cfg.LoginRate.Limit, cfg.LoginRate.Window)
	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		limiter = redis.NewSlidingWindowLimiter(rdb, cfg.LoginRate.Limit, cfg.LoginRate.Window)
		readiness["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	hasher, err := hashing.New(cfg.PasswordHasher)
	if err != nil {
		return err
	}
	builder, err := token.NewBuilder(cfg.JWTSecret)
	if err != nil {
		return err
	}
	verifier, err := token.NewVerifier(cfg.JWTSecret, store)
	if err != nil {
		return err
	}
	authService, err := service.NewAuthService(store, hasher, builder, verifier, log)
	if err != nil {
		return err
	}

	proxies, err := cfg.ProxyRanges()
	if err != nil {
		return err
	}

	audit := queue.NewDispatcher(cfg.AuditWorkers, queue.NewLogSink(log), log)
	audit.Start(ctx)
	defer audit.Close()

	e := api.NewRouter(api.Dependencies{
		AuthService:    authService,
		LoginLimiter:   limiter,
		Audit:          audit,
		Readiness:      readiness,
		CORSOrigin:     cfg.CORSOrigin,
		TrustedProxies: proxies,
		Log:            log,
		Registerer:     prometheus.DefaultRegisterer,
		Gatherer:       prometheus.DefaultGatherer,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("auth server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
