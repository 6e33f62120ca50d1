// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terminar/core-service/internal/admin"
	"github.com/terminar/core-service/internal/apikey"
	"github.com/terminar/core-service/internal/auth"
	"github.com/terminar/core-service/internal/company"
	"github.com/terminar/core-service/internal/config"
	"github.com/terminar/core-service/internal/core"
	"github.com/terminar/core-service/internal/health"
	"github.com/terminar/core-service/internal/integration"
	"github.com/terminar/core-service/internal/middleware"
	"github.com/terminar/core-service/internal/server"
	"github.com/terminar/core-service/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	core.SetExposeInternalErrors(!cfg.IsProduction())

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	if cfg.Metrics.Enabled {
		core.InitMetrics()
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	tokens, err := auth.NewTokenManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("token codec initialized",
		"algorithm", "HS256",
		"access_ttl", cfg.JWT.AccessTokenExpire,
		"refresh_ttl", tokens.RefreshLifetime(),
	)

	authRepo := auth.NewRepository(db.DB)

	companyRepo := company.NewRepository(db.DB)
	companySvc := company.NewService(companyRepo, logger)
	companyHandler := company.NewHandler(companySvc)

	userSvc := user.NewService(user.ServiceConfig{
		DB:       db.DB,
		Repo:     user.NewRepository(db.DB),
		Sessions: authRepo,
		Logger:   logger,
	})
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(auth.ServiceConfig{
		Repo:      authRepo,
		Tokens:    tokens,
		Users:     userSvc,
		Companies: companySvc,
		Throttle: auth.NewLoginThrottle(
			redis.Client,
			cfg.Auth.LoginMaxAttempts,
			cfg.Auth.LoginLockoutWindow,
			logger,
		),
		ResetTokenTTL:    cfg.Auth.ResetTokenTTL,
		ExposeResetToken: cfg.IsDevelopment(),
		Logger:           logger,
	})
	authHandler := auth.NewHandler(authSvc)

	keySvc := apikey.NewService(
		apikey.NewRepository(db.DB),
		cfg.APIKey.HashSecret,
		logger,
	)
	keyHandler := apikey.NewHandler(keySvc)

	integrationSvc := integration.NewService(
		integration.NewRepository(db.DB),
		userSvc,
		companySvc,
		logger,
	)
	integrationHandler := integration.NewHandler(integrationSvc, cfg.App.Version)

	var authenticator middleware.Authenticator
	if cfg.Auth.DisableAuth {
		authenticator = middleware.NewBypassAuthenticator(cfg.Auth.Bypass, logger)
		logger.Warn("authentication bypass configured",
			"environment", cfg.App.Environment,
		)
	} else {
		authenticator = middleware.NewTokenAuthenticator(tokens, userSvc)
	}

	gate := middleware.NewGate(middleware.GateConfig{
		Authenticator: authenticator,
		Companies:     companySvc,
		Keys:          keySvc,
		KeyHeader:     cfg.APIKey.Header,
	})

	healthHandler := health.NewHandler(cfg.App.Version,
		health.Dependency{Name: "database", Pinger: db},
		health.Dependency{Name: "redis", Pinger: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Sessions:   authSvc,
		Tenants:    companySvc,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	if cfg.Metrics.Enabled {
		router.Use(middleware.Metrics)
	}
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)
	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, core.MetricsHandler())
	}

	credentialLimiter := middleware.NewRateLimiter(
		redis.Client,
		middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.AuthRequests,
				cfg.RateLimit.AuthBurst,
			),
			KeyFunc:  middleware.KeyByRoute("auth"),
			FailOpen: true,
		},
	).Handler

	accountLimiter := middleware.NewRateLimiter(
		redis.Client,
		middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			KeyFunc:  middleware.KeyByUser,
			FailOpen: true,
		},
	).Handler

	router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r, gate.RequireAuth, credentialLimiter, accountLimiter)
		userHandler.RegisterRoutes(r, gate.RequireAuth, gate.RequireCompany)
		companyHandler.RegisterRoutes(r, gate.RequireAuth, gate.RequireCompany)
		keyHandler.RegisterRoutes(r, gate.RequireAuth, gate.RequireCompany)
		integrationHandler.RegisterRoutes(r, integration.Guards{
			Flexible:  gate.Flexible,
			APIKey:    gate.CheckAPIKey,
			RateLimit: middleware.PlanRateLimiter(redis.Client, middleware.DefaultPlans),
		})
		adminHandler.RegisterRoutes(r, gate.RequireAuth)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
