package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/keystone-rbac/keystone/internal/app"
	"github.com/keystone-rbac/keystone/internal/auth"
	"github.com/keystone-rbac/keystone/internal/employees"
	"github.com/keystone-rbac/keystone/internal/observability"
	"github.com/keystone-rbac/keystone/internal/platform/cache"
	"github.com/keystone-rbac/keystone/internal/platform/db"
	"github.com/keystone-rbac/keystone/internal/rbac"
	"github.com/keystone-rbac/keystone/internal/users"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := db.RunMigrations(cfg.PGDSN); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.Error("token issuer", slog.Any("error", err))
		os.Exit(1)
	}
	revoker := auth.NewRevoker(redisClient)

	rbacRepo := rbac.NewRepository(pool)
	authRepo := auth.NewRepository(pool)
	usersRepo := users.NewRepository(pool)
	employeesRepo := employees.NewRepository(pool)

	authService := auth.NewService(authRepo, rbacRepo, issuer, revoker, cfg.BcryptCost)
	usersService := users.NewService(usersRepo, rbacRepo)
	employeesService := employees.NewService(employeesRepo)

	// Registration depends on the seeded default role; surface a missing
	// baseline at startup instead of waiting for the first register call.
	if _, err := rbacRepo.FindRoleByName(ctx, rbac.RoleUser); err != nil {
		logger.Warn("default role missing, run scripts/seed", slog.Any("error", err))
	}

	metrics := observability.NewMetrics()

	authenticator := &auth.Authenticator{
		Logger:  logger,
		Issuer:  issuer,
		Service: authService,
		Revoker: revoker,
	}
	guard := rbac.Middleware{Logger: logger, Denied: metrics.RecordDenial}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Authenticator:    authenticator,
		AuthHandler:      auth.NewHandler(logger, authService, authenticator),
		UsersHandler:     users.NewHandler(logger, usersService, guard),
		EmployeesHandler: employees.NewHandler(logger, employeesService, guard),
		RBACHandler:      rbac.NewHandler(logger, rbacRepo, guard),
		Metrics:          metrics,
		Pool:             pool,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
