package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lfk/lfk-backend/config"
	"github.com/lfk/lfk-backend/internal/app/controller"
	"github.com/lfk/lfk-backend/internal/app/repository"
	"github.com/lfk/lfk-backend/internal/app/service"
	"github.com/lfk/lfk-backend/internal/cart"
	"github.com/lfk/lfk-backend/internal/db"
	"github.com/lfk/lfk-backend/internal/middleware"
	"github.com/lfk/lfk-backend/internal/router"
	"github.com/lfk/lfk-backend/internal/scheduler"
	"github.com/lfk/lfk-backend/pkg/logger"
	"github.com/lfk/lfk-backend/pkg/metrics"
	redisclient "github.com/lfk/lfk-backend/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		Service:     "lfk-api",
		EnableColor: true,
	})

	logger.Info("Starting LFK Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"cart_store":  cfg.Cart.Store,
	})

	conn, err := db.Initialize(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(conn); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	sessions, err := newSessionRepository(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize cart session store", err)
	}
	defer func() {
		if err := redisclient.Close(); err != nil {
			logger.Error("Failed to close Redis connection", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	userRepo := repository.NewUserRepository(conn)
	eventRepo := repository.NewEventRepository(conn)
	childRepo := repository.NewChildRepository(conn)
	rosterRepo := repository.NewRosterRepository(conn)
	couponRepo := repository.NewCouponRepository(conn)

	authService := service.NewAuthService(
		userRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	cartService := service.NewCartService(
		sessions,
		eventRepo,
		childRepo,
		rosterRepo,
		couponRepo,
		cart.Pricing{
			FeePerChild:            cfg.Cart.PlatformFeePerChild,
			SiblingDiscountPercent: cfg.Cart.SiblingDiscountPercent,
		},
		service.WithCartMetrics(metrics.NewCartMetrics(registry)),
	)

	couponExpiry := scheduler.NewCouponExpiryScheduler(cfg.Scheduler.CouponExpiryCron, couponRepo, metrics.NewJobMetrics(registry))
	if err := couponExpiry.Start(); err != nil {
		logger.Fatal("Failed to start coupon expiry scheduler", err)
	}
	defer couponExpiry.Stop()

	r := router.NewRouter(
		controller.NewAuthController(authService),
		controller.NewCartController(cartService),
		middleware.NewAuthMiddleware(cfg.JWT.Secret),
		registry,
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shut down", err)
	}
	logger.Info("Server stopped")
}

func newSessionRepository(cfg *config.Config) (repository.CartSessionRepository, error) {
	switch cfg.Cart.Store {
	case config.CartStoreMemory:
		logger.Warn("Using in-memory cart sessions; carts are lost on restart")
		return repository.NewMemoryCartSessionRepository(), nil
	case config.CartStoreRedis:
		if err := redisclient.Init(&cfg.Redis); err != nil {
			return nil, err
		}
		return repository.NewRedisCartSessionRepository(redisclient.GetClient(), cfg.Cart.SessionTTL), nil
	default:
		return nil, fmt.Errorf("unknown CART_STORE %q", cfg.Cart.Store)
	}
}
