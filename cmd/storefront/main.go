package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pastita/storefront-bfa-go/internal/config"
	"github.com/pastita/storefront-bfa-go/internal/handler"
	"github.com/pastita/storefront-bfa-go/internal/infra/haptics"
	"github.com/pastita/storefront-bfa-go/internal/infra/localstore"
	"github.com/pastita/storefront-bfa-go/internal/infra/observability"
	"github.com/pastita/storefront-bfa-go/internal/infra/resilience"
	"github.com/pastita/storefront-bfa-go/internal/infra/storeapi"
	"github.com/pastita/storefront-bfa-go/internal/port"
	"github.com/pastita/storefront-bfa-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store_api", cfg.StoreAPIBaseURL),
		zap.String("store_slug", cfg.StoreSlug),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("catalog_ttl", cfg.CatalogTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("session_ttl", cfg.SessionTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "storefront-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Local persistence ---
	var kv port.KeyValue
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		store, err := localstore.NewRedis(ctx, cfg.RedisURL, cfg.SessionTTL)
		cancel()
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		kv = store
		logger.Info("using redis as local store", zap.String("redis_url", cfg.RedisURL))
	} else {
		kv = localstore.NewMemory()
		logger.Warn("REDIS_URL not set, snapshots will not survive a restart")
	}

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("storeapi")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	storeClient := storeapi.NewClient(httpClient, cfg.StoreAPIBaseURL, cfg.StoreSlug, cb, resilienceCfg, logger)

	// --- Services ---
	catalogSvc := service.NewCatalogService(storeClient, cfg.CatalogTTL, cfg.DetailTTL, metrics, logger)
	sessions := service.NewSessionManager(storeClient, kv, cfg.SessionSecret, cfg.SessionTTL, metrics, logger)
	feedback := haptics.NewEmitter(logger, metrics)
	cartSvc := service.NewCartService(storeClient, catalogSvc, kv, feedback, sessions, metrics, logger)
	wishlistSvc := service.NewWishlistService(storeClient, catalogSvc, kv, feedback, sessions, metrics, logger)
	sessions.SetSyncTargets(cartSvc, wishlistSvc)
	checkoutSvc := service.NewCheckoutService(storeClient, cartSvc, sessions, metrics, logger)
	orderSvc := service.NewOrderService(storeClient, cfg.DetailTTL, sessions, metrics, logger)

	// Warm the catalog so the first app open does not pay the fetch. A failure
	// here is not fatal; the read-through path retries on access.
	if err := catalogSvc.Refresh(context.Background()); err != nil {
		logger.Warn("initial catalog refresh failed", zap.Error(err))
	}

	// --- Router ---
	router := handler.NewRouter(sessions, catalogSvc, cartSvc, wishlistSvc, checkoutSvc, orderSvc, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
