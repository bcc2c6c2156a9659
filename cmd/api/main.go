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

	"go.uber.org/zap"

	"github.com/bilyar/storefront-api/internal/di"
	"github.com/bilyar/storefront-api/internal/handlers"
	"github.com/bilyar/storefront-api/internal/platform/auth"
	"github.com/bilyar/storefront-api/internal/platform/config"
	pfirestore "github.com/bilyar/storefront-api/internal/platform/firestore"
	"github.com/bilyar/storefront-api/internal/platform/observability"
	"github.com/bilyar/storefront-api/internal/repositories"
	firestoreRepo "github.com/bilyar/storefront-api/internal/repositories/firestore"
	"github.com/bilyar/storefront-api/internal/repositories/postgres"
)

// Checkout rate limiting shields the public order endpoint from scripted
// submissions while staying invisible to ordinary shoppers.
const (
	checkoutRateLimit  = 20
	checkoutRateWindow = time.Minute
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	registry, err := openRegistry(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialise storage registry",
			zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}

	container, err := di.NewContainer(ctx, cfg, registry, logger)
	if err != nil {
		logger.Fatal("failed to build dependency container", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("registry close error", zap.Error(err))
		}
	}()

	healthHandlers := handlers.NewHealthHandlers(container.Services.System)
	catalogHandlers := handlers.NewCatalogHandlers(container.Services.Catalog)
	orderHandlers := handlers.NewOrderHandlers(container.Services.Orders,
		handlers.NewSimpleRateLimiter(checkoutRateLimit, checkoutRateWindow, nil))
	paymentHandlers := handlers.NewPaymentHandlers(container.Services.Payments)
	customerHandlers := handlers.NewCustomerHandlers(container.Services.Customers)
	settingsHandlers := handlers.NewSettingsHandlers(container.Services.Settings)

	adminAuth := auth.NewAdminAuthenticator(cfg.Admin.JWTSecret)
	if !adminAuth.Enabled() {
		logger.Warn("admin jwt secret not configured; admin routes are open")
	}
	webhookAuth := auth.NewWebhookVerifier(cfg.Gateways.Deema.WebhookHeader, cfg.Gateways.Deema.WebhookSecret)
	if !webhookAuth.Enabled() {
		logger.Warn("deema webhook secret not configured; webhook signature checks are off")
	}

	httpLogger := logger.Named("http")
	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(httpLogger),
			observability.RecoveryMiddleware(httpLogger),
			observability.RequestLoggerMiddleware(),
		),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithCatalogRoutes(catalogHandlers.Routes),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithPaymentRoutes(paymentHandlers.Routes),
		handlers.WithCustomerRoutes(customerHandlers.Routes),
		handlers.WithSettingsRoutes(settingsHandlers.Routes),
		handlers.WithAdminCatalogRoutes(catalogHandlers.AdminRoutes),
		handlers.WithAdminOrderRoutes(orderHandlers.AdminRoutes),
		handlers.WithAdminCustomerRoutes(customerHandlers.AdminRoutes),
		handlers.WithAdminSettingsRoutes(settingsHandlers.AdminRoutes),
		handlers.WithAdminMiddlewares(adminAuth.Middleware()),
		handlers.WithWebhookRoutes(paymentHandlers.WebhookRoutes),
		handlers.WithWebhookMiddlewares(webhookAuth.Middleware()),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := httpLogger.With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("storefront api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openRegistry(ctx context.Context, cfg config.Config, logger *zap.Logger) (repositories.Registry, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		logger.Info("using postgres storage backend")
		return postgres.Open(ctx, cfg.Storage.DatabaseURL)
	case config.BackendFirestore:
		logger.Info("using firestore storage backend",
			zap.String("project_id", cfg.Storage.FirebaseProjectID))
		provider := pfirestore.NewProvider(cfg.Storage)
		if _, err := provider.Client(ctx); err != nil {
			return nil, err
		}
		return firestoreRepo.NewRegistry(provider)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
