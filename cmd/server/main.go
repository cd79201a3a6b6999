package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ikyum/shopbridge/internal/api"
	"github.com/ikyum/shopbridge/internal/config"
	"github.com/ikyum/shopbridge/internal/repository"
	"github.com/ikyum/shopbridge/internal/repository/memory"
	"github.com/ikyum/shopbridge/internal/repository/postgres"
	"github.com/ikyum/shopbridge/internal/service"
	"github.com/ikyum/shopbridge/internal/shopify"
)

// sweepable lets main start the backend-specific sweeper loop uniformly
type sweepable interface {
	repository.IdempotencyStore
	StartSweeper(ctx context.Context, interval time.Duration)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	logger.Info("Starting shopbridge server",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("idempotency_backend", cfg.Idempotency.Backend),
	)

	// Idempotency store (the only state this service owns)
	var store sweepable
	if cfg.Idempotency.Backend == "postgres" {
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if err := postgres.EnsureSchema(db); err != nil {
			logger.Fatal("Failed to ensure database schema", zap.Error(err))
		}
		store = postgres.NewIdempotencyStore(db, cfg.Idempotency.TTL, logger)
	} else {
		store = memory.NewIdempotencyStore(cfg.Idempotency.TTL, logger)
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go store.StartSweeper(sweepCtx, cfg.Idempotency.SweepInterval)

	// Shopify client and services
	client := shopify.NewClient(cfg.Shopify, logger)
	drafts := service.NewDraftOrderService(client, logger)
	sync := service.NewCustomerSyncService(client, logger)
	emails := service.NewEmailService(cfg.SMTP, logger)
	registrations := service.NewRegistrationService(client, emails, sync, logger)

	svcs := &api.Services{
		Client:        client,
		DraftOrders:   drafts,
		CustomerSync:  sync,
		Emails:        emails,
		Registrations: registrations,
		Idempotency:   store,
	}

	// Initialize router
	router := api.NewRouter(cfg, svcs, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Ensure the customer webhook subscriptions exist (idempotent)
	if cfg.API.PublicBaseURL != "" {
		go func() {
			registrar := service.NewWebhookRegistrar(client, cfg.API.PublicBaseURL, logger)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			created, err := registrar.EnsureWebhooks(ctx)
			if err != nil {
				logger.Warn("Webhook registration failed", zap.Error(err))
				return
			}
			logger.Info("Webhook subscriptions ensured", zap.Strings("created", created))
		}()
	} else {
		logger.Warn("PUBLIC_BASE_URL not set, skipping webhook registration")
	}

	logger.Info("Server started successfully", zap.String("address", srv.Addr))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
