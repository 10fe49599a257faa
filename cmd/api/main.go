package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/megatech/storefront-backend/api/routes"
	"github.com/megatech/storefront-backend/internal/auth"
	"github.com/megatech/storefront-backend/internal/catalog"
	"github.com/megatech/storefront-backend/internal/inventory"
	"github.com/megatech/storefront-backend/internal/mailer"
	"github.com/megatech/storefront-backend/internal/orders"
	"github.com/megatech/storefront-backend/internal/payments"
	"github.com/megatech/storefront-backend/internal/verification"
	"github.com/megatech/storefront-backend/pkg/config"
	"github.com/megatech/storefront-backend/pkg/db"
	"github.com/megatech/storefront-backend/pkg/logger"
	"github.com/megatech/storefront-backend/pkg/metrics"
	"github.com/megatech/storefront-backend/pkg/migrate"
	"github.com/megatech/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	// Redis backs the verification codes and the rate limiter. In dev the
	// service can run without it on the in-memory store.
	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		if !cfg.App.IsDev() {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		logg.Warn(context.Background(), "redis unavailable, using in-memory verification store")
		redisClient = nil
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	sender, err := mailer.NewSender(cfg.Mail, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create mail sender", err)
		os.Exit(1)
	}

	var verificationStore verification.Store
	if redisClient != nil {
		verificationStore, err = verification.NewRedisStore(redisClient)
		if err != nil {
			logg.Error(context.Background(), "failed to create verification store", err)
			os.Exit(1)
		}
	} else {
		verificationStore = verification.NewMemoryStore()
	}

	verificationService, err := verification.NewService(verificationStore, sender, cfg.Verification, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create verification service", err)
		os.Exit(1)
	}

	inventoryService, err := inventory.NewService(inventory.NewRepository(dbClient.DB()), dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo, dbClient, inventoryService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	gateway := payments.NewGateway(cfg.Unipay)

	ordersService, err := orders.NewService(
		orders.NewRepository(dbClient.DB()),
		catalogRepo,
		inventoryService,
		verificationService,
		gateway,
		sender,
		dbClient,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.NewRepository(dbClient.DB()), gateway, cfg.Unipay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.NewRepository(dbClient.DB()), cfg.JWT, cfg.Password, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(promRegistry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			HTTPMetrics:  httpMetrics,
			PromRegistry: promRegistry,
			Auth:         authService,
			Catalog:      catalogService,
			Orders:       ordersService,
			Payments:     paymentsService,
			Inventory:    inventoryService,
			Verification: verificationService,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
