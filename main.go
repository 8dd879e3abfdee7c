package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nexus-bakery-api/config"
	"nexus-bakery-api/handlers"
	"nexus-bakery-api/logging"
	"nexus-bakery-api/metrics"
	"nexus-bakery-api/routes"
	"nexus-bakery-api/sensory"
	"nexus-bakery-api/service"
	"nexus-bakery-api/store"
	"nexus-bakery-api/store/gormstore"
	"nexus-bakery-api/store/memory"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(logger)

	// Set Gin mode
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	st, err := openStore(cfg)
	if err != nil {
		log.Fatal("Failed to open store: ", err)
	}

	ctx := context.Background()
	if cfg.SeedDemo {
		if _, err := service.Seed(ctx, st, logger); err != nil {
			log.Fatal("Failed to seed demo catalog: ", err)
		}
	}

	m := metrics.New()
	opts := service.Options{
		DeliveryFee:      &cfg.DeliveryFee,
		FeeInTotal:       cfg.FeeInTotal,
		AllowBackorder:   cfg.AllowBackorder,
		StrictWaste:      cfg.StrictWaste,
		StrictReferences: cfg.StrictReferences,
		Logger:           logger,
		Metrics:          m,
	}
	catalog := service.NewCatalogService(st, opts)

	var gen sensory.Generator
	if cfg.GeminiAPIKey != "" {
		gemini, err := sensory.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiImageModel)
		if err != nil {
			logger.Warn("generative content disabled", "error", err)
		} else {
			gen = gemini
		}
	}

	// Create Gin router with default middleware (logger + recovery)
	r := gin.Default()
	routes.SetupRoutes(r, routes.Deps{
		Orders:   service.NewOrderService(st, opts),
		Catalog:  catalog,
		Waste:    service.NewWasteService(st, catalog, opts),
		Reports:  service.NewReportService(st, opts),
		Accounts: service.NewAccountService(st, opts),
		Studio:   sensory.NewStudio(gen, cfg.AITimeout, logger, m),
		Metrics:  m,
		Tokens:   handlers.TokenConfig{Secret: cfg.JWTSecret, TTL: cfg.TokenTTL},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "db_driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}

func openStore(cfg config.Config) (store.Store, error) {
	if cfg.DBDriver == config.DriverMemory {
		return memory.New(), nil
	}
	db, err := config.OpenDB(cfg)
	if err != nil {
		return nil, err
	}
	return gormstore.New(db), nil
}
