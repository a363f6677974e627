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

	"github.com/estoque-mci/estoque-api/api/routes"
	"github.com/estoque-mci/estoque-api/internal/audit"
	"github.com/estoque-mci/estoque-api/internal/branchmap"
	"github.com/estoque-mci/estoque-api/internal/inventory"
	"github.com/estoque-mci/estoque-api/internal/nfe"
	"github.com/estoque-mci/estoque-api/internal/projects"
	"github.com/estoque-mci/estoque-api/internal/reservations"
	"github.com/estoque-mci/estoque-api/internal/uploads"
	"github.com/estoque-mci/estoque-api/pkg/config"
	"github.com/estoque-mci/estoque-api/pkg/db"
	"github.com/estoque-mci/estoque-api/pkg/logger"
	"github.com/estoque-mci/estoque-api/pkg/metrics"
	"github.com/estoque-mci/estoque-api/pkg/migrate"
	"github.com/estoque-mci/estoque-api/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	stockMetrics := metrics.NewStockMetrics(registry)

	conn := dbClient.DB()
	recorder := audit.NewRecorder(conn, logg)
	productRepo := inventory.NewRepository(conn)
	reservationRepo := reservations.NewRepository(conn)
	mappingRepo := branchmap.NewRepository(conn)

	inventoryService, err := inventory.NewService(productRepo, dbClient, recorder, stockMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	reservationService, err := reservations.NewService(reservationRepo, productRepo, dbClient, recorder, stockMetrics, logg, cfg.Reservations.TTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create reservation service", err)
		os.Exit(1)
	}

	uploadService, err := uploads.NewService(productRepo, reservationRepo, dbClient, recorder, stockMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create upload service", err)
		os.Exit(1)
	}

	nfeService, err := nfe.NewService(inventoryService, productRepo, mappingRepo, recorder, stockMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create nfe service", err)
		os.Exit(1)
	}

	projectService, err := projects.NewService(dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create project service", err)
		os.Exit(1)
	}

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
			Registry:     registry,
			Inventory:    inventoryService,
			Reservations: reservationService,
			Uploads:      uploadService,
			NFe:          nfeService,
			Projects:     projectService,
			Mappings:     mappingRepo,
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
	case <-stop:
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
