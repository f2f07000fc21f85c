package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/rutaventas-backend/api/routes"
	"github.com/angelmondragon/rutaventas-backend/internal/auth"
	"github.com/angelmondragon/rutaventas-backend/internal/catalog"
	"github.com/angelmondragon/rutaventas-backend/internal/clients"
	"github.com/angelmondragon/rutaventas-backend/internal/evidence"
	"github.com/angelmondragon/rutaventas-backend/internal/history"
	products "github.com/angelmondragon/rutaventas-backend/internal/products"
	"github.com/angelmondragon/rutaventas-backend/internal/reports"
	routeplanner "github.com/angelmondragon/rutaventas-backend/internal/routes"
	"github.com/angelmondragon/rutaventas-backend/internal/sales"
	"github.com/angelmondragon/rutaventas-backend/internal/sellers"
	"github.com/angelmondragon/rutaventas-backend/internal/users"
	"github.com/angelmondragon/rutaventas-backend/pkg/auth/session"
	"github.com/angelmondragon/rutaventas-backend/pkg/config"
	"github.com/angelmondragon/rutaventas-backend/pkg/db"
	"github.com/angelmondragon/rutaventas-backend/pkg/logger"
	"github.com/angelmondragon/rutaventas-backend/pkg/metrics"
	"github.com/angelmondragon/rutaventas-backend/pkg/migrate"
	"github.com/angelmondragon/rutaventas-backend/pkg/redis"
	"github.com/angelmondragon/rutaventas-backend/pkg/storage/local"
)

const shutdownTimeout = 15 * time.Second

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
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	opMetrics := metrics.NewOperationMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	conn := dbClient.DB()

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(conn),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return err
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(conn))
	if err != nil {
		return err
	}
	clientService, err := clients.NewService(clients.NewRepository(conn), dbClient, opMetrics)
	if err != nil {
		return err
	}
	productService, err := products.NewService(products.NewRepository(conn), dbClient)
	if err != nil {
		return err
	}
	sellerService, err := sellers.NewService(sellers.NewRepository(conn))
	if err != nil {
		return err
	}
	saleService, err := sales.NewService(sales.NewRepository(conn), dbClient)
	if err != nil {
		return err
	}
	historyService, err := history.NewService(history.NewRepository(conn), dbClient, opMetrics)
	if err != nil {
		return err
	}
	routeService, err := routeplanner.NewService(routeplanner.ServiceParams{
		Repo:        routeplanner.NewRepository(conn),
		Clients:     clients.NewRepository(conn),
		Catalog:     catalog.NewRepository(conn),
		Sales:       saleService,
		History:     historyService,
		Tx:          dbClient,
		Locker:      redis.NewRouteLocker(redisClient, cfg.Redis.RouteLockTTL),
		Logger:      logg,
		ArchiveSale: cfg.History.ArchiveOnRecorrido,
	})
	if err != nil {
		return err
	}

	mediaStore, err := local.NewStore(cfg.Media, logg)
	if err != nil {
		return err
	}
	evidenceService, err := evidence.NewService(evidence.NewRepository(conn), mediaStore, logg)
	if err != nil {
		return err
	}

	reportService, err := reports.NewService(reports.ServiceParams{
		Repo:    reports.NewRepository(conn),
		Dir:     cfg.Reports.Dir,
		Metrics: opMetrics,
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			registry,
			httpMetrics,
			authService,
			catalogService,
			clientService,
			productService,
			sellerService,
			routeService,
			saleService,
			historyService,
			evidenceService,
			reportService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
