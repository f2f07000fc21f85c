package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/rutaventas-backend/internal/catalog"
	"github.com/angelmondragon/rutaventas-backend/internal/clients"
	"github.com/angelmondragon/rutaventas-backend/internal/evidence"
	"github.com/angelmondragon/rutaventas-backend/internal/history"
	routeplanner "github.com/angelmondragon/rutaventas-backend/internal/routes"
	"github.com/angelmondragon/rutaventas-backend/internal/sales"
	"github.com/angelmondragon/rutaventas-backend/internal/seed"
	"github.com/angelmondragon/rutaventas-backend/internal/users"
	"github.com/angelmondragon/rutaventas-backend/pkg/config"
	"github.com/angelmondragon/rutaventas-backend/pkg/db"
	"github.com/angelmondragon/rutaventas-backend/pkg/logger"
	"github.com/angelmondragon/rutaventas-backend/pkg/migrate"
	"github.com/angelmondragon/rutaventas-backend/pkg/storage/local"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "seed failed", err)
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

	conn := dbClient.DB()

	salesService, err := sales.NewService(sales.NewRepository(conn), dbClient)
	if err != nil {
		return err
	}
	historyService, err := history.NewService(history.NewRepository(conn), dbClient, nil)
	if err != nil {
		return err
	}
	// no locker: the seed is the only writer
	routeService, err := routeplanner.NewService(routeplanner.ServiceParams{
		Repo:        routeplanner.NewRepository(conn),
		Clients:     clients.NewRepository(conn),
		Catalog:     catalog.NewRepository(conn),
		Sales:       salesService,
		History:     historyService,
		Tx:          dbClient,
		Logger:      logg,
		ArchiveSale: true,
	})
	if err != nil {
		return err
	}

	store, err := local.NewStore(cfg.Media, logg)
	if err != nil {
		return err
	}
	evidenceService, err := evidence.NewService(evidence.NewRepository(conn), store, logg)
	if err != nil {
		return err
	}

	_, err = seed.Run(ctx, seed.Params{
		DB:       conn,
		Users:    users.NewRepository(conn),
		Routes:   routeService,
		Evidence: evidenceService,
		Password: cfg.Password,
		Logger:   logg,
	})
	return err
}
