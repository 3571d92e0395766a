package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/karyalaya/patra-service/internal/api/http"
	"github.com/karyalaya/patra-service/internal/api/http/handlers"
	"github.com/karyalaya/patra-service/internal/auth"
	"github.com/karyalaya/patra-service/internal/config"
	"github.com/karyalaya/patra-service/internal/events"
	"github.com/karyalaya/patra-service/internal/observability"
	"github.com/karyalaya/patra-service/internal/persistence"
	"github.com/karyalaya/patra-service/internal/repository"
	"github.com/karyalaya/patra-service/internal/service"
	"github.com/karyalaya/patra-service/internal/storage"
	"github.com/karyalaya/patra-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var store storage.Storage
	if cfg.MinIO.Endpoint != "" {
		store, err = storage.NewMinIO(cfg.MinIO)
		if err != nil {
			logger.Fatal("failed to init object store", zap.Error(err))
		}
	} else {
		logger.Warn("no object store configured, attachments disabled")
	}

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	officeRepo := repository.NewOfficeRepository(pool)
	correspondenceRepo := repository.NewCorrespondenceRepository(pool)
	historyRepo := repository.NewTransferHistoryRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	orgUnitService := service.NewOrgUnitService(officeRepo, redis, logger, metrics, cfg.Cache.OfficeSnapshotTTL())
	notificationService := service.NewNotificationService(notificationRepo, redis, logger, metrics, cfg.Cache.UnreadCountTTL())
	correspondenceService := service.NewCorrespondenceService(service.CorrespondenceDependencies{
		CorrespondenceRepo: correspondenceRepo,
		HistoryRepo:        historyRepo,
		OrgUnits:           orgUnitService,
		Notifications:      notificationService,
		Store:              store,
		Dispatcher:         dispatcher,
		Logger:             logger,
		Metrics:            metrics,
	})
	queryService := service.NewQueryService(correspondenceRepo, logger)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(userRepo, tokenManager)
	authMiddleware := auth.NewAuthMiddleware(tokenManager, userRepo)

	worker.StartRoutingWorker(dispatcher, worker.RoutingWorkerDependencies{
		CorrespondenceRepo: correspondenceRepo,
		UserRepo:           userRepo,
		Notifications:      notificationService,
		Logger:             logger,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		OrgUnits:       handlers.NewOrgUnitHandler(orgUnitService),
		Correspondence: handlers.NewCorrespondenceHandler(correspondenceService, queryService),
		Notifications:  handlers.NewNotificationHandler(notificationService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
