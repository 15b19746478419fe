package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-triage/internal/api/http"
	"github.com/spec-kit/helpdesk-triage/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-triage/internal/auth"
	"github.com/spec-kit/helpdesk-triage/internal/config"
	"github.com/spec-kit/helpdesk-triage/internal/events"
	"github.com/spec-kit/helpdesk-triage/internal/notify"
	"github.com/spec-kit/helpdesk-triage/internal/observability"
	"github.com/spec-kit/helpdesk-triage/internal/persistence"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	"github.com/spec-kit/helpdesk-triage/internal/repository/memory"
	"github.com/spec-kit/helpdesk-triage/internal/routing"
	"github.com/spec-kit/helpdesk-triage/internal/service"
	"github.com/spec-kit/helpdesk-triage/internal/worker"
	"github.com/spec-kit/helpdesk-triage/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var store repository.Store
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, migrations.FS, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pg.Pool)
	} else {
		store = memory.NewStore()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	seed, err := routing.LoadSeed(cfg.Routing.SeedFile)
	if err != nil {
		logger.Fatal("failed to load routing seed", zap.Error(err))
	}
	resolver, err := routing.Initialize(ctx, store.RoutingRules(), store.Teams(), seed, logger)
	if err != nil {
		logger.Fatal("failed to initialize routing", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()
	ledger := service.NewHistoryLedger(store, cfg.History.NameCacheTTL())
	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Resolver:   resolver,
		Ledger:     ledger,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	intakeService := service.NewIntakeService(store, ticketService)
	analyticsService := service.NewAnalyticsService(store.Tickets(), nil)
	catalogService := service.NewCatalogService(resolver, store.Teams())

	authService := service.NewAuthService(cfg.Auth, store.Users())
	if cfg.Auth.AdminEmail != "" {
		admin, err := authService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
		if err != nil {
			logger.Fatal("failed to ensure admin account", zap.Error(err))
		}
		logger.Info("admin account ready", zap.String("user_id", admin.ID))
	}
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), store.Users())

	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher: dispatcher,
		Acks:       newAckPublisher(cfg, logger),
		Feed:       newFeedPublisher(cfg, redis, logger),
		Logger:     logger,
		Metrics:    metrics,
		Timeout:    cfg.Notification.Timeout(),
	})
	notificationWorker := worker.StartNotificationWorker(notificationService, logger)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, map[string]handlers.Dependency{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Intake:         handlers.NewIntakeHandler(intakeService),
		Admin:          handlers.NewAdminHandler(ticketService, analyticsService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		AuthMiddleware: authMiddleware,
		IntakeToken:    cfg.Intake.Token,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Notification.Timeout())
	defer stopCancel()
	if err := notificationWorker.Stop(stopCtx); err != nil {
		logger.Warn("notification shutdown", zap.Error(err))
	}
}

func newAckPublisher(cfg *config.Config, logger *zap.Logger) notify.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("KAFKA_BROKERS not provided; acknowledgments disabled")
		return notify.Discard{}
	}
	return notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Notification.KafkaTopic, cfg.Notification.Timeout())
}

func newFeedPublisher(cfg *config.Config, redis *persistence.Redis, logger *zap.Logger) notify.Publisher {
	if !redis.Enabled() {
		return notify.Discard{}
	}
	logger.Info("publishing ticket events", zap.String("channel", cfg.Notification.RedisChannel))
	return notify.NewRedisPublisher(redis.Client, cfg.Notification.RedisChannel)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
