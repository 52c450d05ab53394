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

	httptransport "github.com/civicdesk/grievance-portal/internal/api/http"
	"github.com/civicdesk/grievance-portal/internal/api/http/handlers"
	"github.com/civicdesk/grievance-portal/internal/auth"
	"github.com/civicdesk/grievance-portal/internal/cache"
	"github.com/civicdesk/grievance-portal/internal/config"
	"github.com/civicdesk/grievance-portal/internal/events"
	"github.com/civicdesk/grievance-portal/internal/observability"
	"github.com/civicdesk/grievance-portal/internal/persistence"
	"github.com/civicdesk/grievance-portal/internal/repository"
	"github.com/civicdesk/grievance-portal/internal/scoring"
	"github.com/civicdesk/grievance-portal/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	accountsDB := mustOpenDataset(ctx, "accounts", cfg.Accounts, logger)
	defer accountsDB.Close()
	complaintsDB := mustOpenDataset(ctx, "complaints", cfg.Complaints, logger)
	defer complaintsDB.Close()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var metricsCache cache.MetricsCache
	if redis.Enabled() {
		metricsCache = cache.NewRedisMetricsCache(redis.Client, cfg.Redis.MetricsKeyspace, cfg.Redis.MetricsTTL())
	}

	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(dispatcher, metricsCache, logger, cfg.Notification).RegisterHandlers()

	credentialStore := repository.NewCredentialStore(accountsDB.PoolHandle())
	complaintStore := repository.NewComplaintStore(complaintsDB.PoolHandle())

	credentialService := service.NewCredentialService(cfg.Auth, service.CredentialDependencies{
		Store:      credentialStore,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	complaintService := service.NewComplaintService(cfg.Lifecycle, service.ComplaintDependencies{
		ComplaintRepo: complaintStore,
		Analyzer:      newAnalyzer(cfg.Sentiment, logger),
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	metricsService := service.NewMetricsService(complaintStore, metricsCache, logger)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics,
			handlers.Dependency{Name: "accounts", Check: accountsDB},
			handlers.Dependency{Name: "complaints", Check: complaintsDB},
			handlers.Dependency{Name: "redis", Check: redis, Optional: true},
		),
		Users:          handlers.NewUsersHandler(credentialService),
		Complaints:     handlers.NewComplaintsHandler(complaintService),
		Dashboard:      handlers.NewDashboardHandler(metricsService),
		Admin:          handlers.NewAdminHandler(credentialService),
		AuthMiddleware: auth.NewAuthMiddleware(credentialService, cfg.App.Name),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

// mustOpenDataset connects to one dataset and applies its schema. Both
// datasets are required.
func mustOpenDataset(ctx context.Context, name string, cfg config.PostgresConfig, logger *zap.Logger) *persistence.Postgres {
	db, err := persistence.NewPostgres(ctx, name, cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.String("dataset", name), zap.Error(err))
	}
	if db.PoolHandle() == nil {
		logger.Fatal("postgres DSN required", zap.String("dataset", name))
	}
	if cfg.RunMigrations {
		if err := persistence.RunMigrations(ctx, db.PoolHandle(), cfg.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.String("dataset", name), zap.Error(err))
		}
	}
	return db
}

func newAnalyzer(cfg config.SentimentConfig, logger *zap.Logger) scoring.SentimentAnalyzer {
	if cfg.ServiceURL == "" {
		logger.Info("SENTIMENT_SERVICE_URL not set; using in-process VADER analyzer")
		return scoring.NewVaderAnalyzer()
	}
	logger.Info("using remote sentiment service", zap.String("url", cfg.ServiceURL))
	return scoring.NewRemoteAnalyzer(cfg.ServiceURL, cfg.Timeout())
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
