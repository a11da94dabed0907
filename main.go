package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/healthconnect/sms-dispatcher/environments"
	"github.com/healthconnect/sms-dispatcher/handlers"
	"github.com/healthconnect/sms-dispatcher/internal/dedup"
	"github.com/healthconnect/sms-dispatcher/internal/repository"
	"github.com/healthconnect/sms-dispatcher/internal/scheduler"
	"github.com/healthconnect/sms-dispatcher/internal/service"
	"github.com/healthconnect/sms-dispatcher/pkg/database"
	"github.com/healthconnect/sms-dispatcher/pkg/logger"
	"github.com/healthconnect/sms-dispatcher/pkg/provider"
	"github.com/healthconnect/sms-dispatcher/pkg/redis"
	"github.com/healthconnect/sms-dispatcher/pkg/validator"
	"github.com/healthconnect/sms-dispatcher/routes"

	_ "github.com/healthconnect/sms-dispatcher/docs" // swagger docs
)

// @title HealthConnect SMS Dispatcher API
// @version 1.0
// @description SMS notification dispatcher for barangay health center patient reminders

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @schemes http https
func main() {
	logger.Init()

	// Load config
	cfg := environments.Load()

	// Hard-fail if required secrets are missing
	if cfg.Auth.NotificationsAPIKey == "" {
		logger.Fatalf("NOTIFICATIONS_API_KEY is required but not set")
	}
	if cfg.Auth.SweepAPIKey == "" {
		logger.Fatalf("SWEEP_API_KEY is required but not set")
	}

	logger.Infof("Starting HealthConnect SMS Dispatcher...")

	// Init DB
	db, err := database.NewMySQLDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed data
	if os.Getenv("SEED_DATA") == "true" {
		if err := database.SeedTestData(db); err != nil {
			logger.Warnf("Failed to seed test data: %v", err)
		}
	}

	// Init redis. The dedup cache degrades to an in-process store when Redis
	// is unavailable: suppression then only holds within one instance.
	var redisClient *redis.Client
	var dedupStore service.DedupStore
	redisClient, err = redis.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Warnf("Redis not available, using in-memory dedup store: %v", err)
		redisClient = nil
		dedupStore = dedup.NewMemoryStore()
	} else {
		dedupStore = redisClient
	}

	// Initialize gateway client
	gatewayClient := provider.NewClient(cfg.Provider)
	logger.Infof("SMS gateway configured: %s", gatewayClient.GetURL())

	// Initialize repositories
	settingsRepo := repository.NewSettingsRepository(db)
	deliveryLogRepo := repository.NewDeliveryLogRepository(db)
	correlationRepo := repository.NewCorrelationRepository(db)
	clinicalRepo := repository.NewClinicalRepository(db)
	sweepRepo := repository.NewSweepRepository(db)

	// Initialize services
	dispatcher := service.NewDispatcher(
		settingsRepo,
		deliveryLogRepo,
		correlationRepo,
		gatewayClient,
		dedupStore,
		cfg.SMS,
	)
	notificationService := service.NewNotificationService(dispatcher, clinicalRepo)
	sweepService := service.NewSweepService(
		settingsRepo,
		sweepRepo,
		clinicalRepo,
		dispatcher,
		cfg.Sweep,
	)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize scheduler
	sched := scheduler.NewScheduler(
		sweepService,
		cfg.Sweep.CheckInterval,
		cfg.Alert.WebhookURL,
		cfg.Alert.IterationCount,
	)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, redisClient)
	notificationHandler := handlers.NewNotificationHandler(notificationService, deliveryLogRepo)
	sweepHandler := handlers.NewSweepHandler(sweepService, sched, ctx)

	// Auto-start scheduler
	if os.Getenv("AUTO_START_SCHEDULER") != "false" {
		logger.Infof("Auto-starting sweep scheduler...")
		if err := sched.Start(ctx); err != nil {
			logger.Warnf("Failed to auto-start sweep scheduler: %v", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"x-hc-auth-key",
		},
	}))

	// Setup routes
	routes.RegisterRoutes(e, healthHandler, notificationHandler, sweepHandler, cfg)

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Infof("Server starting on http://localhost%s", addr)
		logger.Infof("Swagger docs available at http://localhost%s/swagger/index.html", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Shutting down gracefully...")

	// Cancel context to signal all goroutines to stop
	cancel()

	// Stop scheduler first (with timeout)
	if sched.IsRunning() {
		logger.Infof("Stopping sweep scheduler...")
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()

		done := make(chan error, 1)
		go func() {
			done <- sched.Stop()
		}()

		select {
		case err := <-done:
			if err != nil {
				logger.Errorf("Error stopping sweep scheduler: %v", err)
			} else {
				logger.Infof("Sweep scheduler stopped successfully")
			}
		case <-stopCtx.Done():
			logger.Warnf("Sweep scheduler stop timeout, forcing shutdown")
		}
	}

	// Shutdown HTTP server (with timeout)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Infof("Shutting down HTTP server...")
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	} else {
		logger.Infof("HTTP server stopped successfully")
	}

	// Close database connection
	logger.Infof("Closing database connection...")
	if err := db.Close(); err != nil {
		logger.Errorf("Error closing database: %v", err)
	}

	// Close Redis connection
	if redisClient != nil {
		logger.Infof("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			logger.Errorf("Error closing Redis: %v", err)
		}
	}

	logger.Infof("Graceful shutdown completed")
}
