package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/skyreachair/leadfunnel/internal/cache"
	"github.com/skyreachair/leadfunnel/internal/config"
	"github.com/skyreachair/leadfunnel/internal/database"
	"github.com/skyreachair/leadfunnel/internal/handlers"
	"github.com/skyreachair/leadfunnel/internal/logging"
	"github.com/skyreachair/leadfunnel/internal/metrics"
	"github.com/skyreachair/leadfunnel/internal/middleware"
	"github.com/skyreachair/leadfunnel/internal/notify"
	"github.com/skyreachair/leadfunnel/internal/routes"
	"github.com/skyreachair/leadfunnel/internal/services"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdoutHandler := logging.Setup(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// ERROR+ records are also batched into system_logs
	dbLogHandler := logging.NewDBHandler(db, 5*time.Second)
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdoutHandler, dbLogHandler)))

	retention := logging.NewRetention(db, cfg.LogRetentionDays)
	if err := retention.Start(); err != nil {
		slog.Error("log retention schedule failed", "error", err)
		os.Exit(1)
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
	}

	// Redis is optional; without it revocations are checked in the database only.
	var redisClient *cache.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewClient(cfg.RedisURL)
		if err != nil {
			slog.Warn("redis unavailable, continuing without session cache", "error", err)
		}
	}

	m := metrics.New()
	notifier := notify.New(cfg)

	// Services
	leadService := services.NewLeadService(db)
	intakeService := services.NewIntakeService(leadService, notifier, m, cfg.NotifyTimeout)
	authService := services.NewAuthService(db, cfg, services.NewSessionStore(redisClient))
	userService := services.NewUserService(db)
	exportService := services.NewExportService(leadService)

	// Handlers
	contactHandler := handlers.NewContactHandler(intakeService)
	healthHandler := handlers.NewHealthHandler(db)
	siteHandler := handlers.NewSiteHandler(cfg)
	authHandler := handlers.NewAuthHandler(authService, cfg, m)
	dashboardHandler := handlers.NewDashboardHandler(leadService, userService, exportService, m)

	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(m.Middleware())
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, cfg, authService, m, contactHandler, healthHandler, siteHandler, authHandler, dashboardHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	retention.Stop()
	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}
	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}
