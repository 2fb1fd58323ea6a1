package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/lineflow-backend/database"
	"github.com/Ananth-NQI/lineflow-backend/internal/config"
	"github.com/Ananth-NQI/lineflow-backend/internal/jobs"
	"github.com/Ananth-NQI/lineflow-backend/internal/logger"
	"github.com/Ananth-NQI/lineflow-backend/internal/routes"
	"github.com/Ananth-NQI/lineflow-backend/internal/services"
	"github.com/Ananth-NQI/lineflow-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	envErr := config.LoadEnvFiles()
	cfg := config.Load()

	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		log.Fatal("Failed to initialise logger:", err)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Log.Info("no .env file found - using environment variables")
	}
	if err := cfg.Validate(); err != nil {
		logger.Log.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.JWTSecret == "" {
		logger.Log.Warn("JWT_SECRET is not set - admin API will reject every request")
	}

	store, storageName, ping, err := openStore(cfg)
	if err != nil {
		logger.Log.Fatal("failed to initialise storage", zap.Error(err))
	}

	lineService := services.NewLineService(cfg.LineAPIEndpoint)

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "LineFlow Backend v" + routes.Version,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	routes.SetupRoutes(app, routes.Dependencies{
		Store:       store,
		Line:        lineService,
		StorageName: storageName,
		Ping:        ping,
	}, cfg)

	auditJob := jobs.NewAuditJob(
		services.NewAccountService(store),
		services.NewGraphAuditor(store),
		cfg.AuditInterval,
	)
	auditJob.Start()

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Log.Info("gracefully shutting down")
		auditJob.Stop()
		_ = app.Shutdown()
	}()

	logger.Log.Info("LineFlow backend starting",
		zap.String("port", cfg.Port),
		zap.String("storage", storageName),
		zap.String("environment", cfg.Environment),
		zap.Bool("webhook_validation", !cfg.SkipWebhookValidation()))

	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Log.Error("server stopped", zap.Error(err))
	}
}

// openStore builds the configured store and a health check for it.
func openStore(cfg config.Config) (storage.Store, string, func() error, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Log.Warn("using in-memory storage (not for production!)")
		return storage.NewMemoryStore(), "memory", nil, nil

	case config.StoreDriverSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, "", nil, err
		}
		if err := database.Migrate(db); err != nil {
			return nil, "", nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Log.Info("using SQLite storage", zap.String("path", cfg.SQLitePath))
		return storage.NewDatabaseStore(db), "sqlite", func() error { return database.Ping(db) }, nil

	case config.StoreDriverPostgres:
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, "", nil, err
		}
		logger.Log.Info("running database migrations")
		if err := database.Migrate(db); err != nil {
			return nil, "", nil, fmt.Errorf("migrate: %w", err)
		}
		return storage.NewDatabaseStore(db), "postgres", func() error { return database.Ping(db) }, nil

	default:
		return nil, "", nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
