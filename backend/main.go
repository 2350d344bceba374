package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursemarket/backend/cache"
	"coursemarket/backend/config"
	"coursemarket/backend/repository"
	"coursemarket/backend/routes"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger(utils.LoggerConfig{
		Format:       cfg.LogFormat,
		Level:        cfg.LogLevel,
		EnableColors: cfg.LogFormat != "json",
	})

	// Initialize database
	db, err := utils.InitDB(cfg, logger)
	if err != nil {
		logger.Fatalf("Error initializing database: %v", err)
	}
	if cfg.AutoMigrate {
		if err := repository.AutoMigrate(db); err != nil {
			logger.Fatalf("Error migrating database: %v", err)
		}
	}

	store := repository.NewGormStore(db)

	// Refresh tokens and rate limit counters live in Redis when enabled
	var (
		tokens         = services.NewUserTokenStore(store)
		limiterStorage fiber.Storage
		redisClient    *redis.Client
	)
	if cfg.EnableRedis {
		redisClient, err = cache.NewRedisClient(context.Background(), cfg)
		if err != nil {
			logger.Fatalf("Error connecting to redis: %v", err)
		}
		tokens = cache.NewRedisTokenStore(redisClient)
		limiterStorage = cache.NewLimiterStorage(redisClient)
	}

	svc := services.New(store, tokens, utils.NewJWTManager(cfg), logger)

	app := routes.NewApp(cfg, logger, limiterStorage)
	routes.SetupRoutes(app, svc, cfg, logger, limiterStorage)

	go func() {
		if err := app.Listen(":" + cfg.ServerPort); err != nil {
			logger.Fatalf("Server stopped: %v", err)
		}
	}()
	logger.WithField("port", cfg.ServerPort).Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.WithError(err).Error("Server shutdown")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.WithError(err).Error("Redis close")
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.WithError(err).Error("Database close")
		}
	}
	logrus.Exit(0)
}
