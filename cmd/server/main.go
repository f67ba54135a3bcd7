package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/assesshq/session-engine/internal/cache"
	"github.com/assesshq/session-engine/internal/config"
	"github.com/assesshq/session-engine/internal/handlers"
	"github.com/assesshq/session-engine/internal/repositories/postgres"
	"github.com/assesshq/session-engine/internal/services"
	"github.com/assesshq/session-engine/internal/utils"
	"github.com/assesshq/session-engine/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to init database: %v", err)
	}
	if err := pkg.AutoMigrate(db); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("failed to init redis: %v", err)
	}
	defer redisClient.Close()

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		log.Fatalf("failed to create event publisher: %v", err)
	}
	defer publisher.Close()

	repo := postgres.NewRepository(db)
	validator := utils.NewValidator()
	cacheService := cache.NewRedisCache(redisClient, slogger)

	serviceManager := services.NewServiceManager(repo, cacheService, publisher, slogger, validator)
	handlerManager := handlers.NewHandlerManager(serviceManager, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager.SetupRoutes(router)

	logger.Info("Starting session engine", "port", cfg.Port, "environment", cfg.Environment)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
