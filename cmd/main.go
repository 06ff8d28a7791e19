package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/labworks/intake-backend/internal/db"
	"github.com/labworks/intake-backend/internal/handlers"
	"github.com/labworks/intake-backend/internal/middleware"
	"github.com/labworks/intake-backend/internal/observability"
	"github.com/labworks/intake-backend/internal/pkg/logger"
	"github.com/labworks/intake-backend/internal/repos"
	"github.com/labworks/intake-backend/internal/server"
	"github.com/labworks/intake-backend/internal/services"
	"github.com/labworks/intake-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	// os.Exit skips defers, so run registers its own and only main exits.
	if err := run(log); err != nil {
		log.Error("Server failed", "error", err)
		log.Sync()
		os.Exit(1)
	}
	log.Sync()
}

func run(log *logger.Logger) error {
	defer log.Sync()

	// Tracing
	shutdownTracing := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: utils.GetEnv("SERVICE_NAME", "labintake", log),
		Environment: utils.GetEnv("DEPLOY_ENV", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	})
	if shutdownTracing != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracing(ctx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		return fmt.Errorf("postgres init: %w", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		return fmt.Errorf("postgres auto migration: %w", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	sampleRepo := repos.NewSampleRepo(thePG, log)
	sampleSetRepo := repos.NewSampleSetRepo(thePG, log)
	materialTestRepo := repos.NewMaterialTestRepo(thePG, log)
	logbookRepo := repos.NewLogbookRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	intakeService := services.NewIntakeService(thePG, log, sampleRepo, sampleSetRepo, materialTestRepo, logbookRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	intakeHandler := handlers.NewIntakeHandler(log, intakeService)

	// Middleware
	requestLog := middleware.NewRequestLogMiddleware(log)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ServiceName:   utils.GetEnv("SERVICE_NAME", "labintake", log),
		IntakeHandler: intakeHandler,
		RequestLog:    requestLog,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	return router.Run(":" + port)
}
