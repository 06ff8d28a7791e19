package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/labworks/intake-backend/internal/handlers"
	"github.com/labworks/intake-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName   string
	IntakeHandler *handlers.IntakeHandler
	RequestLog    *middleware.RequestLogMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	router.Use(otelgin.Middleware(cfg.ServiceName))
	if cfg.RequestLog != nil {
		router.Use(cfg.RequestLog.Handler())
	}

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/samples", cfg.IntakeHandler.RegisterSample)
		api.GET("/samples/:id", cfg.IntakeHandler.GetSample)
		api.POST("/samples/:id/logs/rebuild", cfg.IntakeHandler.RebuildLogs)
	}

	return router
}
