package routes

import (
	"evinventory/internal/core/container"
	"evinventory/internal/middleware"
	"evinventory/internal/rate_limiter"
	"evinventory/pkg/security"

	"github.com/gin-gonic/gin"
)

func RegisterProtectedRoutes(router *gin.Engine, container *container.Container, jwt *security.JWT, limiter *rate_limiter.RateLimiter) {
	api := router.Group("/api/v1")
	api.Use(jwt.JWTMiddleware(), limiter.WriteLimit())

	container.StockHandler.RegisterRoutes(api)
	container.ComponentHandler.RegisterRoutes(api)
	container.AdjustmentHandler.RegisterRoutes(api)
	container.ReservationHandler.RegisterRoutes(api)
	container.TransferHandler.RegisterRoutes(api)
	container.HistoryHandler.RegisterRoutes(api)
}

func RegisterUtilityRoutes(router *gin.Engine, health *middleware.HealthChecker) {
	router.GET("/health", health.Handler())
}
