package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/handlers"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/middleware"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
)

// RegisterRoutes mounts all HTTP routes.
func RegisterRoutes(ginRouter *gin.Engine, appHandlers *handlers.AppHandlers) {
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	optionalAuth := middleware.OptionalAuthMiddleware()
	requireAuth := middleware.AuthMiddleware()
	requireAdmin := middleware.RequireRoles(models.UserRoleAdmin)

	api := ginRouter.Group("/api/v1")
	{
		appHandlers.AuthHandler.RegisterRoutes(api, requireAuth)
		appHandlers.PaymentHandler.RegisterRoutes(api, optionalAuth, requireAuth)
		appHandlers.WorkshopHandler.RegisterRoutes(api)
		appHandlers.PricingHandler.RegisterRoutes(api)
		appHandlers.AdminHandler.RegisterRoutes(api, requireAuth, requireAdmin)
	}
}
