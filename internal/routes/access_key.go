package routes

import (
	"vaultcontrol/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupAccessKeyRoutes sets up all routes related to Access Key management
func SetupAccessKeyRoutes(r *gin.Engine) {
	accessKey := r.Group("/access-key")
	{
		// Standard CRUD operations
		accessKey.GET("", handlers.ListAccessKeys)
		accessKey.GET("/:id", handlers.GetAccessKey)
		accessKey.POST("", handlers.CreateAccessKey)
		accessKey.PUT("/:id", handlers.UpdateAccessKey)
		accessKey.DELETE("/:id", handlers.DeleteAccessKey)

		accessKey.POST("/toggle/:id", handlers.ToggleAccessKey)
	}
}
