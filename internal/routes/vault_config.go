package routes

import (
	"vaultcontrol/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupVaultConfigRoutes sets up all routes related to Vault Config management
func SetupVaultConfigRoutes(r *gin.Engine) {
	vaultConfig := r.Group("/vault-config")
	{
		// Standard CRUD operations
		vaultConfig.GET("", handlers.ListVaultConfigs)
		vaultConfig.GET("/:id", handlers.GetVaultConfig)
		vaultConfig.POST("", handlers.CreateVaultConfig)
		vaultConfig.PUT("/:id", handlers.UpdateVaultConfig)
		vaultConfig.DELETE("/:id", handlers.DeleteVaultConfig)

		vaultConfig.POST("/toggle/:id", handlers.ToggleVaultConfig)
	}
}
