package routes

import (
	"vaultcontrol/internal/handlers"
	"vaultcontrol/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupVaultRoutes sets up all routes related to vault operations and views
func SetupVaultRoutes(r *gin.Engine) {
	// Accounting mutations, rate limited per IP so a misbehaving client
	// cannot hammer the single-writer entry lock
	ops := r.Group("/vault")
	ops.Use(middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: 20,
		Burst:             50,
	}))
	{
		ops.POST("/:id/deposit", handlers.DepositToVault)
		ops.POST("/:id/deposit-lockup", handlers.DepositToVaultWithLockup)
		ops.POST("/:id/mint", handlers.MintVaultShares)
		ops.POST("/:id/mint-lockup", handlers.MintVaultSharesWithLockup)
		ops.POST("/:id/withdraw", handlers.WithdrawFromVault)
		ops.POST("/:id/redeem", handlers.RedeemVaultShares)
		ops.POST("/:id/rage-quit", handlers.InitiateVaultRageQuit)
		ops.POST("/:id/report", handlers.ReportVault)
	}

	// Read-only views
	views := r.Group("/vault")
	{
		views.GET("/:id/totals", handlers.GetVaultTotals)
		views.GET("/:id/price-per-share", handlers.GetVaultPricePerShare)
		views.GET("/:id/balance/:owner", handlers.GetVaultBalance)
		views.GET("/:id/unlocked/:owner", handlers.GetVaultUnlocked)
		views.GET("/:id/lockup/:owner", handlers.GetVaultLockup)
		views.GET("/:id/cooldown/:owner", handlers.GetVaultCooldown)
		views.GET("/:id/max-withdraw/:owner", handlers.GetVaultMaxWithdraw)
		views.GET("/:id/max-redeem/:owner", handlers.GetVaultMaxRedeem)
		views.GET("/:id/reports", handlers.ListVaultReports)
	}
}
