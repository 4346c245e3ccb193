package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vaultcontrol/internal/handlers/business"
)

// ReportVault harvests the vault's strategy source and applies the
// profit recognition policy. Keeper only: the caller authenticates
// with the X-API-Key header.
func ReportVault(c *gin.Context) {
	rt, ok := vaultRuntime(c)
	if !ok {
		return
	}

	caller := business.Caller{APIKey: c.GetHeader("X-API-Key")}

	obs, err := rt.Report(c.Request.Context(), caller)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, obs)
}
