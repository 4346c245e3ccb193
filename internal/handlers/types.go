package handlers

import (
	"errors"
	"net/http"
	"strconv"

	sdkmath "cosmossdk.io/math"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"vaultcontrol/internal/handlers/business"
	"vaultcontrol/internal/vault"
)

// parseID reads a numeric path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return 0, false
	}
	return uint(id), true
}

// vaultRuntime resolves the :id path parameter to a live vault runtime.
func vaultRuntime(c *gin.Context) (*business.Runtime, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	rt, err := business.Vaults.Get(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil, false
	}
	return rt, true
}

// parseAmount reads a base-unit amount sent as a decimal string.
func parseAmount(c *gin.Context, value, field string) (sdkmath.Int, bool) {
	amount, ok := sdkmath.NewIntFromString(value)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + field + " format"})
		return sdkmath.ZeroInt(), false
	}
	return amount, true
}

// statusForError maps the accounting error classes onto HTTP statuses.
// Specific errors wrap exactly one class, so errors.Is over the classes
// is exhaustive.
func statusForError(err error) int {
	switch {
	case errors.Is(err, vault.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, vault.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, vault.ErrState):
		return http.StatusConflict
	case errors.Is(err, vault.ErrArithmetic):
		return http.StatusUnprocessableEntity
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{"error": err.Error()})
}
