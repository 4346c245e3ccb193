package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// DepositRequest represents the request body for a deposit
type DepositRequest struct {
	Owner  string `json:"owner" binding:"required"`
	Assets string `json:"assets" binding:"required"`
}

// DepositLockupRequest adds a lockup duration in seconds
type DepositLockupRequest struct {
	Owner    string `json:"owner" binding:"required"`
	Assets   string `json:"assets" binding:"required"`
	Duration int64  `json:"duration" binding:"required"`
}

// MintRequest represents the request body for an exact-share mint
type MintRequest struct {
	Owner  string `json:"owner" binding:"required"`
	Shares string `json:"shares" binding:"required"`
}

// MintLockupRequest adds a lockup duration in seconds
type MintLockupRequest struct {
	Owner    string `json:"owner" binding:"required"`
	Shares   string `json:"shares" binding:"required"`
	Duration int64  `json:"duration" binding:"required"`
}

// WithdrawRequest represents the request body for an exact-asset withdrawal
type WithdrawRequest struct {
	Owner  string `json:"owner" binding:"required"`
	Assets string `json:"assets" binding:"required"`
}

// RedeemRequest represents the request body for an exact-share redemption
type RedeemRequest struct {
	Owner  string `json:"owner" binding:"required"`
	Shares string `json:"shares" binding:"required"`
}

// RageQuitRequest represents the request body for starting a rage quit
type RageQuitRequest struct {
	Owner string `json:"owner" binding:"required"`
}

// DepositToVault exchanges assets for shares
func DepositToVault(c *gin.Context) {
	rt, ok := vaultRuntime(c)
	if !ok {
		return
	}

	var request DepositRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	assets, ok := parseAmount(c, request.Assets, "assets")
	if !ok {
		return
	}

	result, err := rt.Deposit(c.Request.Context(), request.Owner, assets)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DepositToVaultWithLockup deposits and locks the minted shares
func DepositToVaultWithLockup(c *gin.Context) {
	rt, ok := vaultRuntime(c)
	if !ok {
		return
	}

	var request DepositLockupRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	assets, ok := parseAmount(c, request.Assets, "assets")
	if !ok {
		return
	}

	result, err := rt.DepositWithLockup(c.Request.Context(), request.Owner, assets, time.Duration(request.Duration)*time.Second)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MintVaultShares issues an exact share amount
func MintVaultShares(c *gin.Context) {
	rt, ok := vaultRuntime(c)
	if !ok {
		return
	}

	var request MintRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	shares, ok := parseAmount(c, request.Shares, "shares")
	if !ok {
		return
	}

	result, err := rt.Mint(c.Request.Context(), request.Owner, shares)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MintVaultSharesWithLockup mints and locks the issued shares
func MintVaultSharesWithLockup(c *gin.Context) {
	rt, ok := vaultRuntime(c)
	if !ok {
		return
	}

	var request MintLockupRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	shares, ok := parseAmount(c, request.Shares, "shares")
	if !ok {
		return
	}

	result, err := rt.MintWithLockup(c.Request.Context(), request.Owner, shares, time.Duration(request.Duration)*time.Second)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// WithdrawFromVault releases an exact asset amount
func WithdrawFromVault(c *gin.Context) {
	rt, ok := vaultRuntime(c)
	if !ok {
		return
	}

	var request WithdrawRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	assets, ok := parseAmount(c, request.Assets, "assets")
	if !ok {
		return
	}

	result, err := rt.Withdraw(c.Request.Context(), request.Owner, assets)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RedeemVaultShares burns an exact share amount
func RedeemVaultShares(c *gin.Context) {
	rt, ok := vaultRuntime(c)
	if !ok {
		return
	}

	var request RedeemRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	shares, ok := parseAmount(c, request.Shares, "shares")
	if !ok {
		return
	}

	result, err := rt.Redeem(c.Request.Context(), request.Owner, shares)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// InitiateVaultRageQuit starts the early-exit cooldown on the owner's lockup
func InitiateVaultRageQuit(c *gin.Context) {
	rt, ok := vaultRuntime(c)
	if !ok {
		return
	}

	var request RageQuitRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := rt.RageQuit(c.Request.Context(), request.Owner)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
