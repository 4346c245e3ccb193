package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// GetVaultTotals returns the vault's totals row
func GetVaultTotals(c *gin.Context) {
	rt, ok := vaultRuntime(c)
	if !ok {
		return
	}

	state, err := rt.State()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// GetVaultPricePerShare returns the floor asset value of one whole share
func GetVaultPricePerShare(c *gin.Context) {
	rt, ok := vaultRuntime(c)
	if !ok {
		return
	}

	price, err := rt.PricePerShare()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"vault_id":        rt.Config().ID,
		"price_per_share": price,
		"decimals":        rt.Config().Decimals,
	})
}

// GetVaultBalance returns one owner's share balance
func GetVaultBalance(c *gin.Context) {
	rt, ok := vaultRuntime(c)
	if !ok {
		return
	}

	snap, err := rt.OwnerSnapshot(c.Param("owner"), time.Now().UTC())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"vault_id": rt.Config().ID,
		"owner":    snap.Owner,
		"balance":  snap.Balance,
	})
}

// GetVaultUnlocked returns the owner's spendable share amount right now
func GetVaultUnlocked(c *gin.Context) {
	rt, ok := vaultRuntime(c)
	if !ok {
		return
	}

	snap, err := rt.OwnerSnapshot(c.Param("owner"), time.Now().UTC())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"vault_id": rt.Config().ID,
		"owner":    snap.Owner,
		"unlocked": snap.Unlocked,
	})
}

// GetVaultLockup returns the owner's full lockup snapshot
func GetVaultLockup(c *gin.Context) {
	rt, ok := vaultRuntime(c)
	if !ok {
		return
	}

	snap, err := rt.OwnerSnapshot(c.Param("owner"), time.Now().UTC())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetVaultCooldown returns the owner's rage-quit cooldown status
func GetVaultCooldown(c *gin.Context) {
	rt, ok := vaultRuntime(c)
	if !ok {
		return
	}

	snap, err := rt.OwnerSnapshot(c.Param("owner"), time.Now().UTC())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"vault_id":                   rt.Config().ID,
		"owner":                      snap.Owner,
		"rage_quit":                  snap.RageQuit,
		"unlock_time":                snap.UnlockTime,
		"remaining_cooldown_seconds": snap.RemainingCooldown,
	})
}

// GetVaultMaxWithdraw returns the largest asset amount the owner could withdraw now
func GetVaultMaxWithdraw(c *gin.Context) {
	rt, ok := vaultRuntime(c)
	if !ok {
		return
	}

	snap, err := rt.OwnerSnapshot(c.Param("owner"), time.Now().UTC())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"vault_id":     rt.Config().ID,
		"owner":        snap.Owner,
		"max_withdraw": snap.MaxWithdraw,
	})
}

// GetVaultMaxRedeem returns the largest share amount the owner could redeem now
func GetVaultMaxRedeem(c *gin.Context) {
	rt, ok := vaultRuntime(c)
	if !ok {
		return
	}

	snap, err := rt.OwnerSnapshot(c.Param("owner"), time.Now().UTC())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"vault_id":   rt.Config().ID,
		"owner":      snap.Owner,
		"max_redeem": snap.MaxRedeem,
	})
}

// ListVaultReports pages the vault's report history, newest first
func ListVaultReports(c *gin.Context) {
	rt, ok := vaultRuntime(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	records, err := rt.Reports(limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
