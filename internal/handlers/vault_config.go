package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"vaultcontrol/internal/handlers/business"
	"vaultcontrol/internal/models"
	"vaultcontrol/internal/vault"
	dbconfig "vaultcontrol/pkg/config"
	"vaultcontrol/pkg/strategy"
)

// VaultConfigRequest represents the request body for creating/updating a vault config
type VaultConfigRequest struct {
	Name              string `json:"name" binding:"required"`
	AssetSymbol       string `json:"asset_symbol" binding:"required"`
	ShareSymbol       string `json:"share_symbol" binding:"required"`
	Decimals          *uint8 `json:"decimals"`
	Policy            string `json:"policy" binding:"required"`
	RouterAddress     string `json:"router_address" binding:"required"`
	MinLockupDuration *int64 `json:"min_lockup_duration"`
	RageQuitCooldown  *int64 `json:"rage_quit_cooldown"`
	SourceKind        string `json:"source_kind"`
	SourceEndpoint    string `json:"source_endpoint"`
	SourceAccount     string `json:"source_account"`
	SourceSecret      string `json:"source_secret"`
	ReportInterval    *int64 `json:"report_interval"`
	ReportEnabled     *bool  `json:"report_enabled"`
	AllowlistEnabled  *bool  `json:"allowlist_enabled"`
	IsActive          *bool  `json:"is_active"`
}

func validateVaultConfigRequest(request *VaultConfigRequest) error {
	if _, err := vault.PolicyFor(request.Policy); err != nil {
		return err
	}
	switch request.SourceKind {
	case strategy.SourceHTTP, strategy.SourceSolana, strategy.SourceRatefeed, strategy.SourceStatic, "":
		return nil
	default:
		return fmt.Errorf("%w: unknown source kind %q", vault.ErrValidation, request.SourceKind)
	}
}

func applyVaultConfigRequest(cfg *models.VaultConfig, request *VaultConfigRequest) {
	cfg.Name = request.Name
	cfg.AssetSymbol = request.AssetSymbol
	cfg.ShareSymbol = request.ShareSymbol
	cfg.Policy = request.Policy
	cfg.RouterAddress = request.RouterAddress
	cfg.SourceKind = request.SourceKind
	cfg.SourceEndpoint = request.SourceEndpoint
	cfg.SourceAccount = request.SourceAccount
	if request.SourceSecret != "" {
		cfg.SourceSecret = request.SourceSecret
	}
	if request.Decimals != nil {
		cfg.Decimals = *request.Decimals
	}
	if request.MinLockupDuration != nil {
		cfg.MinLockupDuration = *request.MinLockupDuration
	}
	if request.RageQuitCooldown != nil {
		cfg.RageQuitCooldown = *request.RageQuitCooldown
	}
	if request.ReportInterval != nil {
		cfg.ReportInterval = *request.ReportInterval
	}
	if request.ReportEnabled != nil {
		cfg.ReportEnabled = *request.ReportEnabled
	}
	if request.AllowlistEnabled != nil {
		cfg.AllowlistEnabled = *request.AllowlistEnabled
	}
	if request.IsActive != nil {
		cfg.IsActive = *request.IsActive
	}
}

// ListVaultConfigs returns a list of all vault configs
func ListVaultConfigs(c *gin.Context) {
	var configs []models.VaultConfig
	if err := dbconfig.DB.Preload("State").Find(&configs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, configs)
}

// GetVaultConfig returns a specific vault config by ID
func GetVaultConfig(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var cfg models.VaultConfig
	if err := dbconfig.DB.Preload("State").First(&cfg, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// CreateVaultConfig creates a new vault config
func CreateVaultConfig(c *gin.Context) {
	var request VaultConfigRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateVaultConfigRequest(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var cfg models.VaultConfig
	applyVaultConfigRequest(&cfg, &request)

	if err := dbconfig.DB.Create(&cfg).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, cfg)
}

// UpdateVaultConfig updates an existing vault config
func UpdateVaultConfig(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var request VaultConfigRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateVaultConfigRequest(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var cfg models.VaultConfig
	if err := dbconfig.DB.First(&cfg, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	applyVaultConfigRequest(&cfg, &request)

	if err := dbconfig.DB.Save(&cfg).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Drop the cached runtime so the next operation sees the new config
	business.Vaults.Invalidate(cfg.ID)

	c.JSON(http.StatusOK, cfg)
}

// ToggleVaultConfig flips a vault between active and inactive
func ToggleVaultConfig(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var cfg models.VaultConfig
	if err := dbconfig.DB.First(&cfg, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	cfg.IsActive = !cfg.IsActive

	if err := dbconfig.DB.Save(&cfg).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update vault config"})
		return
	}

	business.Vaults.Invalidate(cfg.ID)

	message := "Vault deactivated successfully"
	if cfg.IsActive {
		message = "Vault activated successfully"
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        cfg.ID,
		"is_active": cfg.IsActive,
		"message":   message,
	})
}

// DeleteVaultConfig deletes a vault config. A vault with outstanding
// shares cannot be deleted.
func DeleteVaultConfig(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var state models.VaultState
	err := dbconfig.DB.Where("vault_id = ?", id).First(&state).Error
	if err == nil && !state.TotalSupply.Int.IsNil() && state.TotalSupply.Int.IsPositive() {
		c.JSON(http.StatusConflict, gin.H{"error": "Vault still has outstanding shares"})
		return
	}

	if err := dbconfig.DB.Delete(&models.VaultConfig{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	business.Vaults.Invalidate(id)

	c.JSON(http.StatusOK, gin.H{"message": "Record deleted successfully"})
}
