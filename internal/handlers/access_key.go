package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"vaultcontrol/internal/models"
	dbconfig "vaultcontrol/pkg/config"
	"vaultcontrol/pkg/solana"
)

// AccessKeyRequest represents the request body for creating/updating an access key
type AccessKeyRequest struct {
	Role    string `json:"role" binding:"required"`
	Address string `json:"address"`
	APIKey  string `json:"api_key"`
	Label   string `json:"label"`
	Enabled *bool  `json:"enabled"`
}

func validateAccessKeyRequest(request *AccessKeyRequest) string {
	switch request.Role {
	case models.RoleKeeper:
		if request.APIKey == "" {
			return "Keeper entries require an api_key"
		}
	case models.RoleDepositor:
		if request.Address == "" {
			return "Depositor entries require an address"
		}
	case models.RoleAdmin:
	default:
		return "Invalid role"
	}
	return ""
}

// ListAccessKeys returns a list of all access keys
func ListAccessKeys(c *gin.Context) {
	var keys []models.AccessKey
	query := dbconfig.DB
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if err := query.Find(&keys).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, keys)
}

// GetAccessKey returns a specific access key by ID
func GetAccessKey(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var key models.AccessKey
	if err := dbconfig.DB.First(&key, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	c.JSON(http.StatusOK, key)
}

// CreateAccessKey creates a new access key
func CreateAccessKey(c *gin.Context) {
	var request AccessKeyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := validateAccessKeyRequest(&request); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	// Keeper entries registered without an address get a fresh on-chain
	// identity, stored encrypted in the keystore
	if request.Role == models.RoleKeeper && request.Address == "" {
		if passphrase := os.Getenv("KEYSTORE_PASSPHRASE"); passphrase != "" {
			ks := solana.NewKeystore("")
			address, err := ks.GenerateIdentity(request.Role, passphrase)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			request.Address = address
		}
	}

	key := models.AccessKey{
		Role:    request.Role,
		Address: request.Address,
		APIKey:  request.APIKey,
		Label:   request.Label,
	}
	if request.Enabled != nil {
		key.Enabled = *request.Enabled
	} else {
		key.Enabled = true
	}

	if err := dbconfig.DB.Create(&key).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, key)
}

// UpdateAccessKey updates an existing access key
func UpdateAccessKey(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var request AccessKeyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := validateAccessKeyRequest(&request); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	var key models.AccessKey
	if err := dbconfig.DB.First(&key, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	key.Role = request.Role
	key.Address = request.Address
	key.APIKey = request.APIKey
	key.Label = request.Label
	if request.Enabled != nil {
		key.Enabled = *request.Enabled
	}

	if err := dbconfig.DB.Save(&key).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, key)
}

// ToggleAccessKey flips an access key between enabled and disabled
func ToggleAccessKey(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var key models.AccessKey
	if err := dbconfig.DB.First(&key, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	key.Enabled = !key.Enabled

	if err := dbconfig.DB.Save(&key).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update access key"})
		return
	}

	message := "Access key disabled successfully"
	if key.Enabled {
		message = "Access key enabled successfully"
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      key.ID,
		"enabled": key.Enabled,
		"message": message,
	})
}

// DeleteAccessKey deletes an access key
func DeleteAccessKey(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := dbconfig.DB.Delete(&models.AccessKey{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Record deleted successfully"})
}
