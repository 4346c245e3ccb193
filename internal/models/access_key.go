package models

import (
	"time"
)

// Access roles.
const (
	RoleKeeper    = "keeper"
	RoleDepositor = "depositor"
	RoleAdmin     = "admin"
)

// AccessKey is one authorization entry: keepers authenticate report
// calls with APIKey, depositors are allowlisted by address on vaults
// that enable it.
type AccessKey struct {
	ID      uint   `gorm:"primarykey" json:"id"`
	Role    string `gorm:"size:20;not null;index" json:"role"`
	Address string `gorm:"size:100;index" json:"address"`
	APIKey  string `gorm:"size:64;column:api_key;index" json:"api_key"`
	Label   string `gorm:"size:64" json:"label"`
	Enabled bool   `gorm:"default:true" json:"enabled"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (AccessKey) TableName() string {
	return "access_key"
}
