package models

import (
	"time"
)

// VaultConfig is the operator-managed definition of one vault.
type VaultConfig struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	Name        string `gorm:"size:64;not null" json:"name"`
	AssetSymbol string `gorm:"size:16;not null" json:"asset_symbol"`
	ShareSymbol string `gorm:"size:16;not null" json:"share_symbol"`
	Decimals    uint8  `gorm:"default:6" json:"decimals"`

	// Policy is the profit recognition policy: 'donating' or 'skimming'.
	Policy        string `gorm:"size:20;not null;default:'donating'" json:"policy"`
	RouterAddress string `gorm:"size:100;not null" json:"router_address"`

	// Lockup parameters, in seconds.
	MinLockupDuration int64 `gorm:"not null;default:7776000" json:"min_lockup_duration"`
	RageQuitCooldown  int64 `gorm:"not null;default:7776000" json:"rage_quit_cooldown"`

	// Strategy source wiring: 'http', 'solana', 'ratefeed' or 'static'.
	SourceKind     string `gorm:"size:20;not null;default:'static'" json:"source_kind"`
	SourceEndpoint string `gorm:"size:255" json:"source_endpoint"`
	SourceAccount  string `gorm:"size:100" json:"source_account"`
	SourceSecret   string `gorm:"size:128" json:"-"`

	// Keeper scheduling.
	ReportInterval int64 `gorm:"default:3600" json:"report_interval"`
	ReportEnabled  bool  `gorm:"default:true" json:"report_enabled"`

	AllowlistEnabled bool `gorm:"default:false" json:"allowlist_enabled"`
	IsActive         bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	State *VaultState `gorm:"foreignKey:VaultID" json:"state,omitempty"`
}

func (VaultConfig) TableName() string {
	return "vault_config"
}
