package models

import (
	"time"
)

// VaultState is the single totals row of one vault. Every accounting
// mutation rewrites this row inside the same transaction that touches
// the balance and lockup rows.
type VaultState struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	VaultID     uint   `gorm:"uniqueIndex;not null" json:"vault_id"`
	TotalAssets Amount `gorm:"type:numeric(78,0);not null" json:"total_assets"`
	TotalSupply Amount `gorm:"type:numeric(78,0);not null" json:"total_supply"`

	// LastRate is the exchange rate the last skimming harvest settled
	// at, scaled by the feed; zero for donating vaults.
	LastRate Amount `gorm:"type:numeric(78,0)" json:"last_rate"`

	LastReportAt *time.Time `json:"last_report_at"`
	ReportCount  int64      `gorm:"default:0" json:"report_count"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (VaultState) TableName() string {
	return "vault_state"
}
