package models

import (
	"time"
)

// ReportRecord is the append-only history of profit/loss recognition.
// One row per applied report, written in the same transaction as the
// totals update.
type ReportRecord struct {
	ID      uint   `gorm:"primarykey" json:"id"`
	VaultID uint   `gorm:"not null;index" json:"vault_id"`
	Policy  string `gorm:"size:20;not null" json:"policy"`

	Profit         Amount `gorm:"type:numeric(78,0);not null" json:"profit"`
	Loss           Amount `gorm:"type:numeric(78,0);not null" json:"loss"`
	MintedShares   Amount `gorm:"type:numeric(78,0);not null" json:"minted_shares"`
	BurnedShares   Amount `gorm:"type:numeric(78,0);not null" json:"burned_shares"`
	DeltaAtOldRate Amount `gorm:"type:numeric(78,0)" json:"delta_at_old_rate"`

	TotalAssetsAfter Amount `gorm:"type:numeric(78,0);not null" json:"total_assets_after"`
	TotalSupplyAfter Amount `gorm:"type:numeric(78,0);not null" json:"total_supply_after"`

	Caller    string    `gorm:"size:100" json:"caller"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (ReportRecord) TableName() string {
	return "report_record"
}
