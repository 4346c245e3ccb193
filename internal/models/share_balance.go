package models

import (
	"time"
)

// ShareBalance is one owner's share position in one vault.
type ShareBalance struct {
	ID      uint   `gorm:"primarykey" json:"id"`
	VaultID uint   `gorm:"not null;uniqueIndex:idx_share_balance_owner" json:"vault_id"`
	Owner   string `gorm:"size:100;not null;uniqueIndex:idx_share_balance_owner" json:"owner"`
	Shares  Amount `gorm:"type:numeric(78,0);not null" json:"shares"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (ShareBalance) TableName() string {
	return "share_balance"
}
