package models

import (
	"time"
)

// LockupRecord is one owner's lockup row in one vault. Rows are never
// deleted; an expired lockup goes inert and is reset in place by the
// next locked deposit.
type LockupRecord struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	VaultID      uint       `gorm:"not null;uniqueIndex:idx_lockup_owner" json:"vault_id"`
	Owner        string     `gorm:"size:100;not null;uniqueIndex:idx_lockup_owner" json:"owner"`
	UnlockTime   *time.Time `json:"unlock_time"`
	LockedShares Amount     `gorm:"type:numeric(78,0);not null" json:"locked_shares"`
	RageQuit     bool       `gorm:"default:false" json:"rage_quit"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (LockupRecord) TableName() string {
	return "lockup_record"
}
