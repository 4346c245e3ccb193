package vault

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// Event types published to the vault events queue.
const (
	EventDeposit           = "deposit"
	EventMint              = "mint"
	EventWithdraw          = "withdraw"
	EventRedeem            = "redeem"
	EventLockupExtended    = "lockup_extended"
	EventRageQuitInitiated = "rage_quit_initiated"
	EventReport            = "report"
)

// Event is the wire payload for one applied state transition. Amount
// fields marshal as decimal strings; zero-value ints marshal as "0".
type Event struct {
	Type        string      `json:"type"`
	VaultID     uint        `json:"vault_id"`
	Owner       string      `json:"owner,omitempty"`
	Assets      sdkmath.Int `json:"assets"`
	Shares      sdkmath.Int `json:"shares"`
	UnlockTime  *time.Time  `json:"unlock_time,omitempty"`
	Profit      sdkmath.Int `json:"profit"`
	Loss        sdkmath.Int `json:"loss"`
	TotalAssets sdkmath.Int `json:"total_assets"`
	TotalSupply sdkmath.Int `json:"total_supply"`
	OccurredAt  time.Time   `json:"occurred_at"`
}
