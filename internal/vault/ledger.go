package vault

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
)

// Account is one owner's working set inside a vault: the live share
// balance plus the lockup record.
type Account struct {
	Balance sdkmath.Int
	Lockup  Lockup
}

// NewAccount returns an account with a zero balance and no lockup.
func NewAccount() Account {
	return Account{Balance: sdkmath.ZeroInt()}
}

// Vault is the in-memory operation surface over a single vault's
// accounting state. It carries no persistence and no locking; callers
// hydrate the working set, apply one operation, and persist what
// changed. Every operation either completes fully or leaves the working
// set untouched.
type Vault struct {
	Totals            Totals
	Policy            Policy
	MinLockupDuration time.Duration
	RageQuitCooldown  time.Duration
	LastReport        time.Time
}

// Deposit exchanges assets for shares at the current price, rounding
// the minted shares down.
func (v *Vault) Deposit(acct *Account, assets sdkmath.Int) (sdkmath.Int, error) {
	if err := requirePositive(assets); err != nil {
		return sdkmath.ZeroInt(), err
	}
	shares, err := SharesForAssets(v.Totals, assets, RoundDown)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	v.credit(acct, assets, shares)
	return shares, nil
}

// DepositWithLockup is Deposit plus a lockup extension covering the
// minted shares. The lockup is validated on a copy first, so a rejected
// duration mutates nothing.
func (v *Vault) DepositWithLockup(acct *Account, assets sdkmath.Int, duration time.Duration, now time.Time) (sdkmath.Int, error) {
	if err := requirePositive(assets); err != nil {
		return sdkmath.ZeroInt(), err
	}
	shares, err := SharesForAssets(v.Totals, assets, RoundDown)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	lock := acct.Lockup
	if err := lock.Extend(now, shares, duration, v.MinLockupDuration); err != nil {
		return sdkmath.ZeroInt(), err
	}
	v.credit(acct, assets, shares)
	acct.Lockup = lock
	return shares, nil
}

// Mint issues an exact share amount and returns the assets charged,
// rounded up. At bootstrap the charge is 1:1, the defined empty-vault
// price, so shares are never minted for free.
func (v *Vault) Mint(acct *Account, shares sdkmath.Int) (sdkmath.Int, error) {
	if err := requirePositive(shares); err != nil {
		return sdkmath.ZeroInt(), err
	}
	assets, err := v.mintCharge(shares)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	v.credit(acct, assets, shares)
	return assets, nil
}

// MintWithLockup is Mint plus a lockup extension covering the shares.
func (v *Vault) MintWithLockup(acct *Account, shares sdkmath.Int, duration time.Duration, now time.Time) (sdkmath.Int, error) {
	if err := requirePositive(shares); err != nil {
		return sdkmath.ZeroInt(), err
	}
	assets, err := v.mintCharge(shares)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	lock := acct.Lockup
	if err := lock.Extend(now, shares, duration, v.MinLockupDuration); err != nil {
		return sdkmath.ZeroInt(), err
	}
	v.credit(acct, assets, shares)
	acct.Lockup = lock
	return assets, nil
}

// Withdraw releases an exact asset amount and returns the shares burned
// for it, rounded up so the owner can never under-pay. The pool cannot
// release more assets than it holds, whatever the share price says.
func (v *Vault) Withdraw(acct *Account, assets sdkmath.Int, now time.Time) (sdkmath.Int, error) {
	if err := requirePositive(assets); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if assets.GT(v.Totals.Assets) {
		return sdkmath.ZeroInt(), ErrInsufficientBalance
	}
	shares, err := SharesForAssets(v.Totals, assets, RoundUp)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := v.gateExit(acct, shares, now); err != nil {
		return sdkmath.ZeroInt(), err
	}
	v.debit(acct, assets, shares)
	return shares, nil
}

// Redeem burns an exact share amount and returns the assets released,
// rounded down.
func (v *Vault) Redeem(acct *Account, shares sdkmath.Int, now time.Time) (sdkmath.Int, error) {
	if err := requirePositive(shares); err != nil {
		return sdkmath.ZeroInt(), err
	}
	assets, err := AssetsForShares(v.Totals, shares, RoundDown)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := v.gateExit(acct, shares, now); err != nil {
		return sdkmath.ZeroInt(), err
	}
	v.debit(acct, assets, shares)
	return assets, nil
}

// InitiateRageQuit starts the early-exit cooldown on the owner's lockup.
func (v *Vault) InitiateRageQuit(acct *Account, now time.Time) error {
	return acct.Lockup.InitiateRageQuit(now, v.RageQuitCooldown)
}

// UnlockedShares is the owner's spendable share amount at now.
func (v *Vault) UnlockedShares(acct *Account, now time.Time) sdkmath.Int {
	return acct.Lockup.UnlockedShares(now, acct.Balance, v.RageQuitCooldown)
}

// LockupInfo is the owner-facing lockup snapshot.
type LockupInfo struct {
	UnlockTime         time.Time
	LockedShares       sdkmath.Int
	RageQuit           bool
	TotalShares        sdkmath.Int
	WithdrawableShares sdkmath.Int
}

// LockupInfo reports the owner's lockup record alongside the live
// balance and what portion of it is withdrawable right now.
func (v *Vault) LockupInfo(acct *Account, now time.Time) LockupInfo {
	return LockupInfo{
		UnlockTime:         acct.Lockup.UnlockTime,
		LockedShares:       orZero(acct.Lockup.LockedShares),
		RageQuit:           acct.Lockup.RageQuit,
		TotalShares:        orZero(acct.Balance),
		WithdrawableShares: v.UnlockedShares(acct, now),
	}
}

// RemainingCooldown is the time left on the owner's rage quit, zero when
// no rage quit is running.
func (v *Vault) RemainingCooldown(acct *Account, now time.Time) time.Duration {
	return acct.Lockup.RemainingCooldown(now)
}

// MaxRedeem is the largest share amount Redeem would accept for the
// owner at now.
func (v *Vault) MaxRedeem(acct *Account, now time.Time) sdkmath.Int {
	return v.UnlockedShares(acct, now)
}

// MaxWithdraw is the largest asset amount Withdraw would release to the
// owner at now, the floor value of the unlocked shares.
func (v *Vault) MaxWithdraw(acct *Account, now time.Time) (sdkmath.Int, error) {
	return AssetsForShares(v.Totals, v.UnlockedShares(acct, now), RoundDown)
}

// PricePerShare is the asset value of one whole share (10^decimals share
// units), floor. An empty vault prices 1:1.
func (v *Vault) PricePerShare(decimals uint8) (sdkmath.Int, error) {
	unit := sdkmath.NewIntWithDecimal(1, int(decimals))
	return SharesValue(v.Totals, unit)
}

// SharesValue is the floor asset value of a share amount, 1:1 when the
// vault is empty.
func SharesValue(t Totals, shares sdkmath.Int) (sdkmath.Int, error) {
	if t.Supply.IsZero() {
		return shares, nil
	}
	return AssetsForShares(t, shares, RoundDown)
}

// mintCharge prices an exact share issuance.
func (v *Vault) mintCharge(shares sdkmath.Int) (sdkmath.Int, error) {
	if v.Totals.Supply.IsZero() {
		return shares, nil
	}
	return AssetsForShares(v.Totals, shares, RoundUp)
}

// gateExit enforces the exit limits: the request must fit the live
// balance first, and then the unlocked portion of it.
func (v *Vault) gateExit(acct *Account, shares sdkmath.Int, now time.Time) error {
	if shares.GT(orZero(acct.Balance)) {
		return ErrInsufficientBalance
	}
	if shares.GT(v.UnlockedShares(acct, now)) {
		return ErrExceedsUnlocked
	}
	return nil
}

func (v *Vault) credit(acct *Account, assets, shares sdkmath.Int) {
	v.Totals.Assets = v.Totals.Assets.Add(assets)
	v.Totals.Supply = v.Totals.Supply.Add(shares)
	acct.Balance = orZero(acct.Balance).Add(shares)
}

func (v *Vault) debit(acct *Account, assets, shares sdkmath.Int) {
	v.Totals.Assets = v.Totals.Assets.Sub(assets)
	v.Totals.Supply = v.Totals.Supply.Sub(shares)
	acct.Balance = acct.Balance.Sub(shares)
}

func requirePositive(amount sdkmath.Int) error {
	if amount.IsNil() || amount.IsZero() {
		return ErrZeroAmount
	}
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// stateErrf wraps a formatted condition into the state class.
func stateErrf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrState, fmt.Sprintf(format, args...))
}
