package vault

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// LockState is the derived lifecycle state of a lockup record.
type LockState int

const (
	Unlocked LockState = iota
	Locked
	RageQuitting
)

func (s LockState) String() string {
	switch s {
	case Locked:
		return "locked"
	case RageQuitting:
		return "rage_quitting"
	default:
		return "unlocked"
	}
}

// Lockup is one owner's lockup record inside a vault. The zero value
// means the owner never locked. Records are never deleted: once
// UnlockTime passes they go inert and a fresh locked deposit resets them.
type Lockup struct {
	UnlockTime   time.Time
	LockedShares sdkmath.Int
	RageQuit     bool
}

// State derives the tri-state at a point in time. A served rage-quit
// cooldown counts as unlocked, same as an expired ordinary lock.
func (l Lockup) State(now time.Time) LockState {
	if l.UnlockTime.IsZero() || !now.Before(l.UnlockTime) {
		return Unlocked
	}
	if l.RageQuit {
		return RageQuitting
	}
	return Locked
}

// Extend applies a locked deposit of shares for the given duration.
//
// Unlocked records are reset to a fresh window. Locked records extend
// additively on both legs, so the unlock time never moves backwards.
// Rage-quitting records absorb the shares without touching the timer.
func (l *Lockup) Extend(now time.Time, shares sdkmath.Int, duration, minDuration time.Duration) error {
	if duration < minDuration {
		return ErrInsufficientLockupDuration
	}
	switch l.State(now) {
	case Locked:
		l.UnlockTime = l.UnlockTime.Add(duration)
		l.LockedShares = l.locked().Add(shares)
	case RageQuitting:
		l.LockedShares = l.locked().Add(shares)
	default:
		l.UnlockTime = now.Add(duration)
		l.LockedShares = orZero(shares)
		l.RageQuit = false
	}
	return nil
}

// InitiateRageQuit converts an active lock into a rage quit: the unlock
// time is replaced outright with now+cooldown, even when that is sooner
// than the original date, and the locked shares are frozen as the base
// of the linear release.
func (l *Lockup) InitiateRageQuit(now time.Time, cooldown time.Duration) error {
	switch l.State(now) {
	case Unlocked:
		return ErrAlreadyUnlocked
	case RageQuitting:
		return ErrAlreadyRageQuitting
	}
	l.UnlockTime = now.Add(cooldown)
	l.RageQuit = true
	return nil
}

// UnlockedShares reports how many of balance are spendable at now.
//
// Locked holders can spend whatever sits above their locked tranche.
// Rage-quitting holders additionally receive a linear slice of the
// tranche as the cooldown elapses. The result is clamped to [0, balance]:
// the locked figure may exceed the live balance after the owner redeemed
// unlocked shares, and must never push the result negative.
func (l Lockup) UnlockedShares(now time.Time, balance sdkmath.Int, cooldown time.Duration) sdkmath.Int {
	balance = orZero(balance)
	switch l.State(now) {
	case Locked:
		u := balance.Sub(l.locked())
		if u.IsNegative() {
			return sdkmath.ZeroInt()
		}
		return u
	case RageQuitting:
		u := balance.Sub(l.locked()).Add(l.released(now, cooldown))
		if u.IsNegative() {
			return sdkmath.ZeroInt()
		}
		if u.GT(balance) {
			return balance
		}
		return u
	default:
		return balance
	}
}

// released is the linearly vested slice of the frozen tranche:
// floor(locked * elapsed / cooldown), saturating at the full tranche.
func (l Lockup) released(now time.Time, cooldown time.Duration) sdkmath.Int {
	start := l.UnlockTime.Add(-cooldown)
	elapsed := now.Sub(start)
	if elapsed <= 0 {
		return sdkmath.ZeroInt()
	}
	cooldownSec := int64(cooldown / time.Second)
	elapsedSec := int64(elapsed / time.Second)
	if cooldownSec <= 0 || elapsedSec >= cooldownSec {
		return l.locked()
	}
	return l.locked().Mul(sdkmath.NewInt(elapsedSec)).Quo(sdkmath.NewInt(cooldownSec))
}

// RemainingCooldown is the time left on an active rage quit, zero in
// every other state.
func (l Lockup) RemainingCooldown(now time.Time) time.Duration {
	if l.State(now) != RageQuitting {
		return 0
	}
	return l.UnlockTime.Sub(now)
}

func (l Lockup) locked() sdkmath.Int {
	return orZero(l.LockedShares)
}
