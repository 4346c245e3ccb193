package vault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = 24 * time.Hour

var t0 = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestLockupState(t *testing.T) {
	t.Run("Zero Record Is Unlocked", func(t *testing.T) {
		var l Lockup
		assert.Equal(t, Unlocked, l.State(t0))
	})

	t.Run("Future Unlock Time Is Locked", func(t *testing.T) {
		l := Lockup{UnlockTime: t0.Add(10 * day), LockedShares: amt(100)}
		assert.Equal(t, Locked, l.State(t0))
	})

	t.Run("Expired Lock Is Unlocked", func(t *testing.T) {
		l := Lockup{UnlockTime: t0, LockedShares: amt(100)}
		assert.Equal(t, Unlocked, l.State(t0))
		assert.Equal(t, Unlocked, l.State(t0.Add(time.Second)))
	})

	t.Run("Rage Quit Flag With Future Unlock Is Rage Quitting", func(t *testing.T) {
		l := Lockup{UnlockTime: t0.Add(30 * day), LockedShares: amt(100), RageQuit: true}
		assert.Equal(t, RageQuitting, l.State(t0))
	})

	t.Run("Served Cooldown Is Unlocked", func(t *testing.T) {
		l := Lockup{UnlockTime: t0.Add(30 * day), LockedShares: amt(100), RageQuit: true}
		assert.Equal(t, Unlocked, l.State(t0.Add(30*day)))
	})
}

func TestLockupExtend(t *testing.T) {
	minDur := 90 * day

	t.Run("Duration Below Minimum Is Rejected", func(t *testing.T) {
		var l Lockup
		err := l.Extend(t0, amt(100), 89*day, minDur)
		assert.ErrorIs(t, err, ErrInsufficientLockupDuration)
		assert.ErrorIs(t, err, ErrValidation)
		assert.True(t, l.UnlockTime.IsZero(), "rejected extend must not touch the record")
	})

	t.Run("Fresh Lock Sets The Window", func(t *testing.T) {
		var l Lockup
		require.NoError(t, l.Extend(t0, amt(100), 100*day, minDur))
		assert.Equal(t, t0.Add(100*day), l.UnlockTime)
		assert.Equal(t, amt(100), l.LockedShares)
		assert.False(t, l.RageQuit)
	})

	t.Run("Active Lock Extends Additively", func(t *testing.T) {
		var l Lockup
		require.NoError(t, l.Extend(t0, amt(100), 100*day, minDur))
		require.NoError(t, l.Extend(t0.Add(10*day), amt(50), 90*day, minDur))
		assert.Equal(t, t0.Add(190*day), l.UnlockTime, "durations stack on the existing window")
		assert.Equal(t, amt(150), l.LockedShares)
	})

	t.Run("Unlock Time Never Decreases Across Extends", func(t *testing.T) {
		var l Lockup
		now := t0
		prev := time.Time{}
		for i := 0; i < 5; i++ {
			require.NoError(t, l.Extend(now, amt(10), 90*day, minDur))
			assert.False(t, l.UnlockTime.Before(prev))
			prev = l.UnlockTime
			now = now.Add(day)
		}
	})

	t.Run("Expired Lock Is Reset Not Extended", func(t *testing.T) {
		var l Lockup
		require.NoError(t, l.Extend(t0, amt(100), 90*day, minDur))
		later := t0.Add(200 * day)
		require.NoError(t, l.Extend(later, amt(30), 90*day, minDur))
		assert.Equal(t, later.Add(90*day), l.UnlockTime)
		assert.Equal(t, amt(30), l.LockedShares, "inert shares do not carry into the new window")
	})

	t.Run("Rage Quitting Lock Absorbs Shares Without Touching The Timer", func(t *testing.T) {
		l := Lockup{UnlockTime: t0.Add(90 * day), LockedShares: amt(100), RageQuit: true}
		require.NoError(t, l.Extend(t0.Add(5*day), amt(40), 90*day, minDur))
		assert.Equal(t, t0.Add(90*day), l.UnlockTime)
		assert.Equal(t, amt(140), l.LockedShares)
		assert.True(t, l.RageQuit)
	})

	t.Run("Served Rage Quit Resets Like Any Expired Lock", func(t *testing.T) {
		l := Lockup{UnlockTime: t0.Add(90 * day), LockedShares: amt(100), RageQuit: true}
		later := t0.Add(91 * day)
		require.NoError(t, l.Extend(later, amt(25), 90*day, minDur))
		assert.Equal(t, later.Add(90*day), l.UnlockTime)
		assert.Equal(t, amt(25), l.LockedShares)
		assert.False(t, l.RageQuit, "a fresh lock clears the served rage quit")
	})
}

func TestInitiateRageQuit(t *testing.T) {
	cooldown := 90 * day

	t.Run("Replaces The Unlock Time Outright", func(t *testing.T) {
		l := Lockup{UnlockTime: t0.Add(180 * day), LockedShares: amt(100)}
		require.NoError(t, l.InitiateRageQuit(t0, cooldown))
		assert.Equal(t, t0.Add(90*day), l.UnlockTime, "cooldown may shorten the wait")
		assert.True(t, l.RageQuit)
		assert.Equal(t, amt(100), l.LockedShares)
	})

	t.Run("Unlocked Owner Cannot Rage Quit", func(t *testing.T) {
		var l Lockup
		err := l.InitiateRageQuit(t0, cooldown)
		assert.ErrorIs(t, err, ErrAlreadyUnlocked)
		assert.ErrorIs(t, err, ErrState)
	})

	t.Run("Expired Lock Cannot Rage Quit", func(t *testing.T) {
		l := Lockup{UnlockTime: t0, LockedShares: amt(100)}
		err := l.InitiateRageQuit(t0.Add(time.Hour), cooldown)
		assert.ErrorIs(t, err, ErrAlreadyUnlocked)
	})

	t.Run("Second Rage Quit Is Rejected", func(t *testing.T) {
		l := Lockup{UnlockTime: t0.Add(180 * day), LockedShares: amt(100)}
		require.NoError(t, l.InitiateRageQuit(t0, cooldown))
		err := l.InitiateRageQuit(t0.Add(day), cooldown)
		assert.ErrorIs(t, err, ErrAlreadyRageQuitting)
	})
}

func TestUnlockedShares(t *testing.T) {
	cooldown := 90 * day

	t.Run("Unlocked Owner Spends The Full Balance", func(t *testing.T) {
		var l Lockup
		assert.Equal(t, amt(500), l.UnlockedShares(t0, amt(500), cooldown))
	})

	t.Run("Locked Shares Are Fenced Off", func(t *testing.T) {
		l := Lockup{UnlockTime: t0.Add(30 * day), LockedShares: amt(300)}
		assert.Equal(t, amt(200), l.UnlockedShares(t0, amt(500), cooldown))
	})

	t.Run("Locked Tranche Above Balance Floors At Zero", func(t *testing.T) {
		l := Lockup{UnlockTime: t0.Add(30 * day), LockedShares: amt(800)}
		assert.True(t, l.UnlockedShares(t0, amt(500), cooldown).IsZero())
	})

	t.Run("Rage Quit Releases Linearly", func(t *testing.T) {
		l := Lockup{UnlockTime: t0.Add(180 * day), LockedShares: amt(1000)}
		require.NoError(t, l.InitiateRageQuit(t0, cooldown))

		assert.True(t, l.UnlockedShares(t0, amt(1000), cooldown).IsZero())
		assert.Equal(t, amt(500), l.UnlockedShares(t0.Add(45*day), amt(1000), cooldown),
			"half the cooldown releases half the tranche")
		assert.Equal(t, amt(1000), l.UnlockedShares(t0.Add(90*day), amt(1000), cooldown))
		assert.Equal(t, amt(1000), l.UnlockedShares(t0.Add(400*day), amt(1000), cooldown))
	})

	t.Run("Linear Release Floors The Fraction", func(t *testing.T) {
		l := Lockup{UnlockTime: t0.Add(90 * day), LockedShares: amt(1001), RageQuit: true}
		// 1001 * 45/90 = 500.5 -> 500
		assert.Equal(t, amt(500), l.UnlockedShares(t0.Add(45*day), amt(1001), cooldown))
	})

	t.Run("Shrunk Balance Floors At Zero Early In The Cooldown", func(t *testing.T) {
		// the tranche exceeds the live balance after earlier redemptions
		l := Lockup{UnlockTime: t0.Add(90 * day), LockedShares: amt(1000), RageQuit: true}
		// released 1000*9/90 = 100; 400 - 1000 + 100 < 0
		assert.True(t, l.UnlockedShares(t0.Add(9*day), amt(400), cooldown).IsZero())
		// released 1000*89/90 = 988; 400 - 1000 + 988 = 388
		assert.Equal(t, amt(388), l.UnlockedShares(t0.Add(89*day), amt(400), cooldown))
	})
}

func TestRemainingCooldown(t *testing.T) {
	cooldown := 90 * day

	t.Run("Counts Down While Rage Quitting", func(t *testing.T) {
		l := Lockup{UnlockTime: t0.Add(120 * day), LockedShares: amt(10)}
		require.NoError(t, l.InitiateRageQuit(t0, cooldown))
		assert.Equal(t, 90*day, l.RemainingCooldown(t0))
		assert.Equal(t, 30*day, l.RemainingCooldown(t0.Add(60*day)))
	})

	t.Run("Zero Outside A Rage Quit", func(t *testing.T) {
		var l Lockup
		assert.Equal(t, time.Duration(0), l.RemainingCooldown(t0))

		locked := Lockup{UnlockTime: t0.Add(30 * day), LockedShares: amt(10)}
		assert.Equal(t, time.Duration(0), locked.RemainingCooldown(t0))

		served := Lockup{UnlockTime: t0, LockedShares: amt(10), RageQuit: true}
		assert.Equal(t, time.Duration(0), served.RemainingCooldown(t0.Add(time.Hour)))
	})
}
