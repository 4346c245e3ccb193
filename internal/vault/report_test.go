package vault

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func donatingVault(assets, supply int64) *Vault {
	v := newTestVault(DonatingPolicy{})
	v.Totals = totals(assets, supply)
	return v
}

func skimmingVault(assets, supply int64) *Vault {
	v := newTestVault(SkimmingPolicy{})
	v.Totals = totals(assets, supply)
	return v
}

func donation(newTotal int64) Valuation {
	return Valuation{TotalAssets: amt(newTotal)}
}

func skim(deltaNew, deltaOld int64) Valuation {
	return Valuation{DeltaAtNewRate: amt(deltaNew), DeltaAtOldRate: amt(deltaOld)}
}

func TestDonatingReport(t *testing.T) {
	t.Run("Profit Mints To The Router At The Old Price", func(t *testing.T) {
		v := donatingVault(100, 100)
		router := NewAccount()

		obs, err := v.Report(&router, donation(110), t0)
		require.NoError(t, err)

		assert.Equal(t, amt(10), obs.Profit)
		assert.True(t, obs.Loss.IsZero())
		assert.Equal(t, amt(10), obs.MintedShares)
		assert.Equal(t, amt(10), router.Balance)
		assert.Equal(t, amt(110), v.Totals.Assets)
		assert.Equal(t, amt(110), v.Totals.Supply)
		assert.Equal(t, t0, v.LastReport)

		// holders keep their price per share: 110/110 == 100/100
		pps, err := v.PricePerShare(0)
		require.NoError(t, err)
		assert.Equal(t, amt(1), pps)
	})

	t.Run("Profit Shares Are Floored", func(t *testing.T) {
		v := donatingVault(300, 100)
		router := NewAccount()
		// profit 10 -> 10*100/300 = 3.33 -> 3
		obs, err := v.Report(&router, donation(310), t0)
		require.NoError(t, err)
		assert.Equal(t, amt(3), obs.MintedShares)
	})

	t.Run("Loss Burns Router Shares First", func(t *testing.T) {
		v := donatingVault(110, 110)
		router := Account{Balance: amt(10)}

		obs, err := v.Report(&router, donation(104), t0)
		require.NoError(t, err)

		assert.Equal(t, amt(6), obs.Loss)
		assert.True(t, obs.Profit.IsZero())
		// 6 * 110 / 110 = 6 shares, router can cover it
		assert.Equal(t, amt(6), obs.BurnedShares)
		assert.Equal(t, amt(4), router.Balance)
		assert.Equal(t, amt(104), v.Totals.Assets)
		assert.Equal(t, amt(104), v.Totals.Supply)
	})

	t.Run("Burn Is Capped At The Router Balance", func(t *testing.T) {
		v := donatingVault(1000, 1000)
		router := Account{Balance: amt(5)}

		obs, err := v.Report(&router, donation(900), t0)
		require.NoError(t, err)

		assert.Equal(t, amt(100), obs.Loss)
		assert.Equal(t, amt(5), obs.BurnedShares, "router only absorbs what it holds")
		assert.True(t, router.Balance.IsZero())
		assert.Equal(t, amt(900), v.Totals.Assets, "the rest of the loss lands on all holders")
		assert.Equal(t, amt(995), v.Totals.Supply)
	})

	t.Run("Flat Valuation Still Stamps The Report", func(t *testing.T) {
		v := donatingVault(500, 500)
		router := NewAccount()

		obs, err := v.Report(&router, donation(500), t0)
		require.NoError(t, err)
		assert.True(t, obs.Profit.IsZero())
		assert.True(t, obs.Loss.IsZero())
		assert.True(t, obs.MintedShares.IsZero())
		assert.True(t, obs.BurnedShares.IsZero())
		assert.Equal(t, t0, v.LastReport)
		assert.Equal(t, t0, obs.ReportedAt)
	})

	t.Run("Missing Valuation Is Rejected", func(t *testing.T) {
		v := donatingVault(100, 100)
		router := NewAccount()
		_, err := v.Report(&router, Valuation{}, t0)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, amt(100), v.Totals.Assets, "failed report must not mutate")
		assert.True(t, v.LastReport.IsZero())
	})

	t.Run("Profit Into An Empty Vault Bootstraps The Router", func(t *testing.T) {
		v := donatingVault(0, 0)
		router := NewAccount()
		obs, err := v.Report(&router, donation(50), t0)
		require.NoError(t, err)
		assert.Equal(t, amt(50), obs.MintedShares)
		assert.Equal(t, amt(50), router.Balance)
		assert.Equal(t, amt(50), v.Totals.Assets)
	})
}

func TestSkimmingReport(t *testing.T) {
	t.Run("Router Stake Equals The Profit At The Post Mint Price", func(t *testing.T) {
		v := skimmingVault(1000, 900)
		router := NewAccount()

		obs, err := v.Report(&router, skim(100, 95), t0)
		require.NoError(t, err)

		// 100 * 900 / (1000-100) = 100
		assert.Equal(t, amt(100), obs.MintedShares)
		assert.Equal(t, amt(100), obs.Profit)
		assert.Equal(t, amt(95), obs.DeltaAtOldRate)
		assert.Equal(t, amt(1000), v.Totals.Assets, "skimming never touches the unit totals")
		assert.Equal(t, amt(1000), v.Totals.Supply)

		routerValue := router.Balance.Mul(v.Totals.Assets).Quo(v.Totals.Supply)
		assert.Equal(t, amt(100), routerValue)
	})

	t.Run("Rate Decrease Burns Nothing", func(t *testing.T) {
		v := skimmingVault(1000, 900)
		router := Account{Balance: amt(50)}

		obs, err := v.Report(&router, skim(-40, -42), t0)
		require.NoError(t, err)

		assert.Equal(t, amt(40), obs.Loss)
		assert.True(t, obs.MintedShares.IsZero())
		assert.True(t, obs.BurnedShares.IsZero(), "losses stay on the rate, not the router")
		assert.Equal(t, amt(50), router.Balance)
		assert.Equal(t, amt(900), v.Totals.Supply)
		assert.Equal(t, t0, v.LastReport)
	})

	t.Run("Profit Swallowing The Pool Mints Nothing", func(t *testing.T) {
		v := skimmingVault(100, 100)
		router := NewAccount()
		obs, err := v.Report(&router, skim(100, 90), t0)
		require.NoError(t, err)
		assert.True(t, obs.MintedShares.IsZero())
		assert.Equal(t, amt(100), obs.Profit, "the profit is still recorded")
	})

	t.Run("Zero Delta Reports Cleanly", func(t *testing.T) {
		v := skimmingVault(1000, 900)
		router := NewAccount()
		obs, err := v.Report(&router, skim(0, 0), t0)
		require.NoError(t, err)
		assert.True(t, obs.Profit.IsZero())
		assert.True(t, obs.Loss.IsZero())
		assert.Equal(t, t0, obs.ReportedAt)
	})
}

func TestReportPlumbing(t *testing.T) {
	t.Run("Policy For Resolves Both Kinds", func(t *testing.T) {
		p, err := PolicyFor("donating")
		require.NoError(t, err)
		assert.Equal(t, PolicyDonating, p.Kind())

		p, err = PolicyFor("skimming")
		require.NoError(t, err)
		assert.Equal(t, PolicySkimming, p.Kind())
	})

	t.Run("Unknown Policy Is Rejected", func(t *testing.T) {
		_, err := PolicyFor("compounding")
		assert.ErrorIs(t, err, ErrState)
	})

	t.Run("Report Without A Policy Is Rejected", func(t *testing.T) {
		v := newTestVault(nil)
		router := NewAccount()
		_, err := v.Report(&router, donation(10), t0)
		assert.ErrorIs(t, err, ErrState)
	})

	t.Run("Observation Carries The Post Report Totals", func(t *testing.T) {
		v := donatingVault(100, 100)
		router := NewAccount()
		obs, err := v.Report(&router, donation(130), t0)
		require.NoError(t, err)
		assert.Equal(t, amt(130), obs.TotalAssets)
		assert.Equal(t, amt(130), obs.TotalSupply)
		assert.Equal(t, PolicyDonating, obs.Policy)
	})
}

func TestReportThenExitKeepsConservation(t *testing.T) {
	// profit, a router mint, and a full drain must never pay out more
	// assets than the pool holds
	v := donatingVault(0, 0)
	alice := NewAccount()
	bob := NewAccount()
	router := NewAccount()

	_, err := v.Deposit(&alice, amt(1000))
	require.NoError(t, err)
	_, err = v.Deposit(&bob, amt(500))
	require.NoError(t, err)

	_, err = v.Report(&router, donation(1650), t0)
	require.NoError(t, err)

	paid := sdkmath.ZeroInt()
	for _, acct := range []*Account{&alice, &bob, &router} {
		if acct.Balance.IsZero() {
			continue
		}
		assets, err := v.Redeem(acct, acct.Balance, t0)
		require.NoError(t, err)
		paid = paid.Add(assets)
	}
	assert.True(t, paid.LTE(amt(1650)), "paid %s out of 1650", paid)
	assert.True(t, v.Totals.Supply.IsZero())
	assert.False(t, v.Totals.Assets.IsNegative())
}
