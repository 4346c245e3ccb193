package vault

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amt(n int64) sdkmath.Int {
	return sdkmath.NewInt(n)
}

func totals(assets, supply int64) Totals {
	return NewTotals(amt(assets), amt(supply))
}

func TestSharesForAssets(t *testing.T) {
	t.Run("Bootstrap Converts One To One", func(t *testing.T) {
		shares, err := SharesForAssets(EmptyTotals(), amt(12345), RoundDown)
		require.NoError(t, err)
		assert.Equal(t, amt(12345), shares)
	})

	t.Run("Zero Assets With Live Supply Converts One To One", func(t *testing.T) {
		shares, err := SharesForAssets(totals(0, 500), amt(40), RoundDown)
		require.NoError(t, err)
		assert.Equal(t, amt(40), shares)
	})

	t.Run("Pro Rata Floor", func(t *testing.T) {
		// 10 * 300 / 200 = 15
		shares, err := SharesForAssets(totals(200, 300), amt(10), RoundDown)
		require.NoError(t, err)
		assert.Equal(t, amt(15), shares)

		// 7 * 100 / 300 = 2.33 -> 2
		shares, err = SharesForAssets(totals(300, 100), amt(7), RoundDown)
		require.NoError(t, err)
		assert.Equal(t, amt(2), shares)
	})

	t.Run("Pro Rata Ceiling", func(t *testing.T) {
		// 7 * 100 / 300 = 2.33 -> 3
		shares, err := SharesForAssets(totals(300, 100), amt(7), RoundUp)
		require.NoError(t, err)
		assert.Equal(t, amt(3), shares)

		// exact division is unchanged by the mode
		shares, err = SharesForAssets(totals(200, 300), amt(10), RoundUp)
		require.NoError(t, err)
		assert.Equal(t, amt(15), shares)
	})

	t.Run("Zero Amount Is Allowed", func(t *testing.T) {
		shares, err := SharesForAssets(totals(200, 300), amt(0), RoundDown)
		require.NoError(t, err)
		assert.True(t, shares.IsZero())
	})

	t.Run("Negative Amount Is Rejected", func(t *testing.T) {
		_, err := SharesForAssets(totals(200, 300), amt(-1), RoundDown)
		assert.ErrorIs(t, err, ErrNegativeAmount)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestAssetsForShares(t *testing.T) {
	t.Run("Zero Supply Returns Zero", func(t *testing.T) {
		assets, err := AssetsForShares(EmptyTotals(), amt(100), RoundDown)
		require.NoError(t, err)
		assert.True(t, assets.IsZero())
	})

	t.Run("Pro Rata Floor And Ceiling", func(t *testing.T) {
		// 10 * 250 / 300 = 8.33
		down, err := AssetsForShares(totals(250, 300), amt(10), RoundDown)
		require.NoError(t, err)
		assert.Equal(t, amt(8), down)

		up, err := AssetsForShares(totals(250, 300), amt(10), RoundUp)
		require.NoError(t, err)
		assert.Equal(t, amt(9), up)
	})

	t.Run("Negative Amount Is Rejected", func(t *testing.T) {
		_, err := AssetsForShares(totals(250, 300), amt(-5), RoundUp)
		assert.ErrorIs(t, err, ErrNegativeAmount)
	})
}

func TestSharesForReportedProfit(t *testing.T) {
	t.Run("Minted Shares Are Worth The Profit After The Mint", func(t *testing.T) {
		// m = p*S/(A-p); the router's stake at the post-mint price must
		// equal the profit exactly when the division is exact.
		tt := totals(1000, 900)
		profit := amt(100)
		minted, err := SharesForReportedProfit(tt, profit, RoundDown)
		require.NoError(t, err)
		assert.Equal(t, amt(100), minted) // 100*900/900

		supplyAfter := tt.Supply.Add(minted)
		routerValue := minted.Mul(tt.Assets).Quo(supplyAfter)
		assert.Equal(t, profit, routerValue)
	})

	t.Run("Floors The Minted Shares", func(t *testing.T) {
		// 10*100/(107-10) = 10.30 -> 10
		minted, err := SharesForReportedProfit(totals(107, 100), amt(10), RoundDown)
		require.NoError(t, err)
		assert.Equal(t, amt(10), minted)
	})

	t.Run("Profit Equal To Totals Prices To Zero", func(t *testing.T) {
		minted, err := SharesForReportedProfit(totals(50, 100), amt(50), RoundDown)
		require.NoError(t, err)
		assert.True(t, minted.IsZero())
	})

	t.Run("Profit Above Totals Prices To Zero", func(t *testing.T) {
		minted, err := SharesForReportedProfit(totals(50, 100), amt(80), RoundDown)
		require.NoError(t, err)
		assert.True(t, minted.IsZero())
	})

	t.Run("Zero Supply Mints The Profit", func(t *testing.T) {
		minted, err := SharesForReportedProfit(totals(50, 0), amt(10), RoundDown)
		require.NoError(t, err)
		assert.Equal(t, amt(10), minted)
	})

	t.Run("Negative Profit Is Rejected", func(t *testing.T) {
		_, err := SharesForReportedProfit(totals(50, 100), amt(-10), RoundDown)
		assert.ErrorIs(t, err, ErrNegativeAmount)
	})
}

func TestConversionRoundTripNeverGains(t *testing.T) {
	// Depositing and immediately valuing the minted shares can lose
	// rounding dust to the pool but can never create value.
	cases := []struct {
		name           string
		assets, supply int64
		amount         int64
	}{
		{"Balanced Pool", 1000, 1000, 333},
		{"Share Heavy Pool", 777, 3141, 100},
		{"Asset Heavy Pool", 9999, 7, 1234},
		{"Tiny Pool", 3, 2, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tt := totals(tc.assets, tc.supply)
			shares, err := SharesForAssets(tt, amt(tc.amount), RoundDown)
			require.NoError(t, err)
			back, err := AssetsForShares(tt, shares, RoundDown)
			require.NoError(t, err)
			assert.True(t, back.LTE(amt(tc.amount)),
				"round trip returned %s for %d", back, tc.amount)
		})
	}
}
