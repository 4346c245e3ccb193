// Package vault implements the accounting core of a tokenized
// yield-bearing vault: share/asset conversion, per-owner lockups with
// rage-quit early exit, and profit recognition policies that route yield
// to a designated router account.
//
// Everything in this package operates on in-memory working sets with
// arbitrary-precision integers. Persistence, locking and transport live
// in the layers above.
package vault

import (
	sdkmath "cosmossdk.io/math"
)

// Rounding selects the direction integer division rounds toward.
// Amounts the vault pays out round down, amounts it charges round up,
// so rounding dust always accrues to the pool.
type Rounding int

const (
	RoundDown Rounding = iota
	RoundUp
)

// Totals is the conversion basis of one vault: the pooled asset balance
// and the outstanding share supply.
type Totals struct {
	Assets sdkmath.Int
	Supply sdkmath.Int
}

// NewTotals builds a Totals with both legs normalized to non-nil ints.
func NewTotals(assets, supply sdkmath.Int) Totals {
	return Totals{Assets: orZero(assets), Supply: orZero(supply)}
}

// EmptyTotals is the state of a vault before its first deposit.
func EmptyTotals() Totals {
	return Totals{Assets: sdkmath.ZeroInt(), Supply: sdkmath.ZeroInt()}
}

// SharesForAssets converts an asset amount into shares at the current
// totals. An empty vault converts 1:1: zero supply means the first
// depositor defines the price, and zero assets backing a live supply is
// treated the same way so no division by zero is reachable.
func SharesForAssets(t Totals, assets sdkmath.Int, r Rounding) (sdkmath.Int, error) {
	if assets.IsNegative() {
		return sdkmath.ZeroInt(), ErrNegativeAmount
	}
	if t.Supply.IsZero() || t.Assets.IsZero() {
		return assets, nil
	}
	return mulDiv(assets, t.Supply, t.Assets, r)
}

// AssetsForShares converts a share amount into assets at the current
// totals. With zero supply there is nothing a share can claim, so the
// result is zero.
func AssetsForShares(t Totals, shares sdkmath.Int, r Rounding) (sdkmath.Int, error) {
	if shares.IsNegative() {
		return sdkmath.ZeroInt(), ErrNegativeAmount
	}
	if t.Supply.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	return mulDiv(shares, t.Assets, t.Supply, r)
}

// SharesForReportedProfit prices shares for freshly recognized profit so
// that the minted shares are worth exactly the profit at the post-mint
// price: m = p*S/(A-p) satisfies m/(S+m)*A = p. Used by the skimming
// policy, where totals already carry the appreciated units. Profit that
// meets or exceeds the whole pool prices to zero.
func SharesForReportedProfit(t Totals, profit sdkmath.Int, r Rounding) (sdkmath.Int, error) {
	if profit.IsNegative() {
		return sdkmath.ZeroInt(), ErrNegativeAmount
	}
	if t.Assets.LTE(profit) {
		return sdkmath.ZeroInt(), nil
	}
	if t.Supply.IsZero() {
		return profit, nil
	}
	return mulDiv(profit, t.Supply, t.Assets.Sub(profit), r)
}

// mulDiv computes x*num/den with the requested rounding. All inputs are
// non-negative by the time this runs; callers branch away the den==0
// cases, the error here is a final guard.
func mulDiv(x, num, den sdkmath.Int, r Rounding) (sdkmath.Int, error) {
	if den.IsZero() {
		return sdkmath.ZeroInt(), ErrDivisionByZero
	}
	p := x.Mul(num)
	switch r {
	case RoundDown:
		return p.Quo(den), nil
	case RoundUp:
		return p.Add(den).Sub(sdkmath.OneInt()).Quo(den), nil
	default:
		return sdkmath.ZeroInt(), ErrInvalidRounding
	}
}

func orZero(v sdkmath.Int) sdkmath.Int {
	if v.IsNil() {
		return sdkmath.ZeroInt()
	}
	return v
}
