package vault

import (
	sdkmath "cosmossdk.io/math"
)

// SkimmingPolicy recognizes yield on a pooled asset whose external
// exchange rate appreciates over time. Totals count pool-asset units and
// are never touched by a report; appreciation since the last recorded
// rate arrives as a signed delta and is skimmed by minting router shares
// worth exactly the delta at the post-mint price.
//
// A negative delta burns nothing. The rate decrease is already borne by
// every holder through the rate itself, so the loss is only recorded.
type SkimmingPolicy struct{}

func (SkimmingPolicy) Kind() PolicyKind { return PolicySkimming }

func (SkimmingPolicy) Report(t Totals, routerBalance sdkmath.Int, val Valuation) (ReportOutcome, error) {
	out := emptyOutcome()
	out.DeltaAtOldRate = orZero(val.DeltaAtOldRate)

	delta := orZero(val.DeltaAtNewRate)
	switch {
	case delta.IsPositive():
		out.Profit = delta
		minted, err := SharesForReportedProfit(t, delta, RoundDown)
		if err != nil {
			return ReportOutcome{}, err
		}
		out.MintedShares = minted
	case delta.IsNegative():
		out.Loss = delta.Neg()
	}
	return out, nil
}
