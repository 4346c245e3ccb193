package vault

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// DonatingPolicy recognizes profit by comparing the strategy's fresh
// external valuation against the recorded totals. Profit is donated to
// the router as newly minted shares priced at the pre-report totals, so
// existing holders keep their price per share. Losses burn router shares
// first, up to the router's whole balance; anything beyond that is borne
// by all holders through the totals update.
type DonatingPolicy struct{}

func (DonatingPolicy) Kind() PolicyKind { return PolicyDonating }

func (DonatingPolicy) Report(t Totals, routerBalance sdkmath.Int, val Valuation) (ReportOutcome, error) {
	newTotal := val.TotalAssets
	if newTotal.IsNil() || newTotal.IsNegative() {
		return ReportOutcome{}, fmt.Errorf("%w: donating report needs a non-negative total asset valuation", ErrValidation)
	}

	out := emptyOutcome()
	switch {
	case newTotal.GT(t.Assets):
		out.Profit = newTotal.Sub(t.Assets)
		minted, err := SharesForAssets(t, out.Profit, RoundDown)
		if err != nil {
			return ReportOutcome{}, err
		}
		out.MintedShares = minted
	case newTotal.LT(t.Assets):
		out.Loss = t.Assets.Sub(newTotal)
		burned, err := SharesForAssets(t, out.Loss, RoundDown)
		if err != nil {
			return ReportOutcome{}, err
		}
		if burned.GT(routerBalance) {
			burned = routerBalance
		}
		out.BurnedShares = burned
	}
	out.NewTotalAssets = &newTotal
	return out, nil
}
