package vault

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// PolicyKind names a profit recognition policy.
type PolicyKind string

const (
	PolicyDonating PolicyKind = "donating"
	PolicySkimming PolicyKind = "skimming"
)

// Valuation is what a strategy source reports at harvest time. Donating
// sources fill TotalAssets with a fresh external valuation. Skimming
// sources fill the two deltas, the profit or loss since the last
// recorded exchange rate expressed in pool-asset units at the new and
// old rate, plus the rate itself for the caller to persist. Deltas are
// signed; unfilled fields stay nil.
type Valuation struct {
	TotalAssets    sdkmath.Int `json:"total_assets"`
	DeltaAtNewRate sdkmath.Int `json:"delta_at_new_rate"`
	DeltaAtOldRate sdkmath.Int `json:"delta_at_old_rate"`
	NewRate        sdkmath.Int `json:"new_rate"`
}

// ReportOutcome is the full set of mutations a policy may request:
// mint to the router, burn from the router, and replace the totals.
// Policies are pure; the ledger applies the outcome.
type ReportOutcome struct {
	Profit         sdkmath.Int
	Loss           sdkmath.Int
	MintedShares   sdkmath.Int
	BurnedShares   sdkmath.Int
	NewTotalAssets *sdkmath.Int
	DeltaAtOldRate sdkmath.Int
}

// Policy turns a valuation into a report outcome against the current
// totals and router balance, without mutating either.
type Policy interface {
	Kind() PolicyKind
	Report(t Totals, routerBalance sdkmath.Int, val Valuation) (ReportOutcome, error)
}

// PolicyFor resolves a configured policy name.
func PolicyFor(kind string) (Policy, error) {
	switch PolicyKind(kind) {
	case PolicyDonating:
		return DonatingPolicy{}, nil
	case PolicySkimming:
		return SkimmingPolicy{}, nil
	default:
		return nil, stateErrf("unknown report policy %q", kind)
	}
}

// Observation is the applied result of one report. It is produced on
// every report, including an all-zero one.
type Observation struct {
	Policy         PolicyKind  `json:"policy"`
	Profit         sdkmath.Int `json:"profit"`
	Loss           sdkmath.Int `json:"loss"`
	MintedShares   sdkmath.Int `json:"minted_shares"`
	BurnedShares   sdkmath.Int `json:"burned_shares"`
	DeltaAtOldRate sdkmath.Int `json:"delta_at_old_rate"`
	TotalAssets    sdkmath.Int `json:"total_assets"`
	TotalSupply    sdkmath.Int `json:"total_supply"`
	ReportedAt     time.Time   `json:"reported_at"`
}

// Report runs the vault's policy over a valuation and applies the
// outcome: mint or burn against the router account, replace totals when
// instructed, stamp the report time. Mint, burn and the totals update
// are the only mutations a report can make.
func (v *Vault) Report(router *Account, val Valuation, now time.Time) (Observation, error) {
	if v.Policy == nil {
		return Observation{}, stateErrf("vault has no report policy")
	}
	out, err := v.Policy.Report(v.Totals, orZero(router.Balance), val)
	if err != nil {
		return Observation{}, err
	}
	if out.MintedShares.IsPositive() {
		v.Totals.Supply = v.Totals.Supply.Add(out.MintedShares)
		router.Balance = orZero(router.Balance).Add(out.MintedShares)
	}
	if out.BurnedShares.IsPositive() {
		v.Totals.Supply = v.Totals.Supply.Sub(out.BurnedShares)
		router.Balance = router.Balance.Sub(out.BurnedShares)
	}
	if out.NewTotalAssets != nil {
		v.Totals.Assets = *out.NewTotalAssets
	}
	v.LastReport = now
	return Observation{
		Policy:         v.Policy.Kind(),
		Profit:         orZero(out.Profit),
		Loss:           orZero(out.Loss),
		MintedShares:   orZero(out.MintedShares),
		BurnedShares:   orZero(out.BurnedShares),
		DeltaAtOldRate: orZero(out.DeltaAtOldRate),
		TotalAssets:    v.Totals.Assets,
		TotalSupply:    v.Totals.Supply,
		ReportedAt:     now,
	}, nil
}

func emptyOutcome() ReportOutcome {
	return ReportOutcome{
		Profit:         sdkmath.ZeroInt(),
		Loss:           sdkmath.ZeroInt(),
		MintedShares:   sdkmath.ZeroInt(),
		BurnedShares:   sdkmath.ZeroInt(),
		DeltaAtOldRate: sdkmath.ZeroInt(),
	}
}
