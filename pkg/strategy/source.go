// Package strategy adapts external yield sources to the vault ledger.
// A source answers one question at harvest time: what is the strategy
// worth now, in the shape the vault's report policy consumes. Donating
// vaults want a fresh total valuation; skimming vaults want the
// profit/loss since the last recorded exchange rate.
package strategy

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"vaultcontrol/internal/models"
	"vaultcontrol/internal/vault"
)

// Source kinds selectable in a vault config.
const (
	SourceHTTP     = "http"
	SourceSolana   = "solana"
	SourceRatefeed = "ratefeed"
	SourceStatic   = "static"
)

// HarvestRequest carries the vault's view of itself to the source.
// Sources use the fields that apply to them and ignore the rest.
type HarvestRequest struct {
	VaultID     uint        `json:"vault_id"`
	Policy      string      `json:"policy"`
	TotalAssets sdkmath.Int `json:"total_assets"`
	TotalSupply sdkmath.Int `json:"total_supply"`
	LastRate    sdkmath.Int `json:"last_rate"`
}

// Source is one external yield source.
type Source interface {
	HarvestAndReport(ctx context.Context, req HarvestRequest) (vault.Valuation, error)
}

// ForConfig builds the source a vault config selects. The ratefeed
// manager is shared across vaults so feeds on the same endpoint reuse
// one connection.
func ForConfig(cfg *models.VaultConfig, feeds *RatefeedManager) (Source, error) {
	switch cfg.SourceKind {
	case SourceHTTP:
		if cfg.SourceEndpoint == "" {
			return nil, fmt.Errorf("vault %d: http source needs an endpoint", cfg.ID)
		}
		return NewHTTPSource(cfg.SourceEndpoint, cfg.SourceSecret), nil
	case SourceSolana:
		return NewSolanaSource(cfg.SourceEndpoint, cfg.SourceAccount)
	case SourceRatefeed:
		if cfg.SourceEndpoint == "" {
			return nil, fmt.Errorf("vault %d: ratefeed source needs an endpoint", cfg.ID)
		}
		if feeds == nil {
			return nil, fmt.Errorf("vault %d: ratefeed manager not initialized", cfg.ID)
		}
		return feeds.SourceFor(cfg.SourceEndpoint)
	case SourceStatic, "":
		return NewStaticSource(cfg.SourceEndpoint)
	default:
		return nil, fmt.Errorf("vault %d: unknown source kind %q", cfg.ID, cfg.SourceKind)
	}
}
