package strategy

import (
	"context"
	"fmt"
	"os"

	sdkmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	log "github.com/sirupsen/logrus"

	"vaultcontrol/internal/vault"
)

// SolanaSource values a strategy by reading its token account balance
// on chain. Suited to donating vaults whose strategy parks everything
// in one SPL token account.
type SolanaSource struct {
	client  *rpc.Client
	account solana.PublicKey
}

// NewSolanaSource builds a source over the configured RPC endpoint and
// token account. An empty endpoint falls back to DEFAULT_SOLANA_RPC,
// then to the public mainnet RPC.
func NewSolanaSource(endpoint, account string) (*SolanaSource, error) {
	if endpoint == "" {
		endpoint = os.Getenv("DEFAULT_SOLANA_RPC")
	}
	if endpoint == "" {
		endpoint = rpc.MainNetBeta_RPC
	}
	pubkey, err := solana.PublicKeyFromBase58(account)
	if err != nil {
		return nil, fmt.Errorf("invalid strategy token account %q: %w", account, err)
	}
	return &SolanaSource{
		client:  rpc.New(endpoint),
		account: pubkey,
	}, nil
}

// HarvestAndReport reads the token account balance and reports it as
// the strategy's total asset valuation.
func (s *SolanaSource) HarvestAndReport(ctx context.Context, req HarvestRequest) (vault.Valuation, error) {
	balResp, err := s.client.GetTokenAccountBalance(ctx, s.account, rpc.CommitmentFinalized)
	if err != nil {
		log.Errorf("failed to query token account %s balance: %v", s.account.String(), err)
		return vault.Valuation{}, fmt.Errorf("failed to query token account balance: %w", err)
	}
	if balResp == nil || balResp.Value == nil {
		return vault.Valuation{}, fmt.Errorf("token account %s balance query returned empty value", s.account.String())
	}
	amt, ok := sdkmath.NewIntFromString(balResp.Value.Amount)
	if !ok {
		return vault.Valuation{}, fmt.Errorf("invalid balance amount %q for account %s", balResp.Value.Amount, s.account.String())
	}
	log.WithFields(log.Fields{
		"vault_id": req.VaultID,
		"account":  s.account.String(),
		"balance":  balResp.Value.Amount,
	}).Info("Harvested strategy token account balance")
	return vault.Valuation{TotalAssets: amt}, nil
}
