package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"

	"vaultcontrol/internal/vault"
)

// secretHeader carries the shared secret the adapter checks before
// answering.
const secretHeader = "X-Strategy-Secret"

// valuationTTL is how long a harvested valuation stays servable from
// cache, absorbing burst reads against the same adapter.
const valuationTTL = 3 * time.Second

// valuationPayload is the adapter's wire response. Amounts travel as
// decimal strings; absent fields stay empty and parse to zero.
type valuationPayload struct {
	TotalAssets    string `json:"total_assets"`
	DeltaAtNewRate string `json:"delta_at_new_rate"`
	DeltaAtOldRate string `json:"delta_at_old_rate"`
	NewRate        string `json:"new_rate"`
}

type valuationCacheEntry struct {
	val       vault.Valuation
	updatedAt time.Time
}

// HTTPSource harvests by POSTing the request to an off-process adapter
// that custodies the strategy. The adapter authenticates callers with a
// shared secret and only answers for its own vault.
type HTTPSource struct {
	endpoint string
	secret   string
	client   *http.Client

	cache   map[uint]valuationCacheEntry
	cacheMu sync.RWMutex
}

// NewHTTPSource builds an HTTP source. An empty secret falls back to
// STRATEGY_SHARED_SECRET.
func NewHTTPSource(endpoint, secret string) *HTTPSource {
	if secret == "" {
		secret = os.Getenv("STRATEGY_SHARED_SECRET")
	}
	return &HTTPSource{
		endpoint: endpoint,
		secret:   secret,
		client:   &http.Client{Timeout: 15 * time.Second},
		cache:    make(map[uint]valuationCacheEntry),
	}
}

// HarvestAndReport POSTs the harvest request and decodes the valuation.
// A 401 or 403 from the adapter means it refused the vault's identity.
func (s *HTTPSource) HarvestAndReport(ctx context.Context, req HarvestRequest) (vault.Valuation, error) {
	s.cacheMu.RLock()
	entry, ok := s.cache[req.VaultID]
	s.cacheMu.RUnlock()
	if ok && time.Since(entry.updatedAt) < valuationTTL {
		return entry.val, nil
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return vault.Valuation{}, fmt.Errorf("failed to marshal harvest request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return vault.Valuation{}, fmt.Errorf("failed to build harvest request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.secret != "" {
		httpReq.Header.Set(secretHeader, s.secret)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return vault.Valuation{}, fmt.Errorf("failed to reach strategy adapter: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return vault.Valuation{}, fmt.Errorf("%w: adapter answered %d", vault.ErrNotSelf, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return vault.Valuation{}, fmt.Errorf("strategy adapter returned status %d", resp.StatusCode)
	}

	var body valuationPayload
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return vault.Valuation{}, fmt.Errorf("failed to decode valuation: %w", err)
	}
	val, err := body.toValuation()
	if err != nil {
		return vault.Valuation{}, err
	}

	s.cacheMu.Lock()
	s.cache[req.VaultID] = valuationCacheEntry{val: val, updatedAt: time.Now()}
	s.cacheMu.Unlock()

	return val, nil
}

func (p valuationPayload) toValuation() (vault.Valuation, error) {
	var val vault.Valuation
	var err error
	if val.TotalAssets, err = parseAmount(p.TotalAssets, "total_assets"); err != nil {
		return vault.Valuation{}, err
	}
	if val.DeltaAtNewRate, err = parseAmount(p.DeltaAtNewRate, "delta_at_new_rate"); err != nil {
		return vault.Valuation{}, err
	}
	if val.DeltaAtOldRate, err = parseAmount(p.DeltaAtOldRate, "delta_at_old_rate"); err != nil {
		return vault.Valuation{}, err
	}
	if val.NewRate, err = parseAmount(p.NewRate, "new_rate"); err != nil {
		return vault.Valuation{}, err
	}
	return val, nil
}

// parseAmount reads a decimal string, treating absence as zero.
func parseAmount(s, field string) (sdkmath.Int, error) {
	if s == "" {
		return sdkmath.ZeroInt(), nil
	}
	v, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("invalid %s amount %q", field, s)
	}
	return v, nil
}
