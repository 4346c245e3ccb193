package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"vaultcontrol/internal/vault"
)

// StaticSource answers every harvest with fixture values. Seeds and
// integration tests use it to drive reports without an external
// adapter. The fixture rides in the config's endpoint field as a JSON
// valuation; an empty fixture yields no-op reports.
type StaticSource struct {
	fixture valuationPayload
}

// NewStaticSource parses the fixture JSON, accepting an empty string.
func NewStaticSource(fixture string) (*StaticSource, error) {
	s := &StaticSource{}
	fixture = strings.TrimSpace(fixture)
	if fixture == "" {
		return s, nil
	}
	if err := json.Unmarshal([]byte(fixture), &s.fixture); err != nil {
		return nil, fmt.Errorf("invalid static source fixture: %w", err)
	}
	return s, nil
}

// HarvestAndReport returns the fixture. A fixture without a total
// valuation echoes the vault's own totals, so an unconfigured static
// donating vault reports neither profit nor loss.
func (s *StaticSource) HarvestAndReport(ctx context.Context, req HarvestRequest) (vault.Valuation, error) {
	val, err := s.fixture.toValuation()
	if err != nil {
		return vault.Valuation{}, err
	}
	if s.fixture.TotalAssets == "" {
		val.TotalAssets = req.TotalAssets
	}
	return val, nil
}
