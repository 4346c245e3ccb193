package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultcontrol/internal/models"
	"vaultcontrol/internal/vault"
)

func harvestReq(assets, supply, lastRate int64) HarvestRequest {
	return HarvestRequest{
		VaultID:     1,
		Policy:      string(vault.PolicySkimming),
		TotalAssets: sdkmath.NewInt(assets),
		TotalSupply: sdkmath.NewInt(supply),
		LastRate:    sdkmath.NewInt(lastRate),
	}
}

func TestStaticSource(t *testing.T) {
	t.Run("empty fixture echoes totals", func(t *testing.T) {
		src, err := NewStaticSource("")
		require.NoError(t, err)

		val, err := src.HarvestAndReport(context.Background(), harvestReq(1000, 1000, 0))
		require.NoError(t, err)
		assert.Equal(t, sdkmath.NewInt(1000), val.TotalAssets)
		assert.True(t, val.DeltaAtNewRate.IsZero())
	})

	t.Run("fixture values pass through", func(t *testing.T) {
		src, err := NewStaticSource(`{"total_assets":"1100","delta_at_new_rate":"50"}`)
		require.NoError(t, err)

		val, err := src.HarvestAndReport(context.Background(), harvestReq(1000, 1000, 0))
		require.NoError(t, err)
		assert.Equal(t, sdkmath.NewInt(1100), val.TotalAssets)
		assert.Equal(t, sdkmath.NewInt(50), val.DeltaAtNewRate)
	})

	t.Run("garbage fixture rejected", func(t *testing.T) {
		_, err := NewStaticSource("not json")
		assert.Error(t, err)
	})
}

func TestHTTPSource(t *testing.T) {
	t.Run("round trip with secret header", func(t *testing.T) {
		var gotSecret string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotSecret = r.Header.Get(secretHeader)

			var req HarvestRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, uint(1), req.VaultID)

			json.NewEncoder(w).Encode(valuationPayload{TotalAssets: "2500"})
		}))
		defer server.Close()

		src := NewHTTPSource(server.URL, "topsecret")
		val, err := src.HarvestAndReport(context.Background(), harvestReq(2000, 2000, 0))
		require.NoError(t, err)
		assert.Equal(t, "topsecret", gotSecret)
		assert.Equal(t, sdkmath.NewInt(2500), val.TotalAssets)
	})

	t.Run("forbidden maps to ErrNotSelf", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		src := NewHTTPSource(server.URL, "wrong")
		_, err := src.HarvestAndReport(context.Background(), harvestReq(2000, 2000, 0))
		require.Error(t, err)
		assert.True(t, errors.Is(err, vault.ErrNotSelf))
		assert.True(t, errors.Is(err, vault.ErrAuthorization))
	})

	t.Run("burst reads served from cache", func(t *testing.T) {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			json.NewEncoder(w).Encode(valuationPayload{TotalAssets: "100"})
		}))
		defer server.Close()

		src := NewHTTPSource(server.URL, "")
		for i := 0; i < 3; i++ {
			_, err := src.HarvestAndReport(context.Background(), harvestReq(100, 100, 0))
			require.NoError(t, err)
		}
		assert.Equal(t, 1, calls)
	})

	t.Run("invalid amount rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(valuationPayload{TotalAssets: "12.5"})
		}))
		defer server.Close()

		src := NewHTTPSource(server.URL, "")
		_, err := src.HarvestAndReport(context.Background(), harvestReq(100, 100, 0))
		assert.Error(t, err)
	})
}

func TestRatefeedSource(t *testing.T) {
	// Load a live rate straight into the manager; the delta math is
	// independent of how the frame arrived.
	feedWith := func(rate int64) *RatefeedSource {
		m := NewRatefeedManager()
		m.connections.Store("wss://feed", &feedConnection{
			Endpoint:    "wss://feed",
			Status:      StateConnected,
			LastRate:    sdkmath.NewInt(rate),
			LastMessage: time.Now(),
		})
		return &RatefeedSource{manager: m, endpoint: "wss://feed"}
	}

	t.Run("first harvest only records the rate", func(t *testing.T) {
		src := feedWith(1_050_000)
		val, err := src.HarvestAndReport(context.Background(), harvestReq(10_000, 10_000, 0))
		require.NoError(t, err)
		assert.Equal(t, sdkmath.NewInt(1_050_000), val.NewRate)
		assert.True(t, val.DeltaAtNewRate.IsZero())
		assert.True(t, val.DeltaAtOldRate.IsZero())
	})

	t.Run("appreciation produces positive deltas", func(t *testing.T) {
		// 10000 pool units, rate 1.00 -> 1.05 (scaled by 1e6):
		// external gain 10000*0.05, in pool units 500/1.05 = 476 new,
		// 500/1.00 = 500 old.
		src := feedWith(1_050_000)
		val, err := src.HarvestAndReport(context.Background(), harvestReq(10_000, 10_000, 1_000_000))
		require.NoError(t, err)
		assert.Equal(t, sdkmath.NewInt(476), val.DeltaAtNewRate)
		assert.Equal(t, sdkmath.NewInt(500), val.DeltaAtOldRate)
	})

	t.Run("rate decrease produces negative deltas", func(t *testing.T) {
		src := feedWith(950_000)
		val, err := src.HarvestAndReport(context.Background(), harvestReq(10_000, 10_000, 1_000_000))
		require.NoError(t, err)
		assert.True(t, val.DeltaAtNewRate.IsNegative())
		assert.True(t, val.DeltaAtOldRate.IsNegative())
	})

	t.Run("stale feed refused", func(t *testing.T) {
		m := NewRatefeedManager()
		m.connections.Store("wss://feed", &feedConnection{
			Endpoint:    "wss://feed",
			LastRate:    sdkmath.NewInt(1_000_000),
			LastMessage: time.Now().Add(-10 * time.Minute),
		})
		src := &RatefeedSource{manager: m, endpoint: "wss://feed"}
		_, err := src.HarvestAndReport(context.Background(), harvestReq(10_000, 10_000, 1_000_000))
		assert.Error(t, err)
	})
}

func TestForConfig(t *testing.T) {
	feeds := NewRatefeedManager()

	t.Run("defaults to static", func(t *testing.T) {
		src, err := ForConfig(&models.VaultConfig{ID: 1}, feeds)
		require.NoError(t, err)
		_, ok := src.(*StaticSource)
		assert.True(t, ok)
	})

	t.Run("http needs an endpoint", func(t *testing.T) {
		_, err := ForConfig(&models.VaultConfig{ID: 1, SourceKind: SourceHTTP}, feeds)
		assert.Error(t, err)
	})

	t.Run("unknown kind rejected", func(t *testing.T) {
		_, err := ForConfig(&models.VaultConfig{ID: 1, SourceKind: "oracle"}, feeds)
		assert.Error(t, err)
	})
}
