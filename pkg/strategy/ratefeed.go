package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"vaultcontrol/internal/vault"
)

const (
	// Connection states
	StateDisconnected = "disconnected"
	StateConnecting   = "connecting"
	StateConnected    = "connected"

	// Reconnect settings
	maxReconnectAttempts = 10
	reconnectDelay       = 5 * time.Second

	// A rate older than this is refused at harvest time rather than
	// silently reported.
	maxRateAge = 2 * time.Minute
)

// rateMessage is one frame from the exchange-rate feed. The rate is a
// scaled decimal string; the scale cancels out in every ratio the
// source forms from it.
type rateMessage struct {
	Rate string `json:"rate"`
}

// feedConnection is one live subscription to a rate feed endpoint.
type feedConnection struct {
	Endpoint    string
	Conn        *websocket.Conn
	Status      string
	LastRate    sdkmath.Int
	LastMessage time.Time
	ReconnectCh chan bool
	StopCh      chan bool
	mu          sync.RWMutex
}

// RatefeedManager owns the websocket connections to rate feeds. Vaults
// configured against the same endpoint share one connection.
type RatefeedManager struct {
	connections sync.Map // map[string]*feedConnection
}

// NewRatefeedManager creates an empty manager; connections are dialed
// lazily when a vault first asks for its endpoint.
func NewRatefeedManager() *RatefeedManager {
	return &RatefeedManager{}
}

// SourceFor returns a source reading from the endpoint's feed, starting
// the subscription if this is the first vault on it.
func (m *RatefeedManager) SourceFor(endpoint string) (*RatefeedSource, error) {
	if err := m.ensureFeed(endpoint); err != nil {
		return nil, err
	}
	return &RatefeedSource{manager: m, endpoint: endpoint}, nil
}

// Stop closes the feed for an endpoint.
func (m *RatefeedManager) Stop(endpoint string) error {
	value, exists := m.connections.Load(endpoint)
	if !exists {
		return fmt.Errorf("feed for endpoint %s not found", endpoint)
	}
	conn := value.(*feedConnection)
	close(conn.StopCh)
	m.connections.Delete(endpoint)
	log.WithFields(log.Fields{
		"endpoint": endpoint,
	}).Info("Rate feed stopped")
	return nil
}

// Status reports the connection state of an endpoint's feed.
func (m *RatefeedManager) Status(endpoint string) string {
	value, exists := m.connections.Load(endpoint)
	if !exists {
		return StateDisconnected
	}
	conn := value.(*feedConnection)
	conn.mu.RLock()
	defer conn.mu.RUnlock()
	return conn.Status
}

func (m *RatefeedManager) ensureFeed(endpoint string) error {
	if _, exists := m.connections.Load(endpoint); exists {
		return nil
	}
	conn := &feedConnection{
		Endpoint:    endpoint,
		Status:      StateDisconnected,
		ReconnectCh: make(chan bool, 1),
		StopCh:      make(chan bool, 1),
	}
	m.connections.Store(endpoint, conn)
	go m.connectAndRead(conn)
	log.WithFields(log.Fields{
		"endpoint": endpoint,
	}).Info("Rate feed subscription created")
	return nil
}

// connectAndRead dials the feed and keeps it alive, reconnecting with a
// bounded number of attempts.
func (m *RatefeedManager) connectAndRead(conn *feedConnection) {
	reconnectAttempts := 0

	for {
		select {
		case <-conn.StopCh:
			log.WithFields(log.Fields{
				"endpoint": conn.Endpoint,
			}).Info("Stopping rate feed")
			if conn.Conn != nil {
				conn.Conn.Close()
			}
			return
		default:
			conn.mu.Lock()
			conn.Status = StateConnecting
			conn.mu.Unlock()

			c, _, err := websocket.DefaultDialer.Dial(conn.Endpoint, nil)
			if err != nil {
				log.WithFields(log.Fields{
					"endpoint": conn.Endpoint,
					"error":    err.Error(),
				}).Error("Failed to connect to rate feed")
				reconnectAttempts++
				if reconnectAttempts >= maxReconnectAttempts {
					log.WithFields(log.Fields{
						"endpoint":               conn.Endpoint,
						"reconnect_attempts":     reconnectAttempts,
						"max_reconnect_attempts": maxReconnectAttempts,
					}).Error("Max reconnect attempts reached, stopping feed")
					m.Stop(conn.Endpoint)
					return
				}
				time.Sleep(reconnectDelay)
				continue
			}

			conn.mu.Lock()
			conn.Conn = c
			conn.Status = StateConnected
			conn.mu.Unlock()
			reconnectAttempts = 0
			log.WithFields(log.Fields{
				"endpoint": conn.Endpoint,
			}).Info("Connected to rate feed")

			go m.readMessages(conn)

			select {
			case <-conn.ReconnectCh:
				log.WithFields(log.Fields{
					"endpoint": conn.Endpoint,
				}).Info("Reconnect requested")
				c.Close()
				time.Sleep(reconnectDelay)
			case <-conn.StopCh:
				c.Close()
				return
			}
		}
	}
}

// readMessages consumes rate frames until the connection drops, then
// triggers a reconnect.
func (m *RatefeedManager) readMessages(conn *feedConnection) {
	defer func() {
		conn.mu.Lock()
		if conn.Conn != nil {
			conn.Conn.Close()
		}
		conn.Status = StateDisconnected
		conn.mu.Unlock()

		select {
		case conn.ReconnectCh <- true:
		default:
		}
	}()

	for {
		conn.mu.RLock()
		c := conn.Conn
		conn.mu.RUnlock()
		if c == nil {
			return
		}

		_, message, err := c.ReadMessage()
		if err != nil {
			log.WithFields(log.Fields{
				"endpoint": conn.Endpoint,
				"error":    err.Error(),
			}).Error("Error reading rate feed message")
			return
		}

		var msg rateMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.WithFields(log.Fields{
				"endpoint": conn.Endpoint,
				"error":    err.Error(),
			}).Warn("Failed to unmarshal rate feed message")
			continue
		}
		rate, ok := sdkmath.NewIntFromString(msg.Rate)
		if !ok || !rate.IsPositive() {
			log.WithFields(log.Fields{
				"endpoint": conn.Endpoint,
				"rate":     msg.Rate,
			}).Warn("Dropping rate feed frame with invalid rate")
			continue
		}

		conn.mu.Lock()
		conn.LastRate = rate
		conn.LastMessage = time.Now()
		conn.mu.Unlock()
	}
}

// currentRate returns the freshest rate for the endpoint, refusing
// stale or absent feeds.
func (m *RatefeedManager) currentRate(endpoint string) (sdkmath.Int, error) {
	value, exists := m.connections.Load(endpoint)
	if !exists {
		return sdkmath.Int{}, fmt.Errorf("rate feed %s not subscribed", endpoint)
	}
	conn := value.(*feedConnection)
	conn.mu.RLock()
	rate := conn.LastRate
	at := conn.LastMessage
	conn.mu.RUnlock()

	if rate.IsNil() || at.IsZero() {
		return sdkmath.Int{}, fmt.Errorf("rate feed %s has not delivered a rate yet", endpoint)
	}
	if time.Since(at) > maxRateAge {
		return sdkmath.Int{}, fmt.Errorf("rate feed %s is stale (last message %s ago)", endpoint, time.Since(at).Round(time.Second))
	}
	return rate, nil
}

// RatefeedSource turns rate movement since the vault's last recorded
// rate into the signed deltas a skimming report consumes. The vault
// holds req.TotalAssets pool units; the appreciation in external units
// is assets*(newRate-oldRate), re-expressed in pool units at the new
// and old rate respectively.
type RatefeedSource struct {
	manager  *RatefeedManager
	endpoint string
}

func (s *RatefeedSource) HarvestAndReport(ctx context.Context, req HarvestRequest) (vault.Valuation, error) {
	newRate, err := s.manager.currentRate(s.endpoint)
	if err != nil {
		return vault.Valuation{}, err
	}

	val := vault.Valuation{
		DeltaAtNewRate: sdkmath.ZeroInt(),
		DeltaAtOldRate: sdkmath.ZeroInt(),
		NewRate:        newRate,
	}

	oldRate := req.LastRate
	if oldRate.IsNil() || oldRate.IsZero() {
		// First harvest just records the rate; there is no window to
		// recognize yield over.
		return val, nil
	}

	assets := req.TotalAssets
	if assets.IsNil() || assets.IsZero() || newRate.Equal(oldRate) {
		return val, nil
	}

	diff := newRate.Sub(oldRate)
	val.DeltaAtNewRate = assets.Mul(diff).Quo(newRate)
	val.DeltaAtOldRate = assets.Mul(diff).Quo(oldRate)
	return val, nil
}
