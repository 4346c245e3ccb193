package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"

	"vaultcontrol/internal/handlers/business"
	"vaultcontrol/pkg/config"

	logrus "github.com/sirupsen/logrus"
)

const (
	maxErrorCount = 3 // Maximum consecutive report failures before a request is dropped
	reportTimeout = 30 * time.Second
)

var (
	// errorCounts tracks consecutive report failures per vault
	errorCounts   = make(map[uint]int)
	errorCountsMu sync.RWMutex
)

func main() {
	// Initialize logger
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	// Initialize database
	config.InitDB()

	// Initialize RabbitMQ
	config.InitRabbitMQ()
	defer config.RabbitMQ.Close()

	publisher, err := config.NewPublisher()
	if err != nil {
		logrus.Fatal("Create publisher failed: ", err)
	}
	defer publisher.Close()

	// Load active vaults
	if err := business.InitRegistry(publisher); err != nil {
		logrus.Fatal("Failed to load vault registry: ", err)
	}

	keeperKey := os.Getenv("KEEPER_API_KEY")
	if keeperKey == "" {
		logrus.Warn("KEEPER_API_KEY not set, report calls will be rejected")
	}

	// Create consumer for the report request queue
	msgConsumer, err := config.NewConsumer(business.QueueReportRequests)
	if err != nil {
		logrus.Fatal("Failed to create consumer: ", err)
	}
	defer msgConsumer.Close()

	logrus.Info("Vault report keeper started, waiting for messages...")

	// Start consuming messages
	err = msgConsumer.Consume(func(msg []byte) error {
		var req business.ReportRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			logrus.Errorf("Failed to unmarshal message: %v", err)
			return err
		}

		logrus.Infof("Received report request: %+v", req)

		rt, err := business.Vaults.Get(req.VaultID)
		if err != nil {
			// Unknown or deactivated vault, drop the request
			logrus.Errorf("Vault %d not available, dropping request: %v", req.VaultID, err)
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
		defer cancel()

		caller := business.Caller{APIKey: keeperKey, Address: req.Caller}
		obs, err := rt.Report(ctx, caller)
		if err != nil {
			count := incrementErrorCount(req.VaultID)
			if count >= maxErrorCount {
				// Stop the requeue loop, the next scheduled request retries
				logrus.Errorf("Report failed %d times for vault %d, dropping request: %v",
					count, req.VaultID, err)
				resetErrorCount(req.VaultID)
				return nil
			}
			logrus.Errorf("Report failed for vault %d: %v", req.VaultID, err)
			return err
		}
		resetErrorCount(req.VaultID)

		logrus.WithFields(logrus.Fields{
			"vault_id": req.VaultID,
			"policy":   obs.Policy,
			"profit":   obs.Profit.String(),
			"loss":     obs.Loss.String(),
			"minted":   obs.MintedShares.String(),
			"burned":   obs.BurnedShares.String(),
		}).Info("Report applied")

		return nil
	})

	if err != nil {
		log.Fatal("Failed to start consumer: ", err)
	}
}

// incrementErrorCount increments the error count for a vault
func incrementErrorCount(vaultID uint) int {
	errorCountsMu.Lock()
	defer errorCountsMu.Unlock()

	errorCounts[vaultID]++
	count := errorCounts[vaultID]
	logrus.Warnf("Error count for vault %d: %d/%d", vaultID, count, maxErrorCount)
	return count
}

// resetErrorCount resets the error count for a vault
func resetErrorCount(vaultID uint) {
	errorCountsMu.Lock()
	defer errorCountsMu.Unlock()

	if errorCounts[vaultID] > 0 {
		logrus.Debugf("Resetting error count for vault %d (was %d)", vaultID, errorCounts[vaultID])
		errorCounts[vaultID] = 0
	}
}
