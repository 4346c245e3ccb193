package main

import (
	"errors"
	"os"
	"time"

	"vaultcontrol/internal/handlers/business"
	"vaultcontrol/internal/models"
	dbconfig "vaultcontrol/pkg/config"

	"github.com/robfig/cron/v3"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// EnqueueDueReports scans active vaults and queues a report request for
// every vault whose report interval has elapsed.
func EnqueueDueReports(publisher *dbconfig.Publisher) error {
	logger.Info("> Scanning vaults for due reports")

	// 1. Fetch all active vaults with reporting enabled
	var configs []models.VaultConfig
	if err := dbconfig.DB.Where("is_active = ? AND report_enabled = ?", true, true).Find(&configs).Error; err != nil {
		logger.Errorf("> Failed to query vault configs: %v", err)
		return err
	}

	logger.Infof("> Found %d vaults with reporting enabled", len(configs))

	now := time.Now().UTC()
	queued := 0

	// 2. Check each vault's last report time
	for _, cfg := range configs {
		if cfg.ReportInterval <= 0 {
			logger.Warnf("> Vault %d has no report interval, skipping", cfg.ID)
			continue
		}

		var state models.VaultState
		err := dbconfig.DB.Where("vault_id = ?", cfg.ID).First(&state).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Errorf("> Failed to read state for vault %d: %v", cfg.ID, err)
			continue
		}
		// A vault that never reported is due immediately
		if err == nil && state.LastReportAt != nil {
			due := state.LastReportAt.Add(time.Duration(cfg.ReportInterval) * time.Second)
			if now.Before(due) {
				continue
			}
		}

		// 3. Queue the report request
		if err := business.PublishReportRequest(publisher, cfg.ID, "schedule"); err != nil {
			logger.Errorf("> Failed to queue report request for vault %d: %v", cfg.ID, err)
			continue
		}
		queued++
		logger.Infof("> Queued report request for vault %d", cfg.ID)
	}

	logger.Infof("> Report scan complete, %d requests queued", queued)
	return nil
}

func main() {
	// Log to a file under logs/
	os.MkdirAll("logs", 0755)
	file, err := os.OpenFile("logs/report_keeper.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err == nil {
		logger.SetOutput(file)
	} else {
		logger.Warn("Failed to open log file, logging to stdout")
	}

	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetLevel(logger.InfoLevel)
	logger.Info("> Starting report keeper schedule...")

	// Initialize database and RabbitMQ
	dbconfig.InitDB()
	dbconfig.InitRabbitMQ()

	publisher, err := dbconfig.NewPublisher()
	if err != nil {
		logger.Fatalf("> Create publisher failed: %v", err)
	}

	// Run the scan every minute
	c := cron.New(cron.WithSeconds())
	_, err = c.AddFunc("0 * * * * *", func() {
		if err := EnqueueDueReports(publisher); err != nil {
			logger.Errorf("> Report scan failed: %v", err)
		}
	})
	if err != nil {
		logger.Fatalf("> Failed to add cron job: %v", err)
	}

	logger.Info("> Schedule started, scanning every minute")

	// Start the cron scheduler
	c.Start()

	// Keep the program running
	select {}
}
