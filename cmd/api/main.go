package main

import (
	"log"
	"os"

	"vaultcontrol/internal/handlers/business"
	"vaultcontrol/internal/routes"
	"vaultcontrol/pkg/config"
)

func main() {
	// Initialize database
	config.InitDB()

	// Run versioned migrations on demand; AutoMigrate already covers
	// the schema for local development
	if os.Getenv("RUN_MIGRATIONS") == "true" {
		config.ExecuteMigrations()
	}

	// Initialize RabbitMQ (optional, will log warning if not configured)
	var publisher *config.Publisher
	if os.Getenv("RABBITMQ_HOST") != "" {
		config.InitRabbitMQ()
		defer func() {
			if config.RabbitMQ != nil {
				config.RabbitMQ.Close()
			}
		}()

		p, err := config.NewPublisher()
		if err != nil {
			log.Fatal("Create publisher failed:", err)
		}
		defer p.Close()
		publisher = p
		log.Println("RabbitMQ initialized successfully")
	} else {
		log.Println("RabbitMQ not configured, events will not be published")
	}

	// Load active vaults into the registry
	if publisher != nil {
		if err := business.InitRegistry(publisher); err != nil {
			log.Fatal("Failed to load vault registry:", err)
		}
	} else {
		if err := business.InitRegistry(nil); err != nil {
			log.Fatal("Failed to load vault registry:", err)
		}
	}

	// Set up router
	r := routes.SetupRouter()

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
