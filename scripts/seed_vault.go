package main

import (
	"flag"
	"log"

	"vaultcontrol/internal/models"
	"vaultcontrol/pkg/config"
)

func main() {
	// Parse command line arguments
	name := flag.String("name", "demo-vault", "vault name")
	assetSymbol := flag.String("asset", "USDC", "pool asset symbol")
	shareSymbol := flag.String("share", "vUSDC", "share token symbol")
	policy := flag.String("policy", "donating", "report policy: donating or skimming")
	router := flag.String("router", "router-demo", "router address credited on profit")
	sourceKind := flag.String("source-kind", "static", "strategy source kind")
	sourceEndpoint := flag.String("source-endpoint", "", "strategy source endpoint or fixture")
	keeperKey := flag.String("keeper-key", "", "keeper api key to register")
	depositor := flag.String("depositor", "", "depositor address to allowlist")
	flag.Parse()

	// Initialize database connection
	config.InitDB()

	vault := models.VaultConfig{
		Name:           *name,
		AssetSymbol:    *assetSymbol,
		ShareSymbol:    *shareSymbol,
		Policy:         *policy,
		RouterAddress:  *router,
		SourceKind:     *sourceKind,
		SourceEndpoint: *sourceEndpoint,
	}
	if err := config.DB.Create(&vault).Error; err != nil {
		log.Fatalf("Failed to create vault config: %v", err)
	}
	log.Printf("Created vault %d (%s, %s policy)", vault.ID, vault.Name, vault.Policy)

	if *keeperKey != "" {
		key := models.AccessKey{
			Role:    models.RoleKeeper,
			APIKey:  *keeperKey,
			Label:   "seeded keeper",
			Enabled: true,
		}
		if err := config.DB.Create(&key).Error; err != nil {
			log.Fatalf("Failed to create keeper access key: %v", err)
		}
		log.Printf("Created keeper access key %d", key.ID)
	}

	if *depositor != "" {
		entry := models.AccessKey{
			Role:    models.RoleDepositor,
			Address: *depositor,
			Label:   "seeded depositor",
			Enabled: true,
		}
		if err := config.DB.Create(&entry).Error; err != nil {
			log.Fatalf("Failed to create depositor entry: %v", err)
		}
		log.Printf("Allowlisted depositor %s", *depositor)
	}
}
