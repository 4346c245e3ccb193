package integration

import (
	"os"
	"testing"
	"time"
)

// BaseURL points the suite at a running API server.
var BaseURL = baseURL()

func baseURL() string {
	if v := os.Getenv("TEST_BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func TestMain(m *testing.M) {
	// Wait for the server to come up
	time.Sleep(5 * time.Second)

	// Run tests
	code := m.Run()

	// Clean up test data
	cleanup()

	os.Exit(code)
}

func cleanup() {
	// Vault configs created by the suite deactivate themselves in their
	// own subtests; owner rows are keyed by the run's unique suffix.
}
