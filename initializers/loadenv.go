package initializers

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv pulls configuration from a local .env file into the process
// environment. Missing files are an error so misconfigured deploys fail fast.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil {
		log.Printf("[LoadEnv] .env not loaded: %v", err)
		return fmt.Errorf("failed to load .env: %w", err)
	}
	log.Println("[LoadEnv] environment loaded")
	return nil
}
