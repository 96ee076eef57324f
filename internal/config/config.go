// Package config loads the replay server settings from environment
// variables, with a .env file picked up in development.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the server configuration. All settings have defaults
// and can be overridden via env vars.
type Config struct {
	Addr            string // SERVER_ADDR
	DatasetPath     string // DATASET_PATH, empty means start with no data
	EnforcementType string // ENFORCEMENT_TYPE, event type served as the overlay
	Debug           bool   // DEBUG
}

// Load reads the environment. A missing .env file is not an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:            getEnv("SERVER_ADDR", ":8000"),
		DatasetPath:     getEnv("DATASET_PATH", ""),
		EnforcementType: getEnv("ENFORCEMENT_TYPE", "enforcement"),
		Debug:           os.Getenv("DEBUG") == "true" || os.Getenv("DEBUG") == "1",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
