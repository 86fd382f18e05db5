package main

import (
	"os"
	"strconv"
	"time"
)

// Config holds everything the service reads from the environment.
type Config struct {
	Port string

	// CatalogURL points at a remote catalog service; when empty the song
	// list is read from CatalogPath instead.
	CatalogURL    string
	CatalogAPIKey string
	CatalogPath   string

	// StoreBackend selects "postgres" or "memory". The memory backend is
	// for local development only; it loses state on restart.
	StoreBackend string

	NATSEnabled bool
	NATSURL     string

	ShutdownTimeout time.Duration
}

func loadConfig() Config {
	return Config{
		Port:            getEnv("PORT", "8080"),
		CatalogURL:      getEnv("CATALOG_URL", ""),
		CatalogAPIKey:   getEnv("CATALOG_API_KEY", ""),
		CatalogPath:     getEnv("CATALOG_PATH", "catalog.yaml"),
		StoreBackend:    getEnv("STORE_BACKEND", "postgres"),
		NATSEnabled:     getEnvAsBool("NATS_ENABLED", false),
		NATSURL:         getEnv("NATS_URL", "nats://localhost:4222"),
		ShutdownTimeout: time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT_SEC", 10)) * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
