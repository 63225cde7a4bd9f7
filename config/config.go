package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Ledger configuration
	LockTimeout     time.Duration // bound on row-lock waits inside a transaction
	ResolveInterval time.Duration // cadence of the background resolution worker

	// HTTP configuration
	ListenPort string

	// Metrics configuration
	MetricsPort string

	// Kafka configuration (optional; publishing is disabled when empty)
	KafkaBrokers []string
	KafkaTopic   string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Defaults
		LockTimeout:     3 * time.Second,
		ResolveInterval: 15 * time.Second,
		ListenPort:      "8080",
		MetricsPort:     "9090",
		KafkaTopic:      "hashguess.ledger.events",

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if timeout := os.Getenv("LOCK_TIMEOUT"); timeout != "" {
		if parsed, err := time.ParseDuration(timeout); err == nil {
			config.LockTimeout = parsed
		}
	}
	if interval := os.Getenv("RESOLVE_INTERVAL"); interval != "" {
		if parsed, err := time.ParseDuration(interval); err == nil {
			config.ResolveInterval = parsed
		}
	}
	if port := os.Getenv("LISTEN_PORT"); port != "" {
		config.ListenPort = port
	}
	if port := os.Getenv("METRICS_PORT"); port != "" {
		config.MetricsPort = port
	}
	if topic := os.Getenv("KAFKA_TOPIC"); topic != "" {
		config.KafkaTopic = topic
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			broker = strings.TrimSpace(broker)
			if broker != "" {
				config.KafkaBrokers = append(config.KafkaBrokers, broker)
			}
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
