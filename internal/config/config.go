package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration. It is read once at process
// start and never mutated afterwards.
type Config struct {
	// iLO target settings
	Host     string
	Port     int
	Username string
	Password string
	Insecure bool

	// HTTP server settings
	ListenAddress string
	MetricsPath   string

	// Per-scrape fetch timeout
	ScrapeTimeout time.Duration
}

// NewConfig creates a new Config with values from environment or defaults.
func NewConfig() *Config {
	return &Config{
		Host:     getEnv("ILO_HOST", ""),
		Port:     getIntEnv("ILO_PORT", 443),
		Username: getEnv("ILO_USER", ""),
		Password: getEnv("ILO_PASSWORD", ""),
		Insecure: getBoolEnv("ILO_INSECURE", false),

		ListenAddress: getEnv("LISTEN_ADDRESS", ":9116"),
		MetricsPath:   getEnv("METRICS_PATH", "/metrics"),

		ScrapeTimeout: getDurationEnv("SCRAPE_TIMEOUT", 10*time.Second),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		i, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return i
	}
	return defaultValue
}

// getBoolEnv retrieves a boolean environment variable or returns a default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return b
	}
	return defaultValue
}

// getDurationEnv retrieves a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err != nil {
			return defaultValue
		}
		return d
	}
	return defaultValue
}

// Validate checks if the configuration is valid. Missing target or
// credentials are fatal at startup.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("ILO_HOST must be set")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("ILO_PORT must be a valid port number")
	}
	if c.Username == "" {
		return fmt.Errorf("ILO_USER must be set")
	}
	if c.Password == "" {
		return fmt.Errorf("ILO_PASSWORD must be set")
	}
	if c.ScrapeTimeout <= 0 {
		return fmt.Errorf("SCRAPE_TIMEOUT must be positive")
	}
	return nil
}
