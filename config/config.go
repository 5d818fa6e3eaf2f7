package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Telegram bot configuration
	Telegram TelegramConfig

	// CoinGecko price feed configuration
	CoinGecko CoinGeckoConfig

	// HTTP configuration
	HTTP HTTPConfig

	// Production toggles JSON logging
	Production bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// TelegramConfig holds Telegram Bot API configuration
type TelegramConfig struct {
	Token string
	// AdminID is the Telegram user id allowed to run trade commands.
	// Zero disables the check and any group member may manage trades.
	AdminID int64
	// PollTimeoutSeconds is the getUpdates long-poll timeout.
	PollTimeoutSeconds int
}

// CoinGeckoConfig holds price feed configuration
type CoinGeckoConfig struct {
	BaseURL        string
	TimeoutSeconds int
	MaxRetries     int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ListenAddr         string
	CORSAllowedOrigins string
	TimeoutSeconds     int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Telegram: TelegramConfig{
			Token:              os.Getenv("TELEGRAM_BOT_TOKEN"),
			AdminID:            getEnvInt64("TELEGRAM_ADMIN_ID", 0),
			PollTimeoutSeconds: getEnvInt("TELEGRAM_POLL_TIMEOUT_SECONDS", 30),
		},
		CoinGecko: CoinGeckoConfig{
			BaseURL:        getEnvString("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
			TimeoutSeconds: getEnvInt("COINGECKO_TIMEOUT_SECONDS", 10),
			MaxRetries:     getEnvInt("COINGECKO_MAX_RETRIES", 2),
		},
		HTTP: HTTPConfig{
			ListenAddr:         getEnvString("HTTP_LISTEN_ADDR", ":8080"),
			CORSAllowedOrigins: getEnvString("CORS_ALLOWED_ORIGINS", "*"),
			TimeoutSeconds:     getEnvInt("HTTP_TIMEOUT_SECONDS", 30),
		},
		Production: getEnvBool("PRODUCTION", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN must be set")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if c.Telegram.PollTimeoutSeconds <= 0 {
		return fmt.Errorf("TELEGRAM_POLL_TIMEOUT_SECONDS must be positive, got %d", c.Telegram.PollTimeoutSeconds)
	}
	if c.CoinGecko.TimeoutSeconds <= 0 {
		return fmt.Errorf("COINGECKO_TIMEOUT_SECONDS must be positive, got %d", c.CoinGecko.TimeoutSeconds)
	}
	return nil
}

// HasAdmin returns true if an admin id is configured
func (c *Config) HasAdmin() bool {
	return c.Telegram.AdminID != 0
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL: "postgres://localhost/trade_tracker_test",
		},
		Telegram: TelegramConfig{
			Token:              "test-token",
			AdminID:            0,
			PollTimeoutSeconds: 1,
		},
		CoinGecko: CoinGeckoConfig{
			BaseURL:        "https://api.coingecko.com/api/v3",
			TimeoutSeconds: 10,
			MaxRetries:     2,
		},
		HTTP: HTTPConfig{
			ListenAddr:         ":8080",
			CORSAllowedOrigins: "*",
			TimeoutSeconds:     30,
		},
	}
}
