package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Application
	AppEnv    string
	HTTPAddr  string
	LogLevel  string
	IssuesURL string

	// Transactions
	TxMaxRetries        int
	TxRetryBackoffMS    int
	TxRetryMaxBackoffMS int

	// Guild configuration cache
	GuildCacheSize int

	// Rate Limiting
	RateLimitPerUser       int
	RateLimitPerIP         int
	RateLimitWindowSeconds int
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "economy"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "economy_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AppEnv:    getEnv("APP_ENV", "development"),
		HTTPAddr:  getEnv("HTTP_ADDR", ":8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		IssuesURL: getEnv("ISSUES_URL", ""),

		TxMaxRetries:        getEnvInt("TX_MAX_RETRIES", 5),
		TxRetryBackoffMS:    getEnvInt("TX_RETRY_BACKOFF_MS", 75),
		TxRetryMaxBackoffMS: getEnvInt("TX_RETRY_MAX_BACKOFF_MS", 1200),

		GuildCacheSize: getEnvInt("GUILD_CACHE_SIZE", 256),

		RateLimitPerUser:       getEnvInt("RATE_LIMIT_PER_USER", 20),
		RateLimitPerIP:         getEnvInt("RATE_LIMIT_PER_IP", 100),
		RateLimitWindowSeconds: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.TxMaxRetries < 0 {
		return fmt.Errorf("TX_MAX_RETRIES must not be negative")
	}
	if c.TxRetryBackoffMS <= 0 {
		return fmt.Errorf("TX_RETRY_BACKOFF_MS must be positive")
	}
	if c.TxRetryMaxBackoffMS < c.TxRetryBackoffMS {
		return fmt.Errorf("TX_RETRY_MAX_BACKOFF_MS must be at least TX_RETRY_BACKOFF_MS")
	}
	if c.GuildCacheSize <= 0 {
		return fmt.Errorf("GUILD_CACHE_SIZE must be positive")
	}
	if c.RateLimitWindowSeconds <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_SECONDS must be positive")
	}
	return nil
}

func (c *Config) ValidateProductionSecurity() error {
	if c.AppEnv != "production" {
		return nil
	}

	if c.DBSSLMode != "require" {
		return fmt.Errorf("DB_SSLMODE must be 'require' in production")
	}
	if c.DBPassword == "change_me" {
		return fmt.Errorf("DB_PASSWORD must be changed from default in production")
	}

	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) GetRetryBackoff() time.Duration {
	return time.Duration(c.TxRetryBackoffMS) * time.Millisecond
}

func (c *Config) GetRetryMaxBackoff() time.Duration {
	return time.Duration(c.TxRetryMaxBackoffMS) * time.Millisecond
}

func (c *Config) GetRateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
