package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the TradeBid server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Mapbox   MapboxConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type MapboxConfig struct {
	BaseURL string
	Token   string
	Country string
	Timeout time.Duration
}

type AuthConfig struct {
	SessionTTL        time.Duration
	RequestsPerMinute int
}

// Load reads configuration from environment variables and returns a
// validated Config. A .env file in the working directory is applied
// first when present (local development); real environment variables
// win. Returns an error with a descriptive message if any required
// value is missing or invalid.
func Load() (*Config, error) {
	// Missing .env is the normal case outside local dev.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("TRADEBID_PORT", 8080),
			Env:  envString("TRADEBID_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Mapbox: MapboxConfig{
			BaseURL: envString("MAPBOX_BASE_URL", "https://api.mapbox.com"),
			Token:   os.Getenv("MAPBOX_TOKEN"),
			Country: envString("MAPBOX_COUNTRY", "au"),
			Timeout: envDuration("MAPBOX_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			SessionTTL:        envDuration("AUTH_SESSION_TTL", 24*time.Hour),
			RequestsPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 60),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Mapbox.Token == "" {
		return fmt.Errorf("MAPBOX_TOKEN is required")
	}
	if !strings.HasPrefix(c.Mapbox.BaseURL, "http://") && !strings.HasPrefix(c.Mapbox.BaseURL, "https://") {
		return fmt.Errorf("MAPBOX_BASE_URL must start with http:// or https://, got %q", c.Mapbox.BaseURL)
	}

	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("AUTH_SESSION_TTL must be positive")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
