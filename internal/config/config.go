package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	StoreDriver    string
	DatabaseURL    string
	MigrationsPath string
	Locale         string
	AllowPastDates bool
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env is optional when the variables come from the environment (Docker, CI, etc.).
	}

	cfg := &Config{
		StoreDriver:    os.Getenv("STORE_DRIVER"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		Locale:         os.Getenv("LOCALE"),
		AllowPastDates: true,
	}

	if raw := os.Getenv("ALLOW_PAST_DATES"); raw != "" {
		allow, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("config: ALLOW_PAST_DATES must be a boolean, got %q", raw)
		}
		cfg.AllowPastDates = allow
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate applies defaults and rejects unusable values.
func (c *Config) validate() error {
	switch strings.TrimSpace(c.StoreDriver) {
	case "":
		c.StoreDriver = "postgres"
	case "postgres", "memory":
		c.StoreDriver = strings.TrimSpace(c.StoreDriver)
	default:
		return fmt.Errorf("config: STORE_DRIVER must be \"postgres\" or \"memory\", got %q", c.StoreDriver)
	}

	if strings.TrimSpace(c.Locale) == "" {
		c.Locale = "en"
	}

	if strings.TrimSpace(c.MigrationsPath) == "" {
		c.MigrationsPath = "migrations"
	}

	if c.StoreDriver == "postgres" {
		if strings.TrimSpace(c.DatabaseURL) == "" {
			// Useful local default when DATABASE_URL is not provided.
			c.DatabaseURL = "postgres://localhost:5432/rollbook?sslmode=disable"
		}

		parsed, err := url.Parse(c.DatabaseURL)
		if err != nil {
			return fmt.Errorf("config: DATABASE_URL invalid (%q): %w", c.DatabaseURL, err)
		}
		if parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("config: DATABASE_URL invalid (%q): missing scheme or host", c.DatabaseURL)
		}
	}

	return nil
}
