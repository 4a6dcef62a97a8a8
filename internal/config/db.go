package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig holds the Postgres connection settings, sourced from the
// environment.
type DatabaseConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
}

// LoadDatabaseConfig reads the POSTGRES_* environment variables, falling back
// to local development defaults.
func LoadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     envOr("POSTGRES_HOST", "localhost"),
		Port:     envIntOr("POSTGRES_PORT", 5432),
		Name:     envOr("POSTGRES_DB", "finance"),
		User:     envOr("POSTGRES_USER", "finance_app"),
		Password: envOr("POSTGRES_PASSWORD", "change_me"),
	}
}

// DSN renders the config as a lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		c.Host, c.Port, c.Name, c.User, c.Password)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
