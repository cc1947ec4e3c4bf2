package database

import (
	"fmt"
	"os"
	"time"
)

// LoadConfigFromEnv loads database configuration from the environment.
// The DSN itself is read from the variable named by databaseURLEnv
// (typically SUPABASE_URL, a plain Postgres connection string),
// matching pkg/config.StorageConfig.DatabaseURLEnv.
func LoadConfigFromEnv(databaseURLEnv string) (Config, error) {
	dsn := os.Getenv(databaseURLEnv)
	if dsn == "" {
		return Config{}, fmt.Errorf("environment variable %s is not set", databaseURLEnv)
	}

	maxConns := getEnvInt32OrDefault("DB_MAX_OPEN_CONNS", 25)
	minConns := getEnvInt32OrDefault("DB_MIN_CONNS", 2)

	maxLifetime, err := parseDurationOrDefault("DB_CONN_MAX_LIFETIME", "1h")
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}
	maxIdleTime, err := parseDurationOrDefault("DB_CONN_MAX_IDLE_TIME", "15m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_IDLE_TIME: %w", err)
	}

	cfg := Config{
		DSN:             dsn,
		MaxConns:        maxConns,
		MinConns:        minConns,
		ConnMaxLifetime: maxLifetime,
		ConnMaxIdleTime: maxIdleTime,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for obviously invalid values.
func (c Config) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	if c.MaxConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1")
	}
	if c.MinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS cannot be negative")
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) cannot exceed DB_MAX_OPEN_CONNS (%d)", c.MinConns, c.MaxConns)
	}
	return nil
}

func parseDurationOrDefault(key, defaultVal string) (time.Duration, error) {
	v := getEnvOrDefault(key, defaultVal)
	return time.ParseDuration(v)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt32OrDefault(key string, defaultVal int32) int32 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var n int32
	if _, err := fmt.Sscanf(val, "%d", &n); err != nil {
		return defaultVal
	}
	return n
}
