package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr string

	PostgresDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionTTL          time.Duration
	SessionRotateOnHold bool

	TransferRetries      int
	TransferRetryBackoff time.Duration

	HistoryPageSize int
}

// Load reads configuration from the environment, with an optional .env file
// for local runs. Only the Postgres DSN has no usable default.
func Load() (Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("RUN_ADDRESS", ":8181")
	v.SetDefault("REDIS_ADDRESS", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SESSION_TTL", "600s")
	v.SetDefault("SESSION_ROTATE_ON_HOLD", false)
	v.SetDefault("TRANSFER_RETRIES", 3)
	v.SetDefault("TRANSFER_RETRY_BACKOFF", "50ms")
	v.SetDefault("HISTORY_PAGE_SIZE", 20)

	dsn := v.GetString("DATABASE_URI")
	if dsn == "" {
		return Config{}, fmt.Errorf("DATABASE_URI environment variable not set")
	}

	cfg := Config{
		HTTPAddr:             v.GetString("RUN_ADDRESS"),
		PostgresDSN:          dsn,
		RedisAddr:            v.GetString("REDIS_ADDRESS"),
		RedisPassword:        v.GetString("REDIS_PASSWORD"),
		RedisDB:              v.GetInt("REDIS_DB"),
		SessionTTL:           v.GetDuration("SESSION_TTL"),
		SessionRotateOnHold:  v.GetBool("SESSION_ROTATE_ON_HOLD"),
		TransferRetries:      v.GetInt("TRANSFER_RETRIES"),
		TransferRetryBackoff: v.GetDuration("TRANSFER_RETRY_BACKOFF"),
		HistoryPageSize:      v.GetInt("HISTORY_PAGE_SIZE"),
	}

	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	if cfg.TransferRetries < 1 {
		return Config{}, fmt.Errorf("TRANSFER_RETRIES must be at least 1, got %d", cfg.TransferRetries)
	}

	return cfg, nil
}
