package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// StoreDriver selects the auction store backend.
type StoreDriver string

const (
	StoreMemory   StoreDriver = "memory"
	StorePostgres StoreDriver = "postgres"
)

// Config is the process configuration, read from the environment (and .env when present).
type Config struct {
	HTTPAddr string
	Store    StoreDriver
	DB       DBConfig

	SchedulerInterval time.Duration
	CallbackTimeout   time.Duration

	SettlementURL     string
	SettlementTimeout time.Duration

	BidRatePerSecond float64
	BidRateBurst     int

	// AdminActorID may cancel any auction; uuid.Nil disables admin cancels.
	AdminActorID uuid.UUID
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

// DSN builds the postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// Load reads configuration. Missing values fall back to defaults; malformed
// values are an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":9000"),
		Store:    StoreDriver(getEnv("STORE_DRIVER", string(StoreMemory))),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "auctions"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		SettlementURL: os.Getenv("SETTLEMENT_URL"),
	}

	var err error
	if cfg.SchedulerInterval, err = durationEnv("SCHEDULER_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.CallbackTimeout, err = durationEnv("CALLBACK_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.SettlementTimeout, err = durationEnv("SETTLEMENT_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.BidRatePerSecond, err = floatEnv("BID_RATE_PER_SECOND", 5); err != nil {
		return nil, err
	}
	burst, err := intEnv("BID_RATE_BURST", 10)
	if err != nil {
		return nil, err
	}
	cfg.BidRateBurst = burst
	maxConns, err := intEnv("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	cfg.DB.MaxConns = int32(maxConns)

	if v := os.Getenv("ADMIN_ACTOR_ID"); v != "" {
		if cfg.AdminActorID, err = uuid.Parse(v); err != nil {
			return nil, fmt.Errorf("config: ADMIN_ACTOR_ID: %w", err)
		}
	}

	switch cfg.Store {
	case StoreMemory:
	case StorePostgres:
		if cfg.DB.User == "" {
			return nil, fmt.Errorf("config: DB_USER is required for the postgres store")
		}
	default:
		return nil, fmt.Errorf("config: unknown STORE_DRIVER %q", cfg.Store)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", key)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}
