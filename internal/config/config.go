// Package config loads runtime settings from the environment (and .env when present).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string

	MaxIdleConns int
	MaxOpenConns int
}

// DSN renders the libpq keyword/value connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
}

type LedgerConfig struct {
	CommissionRate decimal.Decimal
	DebtLimit      decimal.Decimal
	Currency       string
}

type PricingConfig struct {
	BaseFare decimal.Decimal
	PerKm    decimal.Decimal
}

type StorageConfig struct {
	AWSRegion    string
	AWSAccessKey string
	AWSSecretKey string
	S3Bucket     string
	LocalDir     string
}

type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

type Config struct {
	Port      string
	DB        DBConfig
	RedisURL  string
	JWTSecret string
	Ledger    LedgerConfig
	Pricing   PricingConfig
	Storage   StorageConfig
	Firebase  FirebaseConfig
}

func Load() (Config, error) {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	var cfg Config
	cfg.Port = envOrDefault("PORT", "8080")
	cfg.DB = DBConfig{
		Host:     envOrDefault("DB_HOST", "localhost"),
		User:     envOrDefault("DB_USER", "postgres"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     envOrDefault("DB_NAME", "mooveit"),
		Port:     envOrDefault("DB_PORT", "5432"),
		SSLMode:  envOrDefault("DB_SSLMODE", "disable"),
	}
	var err error
	if cfg.DB.MaxIdleConns, err = envOrDefaultInt("DB_MAX_IDLE_CONNS", 10); err != nil {
		return Config{}, err
	}
	if cfg.DB.MaxOpenConns, err = envOrDefaultInt("DB_MAX_OPEN_CONNS", 100); err != nil {
		return Config{}, err
	}
	cfg.RedisURL = envOrDefault("REDIS_URL", "redis://redis:6379")
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	if cfg.Ledger.CommissionRate, err = envDecimal("LEDGER_COMMISSION_RATE", "20"); err != nil {
		return Config{}, err
	}
	if cfg.Ledger.DebtLimit, err = envDecimal("LEDGER_DEBT_LIMIT", "1000"); err != nil {
		return Config{}, err
	}
	cfg.Ledger.Currency = envOrDefault("LEDGER_CURRENCY", "AFN")
	if cfg.Pricing.BaseFare, err = envDecimal("PRICING_BASE_FARE", "20"); err != nil {
		return Config{}, err
	}
	if cfg.Pricing.PerKm, err = envDecimal("PRICING_PER_KM", "10"); err != nil {
		return Config{}, err
	}
	if cfg.Ledger.CommissionRate.IsNegative() || cfg.Ledger.CommissionRate.GreaterThan(decimal.NewFromInt(100)) {
		return Config{}, fmt.Errorf("LEDGER_COMMISSION_RATE must be between 0 and 100, got %s", cfg.Ledger.CommissionRate)
	}
	if !cfg.Ledger.DebtLimit.IsPositive() {
		return Config{}, fmt.Errorf("LEDGER_DEBT_LIMIT must be positive, got %s", cfg.Ledger.DebtLimit)
	}

	cfg.Storage = StorageConfig{
		AWSRegion:    os.Getenv("AWS_REGION"),
		AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		S3Bucket:     os.Getenv("AWS_S3_BUCKET"),
		LocalDir:     envOrDefault("RECEIPTS_DIR", "./data/receipts"),
	}
	cfg.Firebase = FirebaseConfig{
		ProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		CredentialsFile: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
	}
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDecimal(key, def string) (decimal.Decimal, error) {
	raw := envOrDefault(key, def)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid number %q", key, raw)
	}
	return d, nil
}

// UseS3 reports whether all AWS settings needed for the receipt archive are present.
func (c StorageConfig) UseS3() bool {
	return c.AWSRegion != "" && c.AWSAccessKey != "" && c.AWSSecretKey != "" && c.S3Bucket != ""
}

func envOrDefaultInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}
