package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingStoreConfig is returned when the store endpoint or credential is unset.
var ErrMissingStoreConfig = errors.New("missing store configuration")

// Config holds all pipeline configuration loaded from environment variables.
type Config struct {
	StoreURL   string
	StoreKey   string
	StoreTable string

	SourcePath string
	RawPath    string
	StagedPath string
	ReportPath string

	BatchSize  int
	MaxRetries int
	RetryUnit  time.Duration

	LogLevel string
}

// Load reads the .env file and returns a populated Config. It fails on
// malformed tuning values; store settings are checked by RequireStore.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		StoreURL:   getEnv("STORE_URL", "SUPABASE_URL", ""),
		StoreKey:   getEnv("STORE_KEY", "SUPABASE_KEY", ""),
		StoreTable: getEnv("STORE_TABLE", "", "telco_churn"),

		SourcePath: getEnv("SOURCE_CSV_PATH", "", "data/source/telco_customer_churn.csv"),
		RawPath:    getEnv("RAW_CSV_PATH", "", "data/raw/churn_raw.csv"),
		StagedPath: getEnv("STAGED_CSV_PATH", "", "data/staged/churn_transformed.csv"),
		ReportPath: getEnv("REPORT_PATH", "", "data/reports/validation_report.yaml"),

		LogLevel: getEnv("LOG_LEVEL", "", "info"),
	}

	var errs []string
	var err error
	if cfg.BatchSize, err = getEnvInt("LOAD_BATCH_SIZE", 200); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.MaxRetries, err = getEnvInt("LOAD_MAX_RETRIES", 3); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.RetryUnit, err = getEnvDuration("LOAD_RETRY_UNIT", time.Second); err != nil {
		errs = append(errs, err.Error())
	}

	if cfg.BatchSize <= 0 {
		errs = append(errs, "LOAD_BATCH_SIZE must be positive")
	}
	if cfg.MaxRetries <= 0 {
		errs = append(errs, "LOAD_MAX_RETRIES must be positive")
	}
	if cfg.RetryUnit <= 0 {
		errs = append(errs, "LOAD_RETRY_UNIT must be positive")
	}
	if strings.TrimSpace(cfg.StoreTable) == "" {
		errs = append(errs, "STORE_TABLE must not be empty")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return cfg, nil
}

// RequireStore checks that both store settings are present.
func (c *Config) RequireStore() error {
	var missing []string
	if c.StoreURL == "" {
		missing = append(missing, "STORE_URL (or SUPABASE_URL)")
	}
	if c.StoreKey == "" {
		missing = append(missing, "STORE_KEY (or SUPABASE_KEY)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingStoreConfig, strings.Join(missing, ", "))
	}
	return nil
}

// String returns a loggable representation with the credential masked.
func (c *Config) String() string {
	key := ""
	if c.StoreKey != "" {
		key = "[MASKED]"
	}
	return fmt.Sprintf("Config{Store: {URL: %q, Key: %s, Table: %q}, Paths: {Source: %q, Raw: %q, Staged: %q, Report: %q}, Load: {BatchSize: %d, MaxRetries: %d, RetryUnit: %v}, LogLevel: %q}",
		c.StoreURL, key, c.StoreTable,
		c.SourcePath, c.RawPath, c.StagedPath, c.ReportPath,
		c.BatchSize, c.MaxRetries, c.RetryUnit, c.LogLevel)
}

func getEnv(key, alt, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if alt != "" {
		if val := os.Getenv(alt); val != "" {
			return val
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return fallback, fmt.Errorf("invalid value for %s=%q: not an integer", key, val)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		return fallback, fmt.Errorf("invalid value for %s=%q: not a duration", key, val)
	}
	return d, nil
}
