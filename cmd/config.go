package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"allocation/internal/adapters/out/postgres"
	"allocation/internal/pkg/errs"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPPort          = "8080"
	defaultSSLMode           = "disable"
	defaultMaxAttempts       = 3
	defaultPoolStatsInterval = 30 * time.Second
)

type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	ConcurrencyControlStrategy postgres.Strategy
	BatchPageSize              int
	LockTimeout                time.Duration
	AllocationMaxAttempts      int
	PoolStatsInterval          time.Duration
	Pool                       postgres.PoolConfig
}

// LoadConfig reads the environment, loading files first when given. A missing file
// is not an error; variables already set in the environment win over file values.
func LoadConfig(files ...string) (Config, error) {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	strategy, err := postgres.ParseStrategy(getEnv("CONCURRENCY_CONTROL_STRATEGY", string(postgres.Optimistic)))
	if err != nil {
		return Config{}, errs.NewValueIsInvalidErrorWithCause("CONCURRENCY_CONTROL_STRATEGY", err)
	}

	pool := postgres.DefaultPoolConfig()
	cfg := Config{
		HTTPPort:                   getEnv("HTTP_PORT", defaultHTTPPort),
		DBHost:                     os.Getenv("DB_HOST"),
		DBPort:                     os.Getenv("DB_PORT"),
		DBUser:                     os.Getenv("DB_USER"),
		DBPassword:                 os.Getenv("DB_PASSWORD"),
		DBName:                     os.Getenv("DB_NAME"),
		DBSslMode:                  getEnv("DB_SSLMODE", defaultSSLMode),
		ConcurrencyControlStrategy: strategy,
	}

	err = errors.Join(
		intEnv("BATCH_PAGE_SIZE", postgres.DefaultBatchPageSize, &cfg.BatchPageSize),
		durationEnv("LOCK_TIMEOUT", 0, &cfg.LockTimeout),
		intEnv("ALLOCATION_MAX_ATTEMPTS", defaultMaxAttempts, &cfg.AllocationMaxAttempts),
		durationEnv("POOL_STATS_INTERVAL", defaultPoolStatsInterval, &cfg.PoolStatsInterval),
		intEnv("DB_MAX_OPEN_CONNS", pool.MaxOpenConns, &pool.MaxOpenConns),
		intEnv("DB_MAX_IDLE_CONNS", pool.MaxIdleConns, &pool.MaxIdleConns),
	)
	if err != nil {
		return Config{}, err
	}
	cfg.Pool = pool

	if err = cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	var problems []error
	required := []struct{ name, value string }{
		{"DB_HOST", c.DBHost},
		{"DB_PORT", c.DBPort},
		{"DB_USER", c.DBUser},
		{"DB_NAME", c.DBName},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			problems = append(problems, errs.NewValueIsRequiredError(r.name))
		}
	}

	if c.DBPort != "" {
		if port, err := strconv.Atoi(c.DBPort); err != nil || port < 1 || port > 65535 {
			problems = append(problems, errs.NewValueIsOutOfRangeError("DB_PORT", c.DBPort, 1, 65535))
		}
	}
	if c.BatchPageSize < 1 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("BATCH_PAGE_SIZE", c.BatchPageSize, 1, "unbounded"))
	}
	if c.LockTimeout < 0 {
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("LOCK_TIMEOUT", errors.New("must not be negative")))
	}
	if c.AllocationMaxAttempts < 1 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("ALLOCATION_MAX_ATTEMPTS", c.AllocationMaxAttempts, 1, "unbounded"))
	}
	if c.Pool.MaxOpenConns < 1 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("DB_MAX_OPEN_CONNS", c.Pool.MaxOpenConns, 1, "unbounded"))
	}

	return errors.Join(problems...)
}

// DSN builds the lib/pq connection URL.
func (c Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   c.DBHost + ":" + c.DBPort,
		Path:   "/" + c.DBName,
	}
	u.RawQuery = url.Values{"sslmode": []string{c.DBSslMode}}.Encode()
	return u.String()
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int, dst *int) error {
	raw := os.Getenv(key)
	if raw == "" {
		*dst = fallback
		return nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return errs.NewValueIsInvalidErrorWithCause(key, err)
	}
	*dst = value
	return nil
}

func durationEnv(key string, fallback time.Duration, dst *time.Duration) error {
	raw := os.Getenv(key)
	if raw == "" {
		*dst = fallback
		return nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return errs.NewValueIsInvalidErrorWithCause(key, err)
	}
	*dst = value
	return nil
}
