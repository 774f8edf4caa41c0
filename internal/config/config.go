package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all runlog configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`

	// LogLevel is "debug", "info", "warn" or "error".
	LogLevel string `yaml:"log_level"`

	Storage StorageConfig `yaml:"storage"`

	// SeedOnEmpty fills an empty log with generated demo runs at startup.
	SeedOnEmpty bool `yaml:"seed_on_empty"`

	// RecentLimit is how many runs the recent-runs table shows.
	RecentLimit int `yaml:"recent_limit"`

	// TrendWeeks is the number of buckets in the weekly mileage chart.
	TrendWeeks int `yaml:"trend_weeks"`

	// LongRunMiles classifies imported activities: at or above this
	// distance they are logged as long runs, otherwise as easy.
	LongRunMiles float64 `yaml:"long_run_miles"`
}

// StorageConfig selects and configures the key-value backend.
type StorageConfig struct {
	Backend       string `yaml:"backend"` // sqlite, redis, memory
	SQLitePath    string `yaml:"sqlite_path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`

	// Key is the storage key holding the serialized run log.
	Key string `yaml:"key"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:     ":8080",
		LogLevel: "info",
		Storage: StorageConfig{
			Backend:     "sqlite",
			SQLitePath:  "./runlog.db",
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: "runlog",
			Key:         "runs",
		},
		RecentLimit:  10,
		TrendWeeks:   8,
		LongRunMiles: 10,
	}
}

// Load reads the YAML file at path on top of the defaults, then applies a
// .env file from the working directory and RUNLOG_* environment overrides.
// A missing file is not an error; defaults and the environment still apply.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	// .env is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg as YAML to path.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the values that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("unsupported storage backend %q (use sqlite, redis, or memory)", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return errors.New("storage key must not be empty")
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Addr = getEnv("RUNLOG_ADDR", c.Addr)
	c.LogLevel = getEnv("RUNLOG_LOG_LEVEL", c.LogLevel)
	c.Storage.Backend = strings.ToLower(getEnv("RUNLOG_STORAGE_BACKEND", c.Storage.Backend))
	c.Storage.SQLitePath = getEnv("RUNLOG_SQLITE_PATH", c.Storage.SQLitePath)
	c.Storage.RedisAddr = getEnv("RUNLOG_REDIS_ADDR", c.Storage.RedisAddr)
	c.Storage.RedisPassword = getEnv("RUNLOG_REDIS_PASSWORD", c.Storage.RedisPassword)
	c.Storage.RedisDB = getEnvInt("RUNLOG_REDIS_DB", c.Storage.RedisDB)
	c.Storage.RedisPrefix = getEnv("RUNLOG_REDIS_PREFIX", c.Storage.RedisPrefix)
	c.Storage.Key = getEnv("RUNLOG_STORAGE_KEY", c.Storage.Key)
	c.SeedOnEmpty = getEnvBool("RUNLOG_SEED_ON_EMPTY", c.SeedOnEmpty)
	c.RecentLimit = getEnvInt("RUNLOG_RECENT_LIMIT", c.RecentLimit)
	c.TrendWeeks = getEnvInt("RUNLOG_TREND_WEEKS", c.TrendWeeks)
	c.LongRunMiles = getEnvFloat("RUNLOG_LONG_RUN_MILES", c.LongRunMiles)
}

func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
