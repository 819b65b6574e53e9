package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting of the tracker. It is read-only after
// Load: components receive it by injection and never mutate it.
type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Features   FeatureFlags     `yaml:"features"`
	Validation ValidationConfig `yaml:"validation"`
	Backup     BackupConfig     `yaml:"backup"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StorageConfig struct {
	// Backend selects the durable key-value backend: "sqlite" or "memory".
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	// Prefix namespaces every key so unrelated data in a shared store is
	// never touched by Clear or import.
	Prefix string `yaml:"prefix"`
	// Version is the schema version marker checked at startup.
	Version string `yaml:"version"`
}

type FeatureFlags struct {
	EnableExport bool `yaml:"enable_export"`
	EnableImport bool `yaml:"enable_import"`
	EnableCharts bool `yaml:"enable_charts"`
}

type ValidationConfig struct {
	MaxDescriptionLength int     `yaml:"max_description_length"`
	MinAmount            float64 `yaml:"min_amount"`
	MaxAmount            float64 `yaml:"max_amount"`
}

type BackupConfig struct {
	// Every is the backup cadence: a snapshot is written after every Nth
	// successfully created transaction.
	Every int `yaml:"every"`
	// MaxBackups is the retention count; the oldest snapshots beyond it
	// are evicted.
	MaxBackups int `yaml:"max_backups"`
}

// Categories is the fixed taxonomy, scoped per transaction type.
type Categories struct {
	Income  []string `yaml:"income"`
	Expense []string `yaml:"expense"`
}

// Load builds the configuration from defaults overridden by environment
// variables. An optional YAML file (CONFIG_FILE) is applied before the
// environment so env vars always win.
func Load() *Config {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		// Best effort: a missing or malformed file falls back to defaults.
		_ = cfg.applyFile(path)
	}

	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Version = getEnv("APP_VERSION", cfg.App.Version)
	cfg.App.Environment = getEnv("APP_ENV", cfg.App.Environment)

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)

	cfg.Storage.Backend = getEnv("STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.Path = getEnv("STORAGE_PATH", cfg.Storage.Path)
	cfg.Storage.Prefix = getEnv("STORAGE_PREFIX", cfg.Storage.Prefix)
	cfg.Storage.Version = getEnv("STORAGE_VERSION", cfg.Storage.Version)

	cfg.Features.EnableExport = getEnvBool("ENABLE_EXPORT", cfg.Features.EnableExport)
	cfg.Features.EnableImport = getEnvBool("ENABLE_IMPORT", cfg.Features.EnableImport)
	cfg.Features.EnableCharts = getEnvBool("ENABLE_CHARTS", cfg.Features.EnableCharts)

	cfg.Validation.MaxDescriptionLength = getEnvInt("MAX_DESCRIPTION_LENGTH", cfg.Validation.MaxDescriptionLength)
	cfg.Backup.Every = getEnvInt("BACKUP_EVERY", cfg.Backup.Every)
	cfg.Backup.MaxBackups = getEnvInt("MAX_BACKUPS", cfg.Backup.MaxBackups)

	return cfg
}

func defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:        "Expense Tracker",
			Version:     "1.0.0",
			Environment: "production",
		},
		Server: ServerConfig{
			Port:            "8081",
			ShutdownTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Backend: "sqlite",
			Path:    "./data/exptrack.db",
			Prefix:  "exp_track_",
			Version: "1.0",
		},
		Features: FeatureFlags{
			EnableExport: true,
			EnableImport: true,
			EnableCharts: true,
		},
		Validation: ValidationConfig{
			MaxDescriptionLength: 100,
			MinAmount:            0.01,
			MaxAmount:            999999.99,
		},
		Backup: BackupConfig{
			Every:      10,
			MaxBackups: 5,
		},
	}
}

// applyFile overlays settings from a YAML file onto the receiver.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Server.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Server.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.Storage.Backend {
	case "sqlite", "memory":
	default:
		errs = append(errs, fmt.Sprintf("invalid storage backend '%s': must be one of [sqlite memory]", c.Storage.Backend))
	}
	if c.Storage.Backend == "sqlite" && c.Storage.Path == "" {
		errs = append(errs, "storage path cannot be empty when using sqlite backend")
	}
	if c.Storage.Prefix == "" {
		errs = append(errs, "storage prefix cannot be empty")
	}
	if c.Storage.Version == "" {
		errs = append(errs, "storage version cannot be empty")
	}

	if c.Validation.MaxDescriptionLength < 1 {
		errs = append(errs, fmt.Sprintf("invalid max description length %d: must be at least 1", c.Validation.MaxDescriptionLength))
	}
	if c.Validation.MinAmount <= 0 {
		errs = append(errs, fmt.Sprintf("invalid min amount %v: must be greater than zero", c.Validation.MinAmount))
	}
	if c.Validation.MaxAmount <= c.Validation.MinAmount {
		errs = append(errs, fmt.Sprintf("invalid max amount %v: must be greater than min amount %v", c.Validation.MaxAmount, c.Validation.MinAmount))
	}

	if c.Backup.Every < 1 {
		errs = append(errs, fmt.Sprintf("invalid backup cadence %d: must be at least 1", c.Backup.Every))
	}
	if c.Backup.MaxBackups < 1 {
		errs = append(errs, fmt.Sprintf("invalid backup retention %d: must be at least 1", c.Backup.MaxBackups))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

// GetCategories returns the fixed category taxonomy. The lists are rebuilt
// on every call so callers cannot mutate the shared taxonomy.
func (c *Config) GetCategories() Categories {
	return Categories{
		Income: []string{
			"Salary",
			"Freelance",
			"Investment",
			"Business",
			"Rental Income",
			"Dividends",
			"Bonus",
			"Other Income",
		},
		Expense: []string{
			"Food & Dining",
			"Transportation",
			"Entertainment",
			"Shopping",
			"Bills & Utilities",
			"Healthcare",
			"Education",
			"Travel",
			"Insurance",
			"Taxes",
			"Other Expense",
		},
	}
}

// All returns the flattened taxonomy, income first, preserving list order.
func (cat Categories) All() []string {
	all := make([]string, 0, len(cat.Income)+len(cat.Expense))
	all = append(all, cat.Income...)
	all = append(all, cat.Expense...)
	return all
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true"
	}
	return defaultValue
}
