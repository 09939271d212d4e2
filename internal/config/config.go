package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database  DatabaseConfig
	Owner     OwnerConfig
	Import    ImportConfig
	Matcher   MatcherConfig
	Recurring RecurringConfig
	Log       LogConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// OwnerConfig identifies the ledger owner all CLI operations act as.
type OwnerConfig struct {
	ID string
}

// ImportConfig holds statement ingestion defaults.
type ImportConfig struct {
	DefaultCurrency string `mapstructure:"default_currency"`
}

// MatcherConfig tunes the transfer matcher.
type MatcherConfig struct {
	// DateWindowDays bounds how far apart the two sides of a transfer may post.
	DateWindowDays int `mapstructure:"date_window_days"`
	// FeeToleranceCents bounds the absolute amount mismatch still worth suggesting.
	FeeToleranceCents int64 `mapstructure:"fee_tolerance_cents"`
}

// RecurringConfig tunes the recurring-charge detector.
type RecurringConfig struct {
	MinOccurrences     int     `mapstructure:"min_occurrences"`
	AmountTolerancePct float64 `mapstructure:"amount_tolerance_pct"`
	DayTolerance       int     `mapstructure:"day_tolerance"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// Load reads configuration from file and env. Env var overrides use prefix LEDGERLINE_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "ledgerline", "ledgerline.db"))
	v.SetDefault("owner.id", "local")
	v.SetDefault("import.default_currency", "USD")
	v.SetDefault("matcher.date_window_days", 3)
	v.SetDefault("matcher.fee_tolerance_cents", 200)
	v.SetDefault("recurring.min_occurrences", 2)
	v.SetDefault("recurring.amount_tolerance_pct", 12.0)
	v.SetDefault("recurring.day_tolerance", 3)
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("LEDGERLINE_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "ledgerline"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("LEDGERLINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects tunables outside their workable ranges.
func (c Config) Validate() error {
	if c.Matcher.DateWindowDays < 0 || c.Matcher.DateWindowDays > 31 {
		return fmt.Errorf("matcher.date_window_days must be between 0 and 31, got %d", c.Matcher.DateWindowDays)
	}
	if c.Matcher.FeeToleranceCents < 0 {
		return fmt.Errorf("matcher.fee_tolerance_cents must not be negative, got %d", c.Matcher.FeeToleranceCents)
	}
	if c.Recurring.MinOccurrences < 2 {
		return fmt.Errorf("recurring.min_occurrences must be at least 2, got %d", c.Recurring.MinOccurrences)
	}
	if c.Recurring.AmountTolerancePct < 0 || c.Recurring.AmountTolerancePct > 100 {
		return fmt.Errorf("recurring.amount_tolerance_pct must be between 0 and 100, got %g", c.Recurring.AmountTolerancePct)
	}
	if c.Recurring.DayTolerance < 0 || c.Recurring.DayTolerance > 15 {
		return fmt.Errorf("recurring.day_tolerance must be between 0 and 15, got %d", c.Recurring.DayTolerance)
	}
	return nil
}

// Path returns the config file location, honoring the LEDGERLINE_CONFIG
// override.
func Path() string {
	if p := os.Getenv("LEDGERLINE_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "ledgerline", "config.toml")
}

// Save writes the provided config to disk, creating the config directory if needed.
// Used by the init command to lay down an editable starting point.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("owner.id", cfg.Owner.ID)
	v.Set("import.default_currency", cfg.Import.DefaultCurrency)
	v.Set("matcher.date_window_days", cfg.Matcher.DateWindowDays)
	v.Set("matcher.fee_tolerance_cents", cfg.Matcher.FeeToleranceCents)
	v.Set("recurring.min_occurrences", cfg.Recurring.MinOccurrences)
	v.Set("recurring.amount_tolerance_pct", cfg.Recurring.AmountTolerancePct)
	v.Set("recurring.day_tolerance", cfg.Recurring.DayTolerance)
	v.Set("log.level", cfg.Log.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
