package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LEDGERLINE_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "local", cfg.Owner.ID)
	require.Equal(t, "USD", cfg.Import.DefaultCurrency)
	require.Equal(t, 3, cfg.Matcher.DateWindowDays)
	require.Equal(t, int64(200), cfg.Matcher.FeeToleranceCents)
	require.Equal(t, 2, cfg.Recurring.MinOccurrences)
	require.InDelta(t, 12.0, cfg.Recurring.AmountTolerancePct, 0.001)
	require.Equal(t, 3, cfg.Recurring.DayTolerance)
	require.Equal(t, "info", cfg.Log.Level)
	require.NotEmpty(t, cfg.Database.Path)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	t.Setenv("LEDGERLINE_CONFIG", path)

	want := Config{
		Database:  DatabaseConfig{Path: "/tmp/ledger-test.db"},
		Owner:     OwnerConfig{ID: "roundtrip"},
		Import:    ImportConfig{DefaultCurrency: "BRL"},
		Matcher:   MatcherConfig{DateWindowDays: 5, FeeToleranceCents: 500},
		Recurring: RecurringConfig{MinOccurrences: 3, AmountTolerancePct: 10.5, DayTolerance: 2},
		Log:       LogConfig{Level: "debug"},
	}
	require.NoError(t, Save(want))
	require.Equal(t, path, Path())

	got, err := Load()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("LEDGERLINE_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("LEDGERLINE_MATCHER_DATE_WINDOW_DAYS", "7")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7, cfg.Matcher.DateWindowDays)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Config{
		Matcher:   MatcherConfig{DateWindowDays: 3, FeeToleranceCents: 200},
		Recurring: RecurringConfig{MinOccurrences: 2, AmountTolerancePct: 12, DayTolerance: 3},
	}
	require.NoError(t, valid.Validate())

	cases := map[string]func(*Config){
		"negative window":     func(c *Config) { c.Matcher.DateWindowDays = -1 },
		"window too wide":     func(c *Config) { c.Matcher.DateWindowDays = 32 },
		"negative tolerance":  func(c *Config) { c.Matcher.FeeToleranceCents = -1 },
		"min occurrences 1":   func(c *Config) { c.Recurring.MinOccurrences = 1 },
		"negative pct":        func(c *Config) { c.Recurring.AmountTolerancePct = -0.1 },
		"pct beyond 100":      func(c *Config) { c.Recurring.AmountTolerancePct = 101 },
		"day tolerance large": func(c *Config) { c.Recurring.DayTolerance = 16 },
	}
	for name, mutate := range cases {
		c := valid
		mutate(&c)
		require.Error(t, c.Validate(), name)
	}
}
