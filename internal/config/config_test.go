package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renanmoretto/finbr/calendar"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "finbr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 4, cfg.Pricing.Workers)
	assert.Empty(t, cfg.Pricing.AsOf)
	assert.Empty(t, cfg.Calendar.ExtraHolidays)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "0 0 20 * * MON-FRI", cfg.Scheduler.SettlementSchedule)

	_, pinned, err := cfg.PinnedAsOf()
	require.NoError(t, err)
	assert.False(t, pinned)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  pretty: true
server:
  addr: "127.0.0.1:9000"
  cors_origins: ["http://localhost:3000"]
pricing:
  as_of: "2024-04-24"
  workers: 8
calendar:
  extra_holidays: ["2024-12-31"]
scheduler:
  enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 8, cfg.Pricing.Workers)
	assert.False(t, cfg.Scheduler.Enabled)

	asOf, pinned, err := cfg.PinnedAsOf()
	require.NoError(t, err)
	assert.True(t, pinned)
	assert.Equal(t, calendar.Date(2024, 4, 24), asOf)

	cal, err := cfg.NewCalendar()
	require.NoError(t, err)
	assert.False(t, cal.IsBusinessDay(calendar.Date(2024, 12, 31)))
	assert.Len(t, cal.BusinessDaysInYear(2024), 252)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FINBR_SERVER_ADDR", ":9999")
	t.Setenv("FINBR_LOG_LEVEL", "warn")
	t.Setenv("FINBR_PRICING_WORKERS", "2")

	path := writeConfig(t, "server:\n  addr: \":7000\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 2, cfg.Pricing.Workers)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "pricing:\n  as_of: \"not-a-date\"\n"))
	assert.ErrorContains(t, err, "pricing.as_of")

	_, err = Load(writeConfig(t, "calendar:\n  extra_holidays: [\"2024-13-01\"]\n"))
	assert.ErrorContains(t, err, "calendar.extra_holidays")

	_, err = Load(writeConfig(t, "pricing:\n  workers: -1\n"))
	assert.ErrorContains(t, err, "pricing.workers")
}

func TestExtraHolidayRules_Formats(t *testing.T) {
	cfg := &Config{Calendar: CalendarConfig{ExtraHolidays: []string{"2024-12-31", "20251224", "26/12/2025"}}}

	rules, err := cfg.ExtraHolidayRules()
	require.NoError(t, err)
	require.Len(t, rules, 3)

	d, ok := calendar.HolidayDate(rules[2], 2025)
	require.True(t, ok)
	assert.Equal(t, calendar.Date(2025, 12, 26), d)

	_, ok = calendar.HolidayDate(rules[2], 2026)
	assert.False(t, ok)
}
