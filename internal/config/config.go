// Package config loads finbr settings from an optional YAML file with
// FINBR_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/spf13/viper"

	"github.com/renanmoretto/finbr/calendar"
	"github.com/renanmoretto/finbr/utils"
)

// EnvPrefix is prepended to every environment override, e.g. FINBR_SERVER_ADDR.
const EnvPrefix = "FINBR"

// Config represents the complete application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"       yaml:"log"`
	Server    ServerConfig    `mapstructure:"server"    yaml:"server"`
	Pricing   PricingConfig   `mapstructure:"pricing"   yaml:"pricing"`
	Calendar  CalendarConfig  `mapstructure:"calendar"  yaml:"calendar"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"` // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr        string   `mapstructure:"addr"         yaml:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// PricingConfig holds DI1 pricing settings.
type PricingConfig struct {
	AsOf    string `mapstructure:"as_of"   yaml:"as_of"` // empty means today in Sao Paulo
	Workers int    `mapstructure:"workers" yaml:"workers"`
}

// CalendarConfig lists one-off closures on top of the national holidays.
type CalendarConfig struct {
	ExtraHolidays []string `mapstructure:"extra_holidays" yaml:"extra_holidays"`
}

// SchedulerConfig holds the background jobs run by "finbr serve".
// Schedules are six-field cron expressions on the Sao Paulo clock.
type SchedulerConfig struct {
	Enabled            bool   `mapstructure:"enabled"             yaml:"enabled"`
	SettlementSchedule string `mapstructure:"settlement_schedule" yaml:"settlement_schedule"`
	WarmupSchedule     string `mapstructure:"warmup_schedule"     yaml:"warmup_schedule"`
}

// Load reads configuration. With an empty path it searches for finbr.yaml in
// ./, ./config and ~/.finbr, and a missing file is not an error.
// Environment variables override file values.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("finbr")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath(filepath.Join(homeDir(), ".finbr"))

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("pricing.as_of", "")
	v.SetDefault("pricing.workers", 4)

	v.SetDefault("calendar.extra_holidays", []string{})

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.settlement_schedule", "0 0 20 * * MON-FRI")
	v.SetDefault("scheduler.warmup_schedule", "0 5 0 * * *")
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Pricing.Workers < 0 {
		return fmt.Errorf("pricing.workers must be >= 0, got %d", c.Pricing.Workers)
	}
	if _, _, err := c.PinnedAsOf(); err != nil {
		return err
	}
	if _, err := c.ExtraHolidayRules(); err != nil {
		return err
	}
	return nil
}

// PinnedAsOf returns pricing.as_of when set.
func (c *Config) PinnedAsOf() (time.Time, bool, error) {
	if strings.TrimSpace(c.Pricing.AsOf) == "" {
		return time.Time{}, false, nil
	}
	d, err := utils.ParseDate(c.Pricing.AsOf)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("pricing.as_of: %w", err)
	}
	return d, true, nil
}

// ExtraHolidayRules converts calendar.extra_holidays into one-off closures.
func (c *Config) ExtraHolidayRules() ([]*cal.Holiday, error) {
	rules := make([]*cal.Holiday, 0, len(c.Calendar.ExtraHolidays))
	for _, s := range c.Calendar.ExtraHolidays {
		d, err := utils.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("calendar.extra_holidays: %w", err)
		}
		rules = append(rules, calendar.OneOff("Feriado extra", d))
	}
	return rules, nil
}

// NewCalendar builds the national calendar plus configured closures.
func (c *Config) NewCalendar() (*calendar.Calendar, error) {
	extra, err := c.ExtraHolidayRules()
	if err != nil {
		return nil, err
	}
	return calendar.NewNational(extra...), nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
