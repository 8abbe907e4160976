package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"questlog/internal/engine"
)

// Config is the on-disk configuration of ql, stored as TOML.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Rewards   RewardsConfig   `toml:"rewards"`
	Calendar  CalendarConfig  `toml:"calendar"`
	Session   SessionConfig   `toml:"session"`
	Scheduler SchedulerConfig `toml:"scheduler"`
}

type DatabaseConfig struct {
	Path string `toml:"path"` // empty: QUESTLOG_DB or ~/.questlog/questlog.db
}

type RewardsConfig struct {
	DebugMode   bool `toml:"debug_mode"`    // use debug_base_xp instead of base_xp
	BaseXP      int  `toml:"base_xp"`       // XP per difficulty point
	DebugBaseXP int  `toml:"debug_base_xp"` // XP per difficulty point in debug mode
}

type CalendarConfig struct {
	Timezone  string `toml:"timezone"`   // IANA name, empty = local
	WeekStart string `toml:"week_start"` // weekday name the week starts on
}

type SessionConfig struct {
	RequestTimeout string `toml:"request_timeout"` // e.g. "5s"
}

type SchedulerConfig struct {
	RolloverSpec string `toml:"rollover_spec"` // cron spec, e.g. "5 0 * * *"
}

func DefaultConfig() *Config {
	return &Config{
		Rewards: RewardsConfig{
			BaseXP:      engine.DefaultBaseExperience,
			DebugBaseXP: engine.DebugBaseExperience,
		},
		Calendar: CalendarConfig{
			WeekStart: "monday",
		},
		Session: SessionConfig{
			RequestTimeout: "5s",
		},
		Scheduler: SchedulerConfig{
			RolloverSpec: "5 0 * * *",
		},
	}
}

// DefaultPath returns ~/.questlog/config.toml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".questlog", "config.toml"), nil
}

// Load reads the config at path. A missing file yields the defaults; keys absent
// from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if _, err := c.GetRequestTimeout(); err != nil {
		return fmt.Errorf("invalid request timeout %q: %w", c.Session.RequestTimeout, err)
	}
	if _, err := c.GetCalendar(); err != nil {
		return err
	}
	if c.Rewards.BaseXP < 0 || c.Rewards.DebugBaseXP < 0 {
		return fmt.Errorf("base xp cannot be negative")
	}
	if c.Scheduler.RolloverSpec != "" {
		if _, err := cron.ParseStandard(c.Scheduler.RolloverSpec); err != nil {
			return fmt.Errorf("invalid rollover spec %q: %w", c.Scheduler.RolloverSpec, err)
		}
	}
	return nil
}

// GetRequestTimeout returns 0 (no timeout) for an empty value.
func (c *Config) GetRequestTimeout() (time.Duration, error) {
	if c.Session.RequestTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Session.RequestTimeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration")
	}
	return d, nil
}

func (c *Config) GetCalendar() (engine.Calendar, error) {
	return engine.NewCalendar(c.Calendar.Timezone, c.Calendar.WeekStart)
}

func (c *Config) RewardCalculator() engine.RewardCalculator {
	return engine.NewRewardCalculator(c.Rewards.BaseXP, c.Rewards.DebugBaseXP, c.Rewards.DebugMode)
}
