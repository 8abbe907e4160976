package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	timeout, err := cfg.GetRequestTimeout()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, timeout)

	cal, err := cfg.GetCalendar()
	require.NoError(t, err)
	assert.Equal(t, time.Monday, cal.FirstWeekday)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[rewards]
debug_mode = true

[calendar]
timezone = "UTC"
week_start = "sunday"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Rewards.DebugMode)
	assert.Equal(t, "5s", cfg.Session.RequestTimeout)
	assert.Equal(t, 50*3, cfg.RewardCalculator().BaseXP(3))

	cal, err := cfg.GetCalendar()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, cal.Location)
	assert.Equal(t, time.Sunday, cal.FirstWeekday)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.Database.Path = "/tmp/q.db"
	cfg.Scheduler.RolloverSpec = "0 4 * * *"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"timeout", func(c *Config) { c.Session.RequestTimeout = "soon" }},
		{"timezone", func(c *Config) { c.Calendar.Timezone = "Mars/Olympus" }},
		{"week start", func(c *Config) { c.Calendar.WeekStart = "someday" }},
		{"cron", func(c *Config) { c.Scheduler.RolloverSpec = "every day" }},
		{"xp", func(c *Config) { c.Rewards.BaseXP = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
