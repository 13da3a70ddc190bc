package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8, cfg.Manager.QueueSize)
	assert.Equal(t, 10, cfg.Manager.RowLimit)
	assert.Equal(t, 10*time.Second, cfg.Manager.ConnectTimeout)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, 1000, cfg.History.MaxEntries)
	assert.Equal(t, filepath.Join(DataDir(), "connections.json"), cfg.Storage.ConnectionsFile)
	assert.False(t, cfg.Debug)
}

func TestLoadConfigFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  connections_file: /tmp/sqlbook-test/connections.json
manager:
  queue_size: 4
  row_limit: 25
  connect_timeout: 3s
history:
  enabled: false
debug: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfigFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/sqlbook-test/connections.json", cfg.Storage.ConnectionsFile)
	assert.Equal(t, 4, cfg.Manager.QueueSize)
	assert.Equal(t, 25, cfg.Manager.RowLimit)
	assert.Equal(t, 3*time.Second, cfg.Manager.ConnectTimeout)
	assert.False(t, cfg.History.Enabled)
	assert.True(t, cfg.Debug)
	// Unset keys keep their defaults.
	assert.Equal(t, 1000, cfg.History.MaxEntries)
}

func TestLoadConfigFromPath_Missing(t *testing.T) {
	_, err := LoadConfigFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("SQLBOOK_MANAGER_ROW_LIMIT", "50")

	cfg := Default()
	assert.Equal(t, 50, cfg.Manager.RowLimit)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero queue", func(c *Config) { c.Manager.QueueSize = 0 }},
		{"zero row limit", func(c *Config) { c.Manager.RowLimit = 0 }},
		{"no timeout", func(c *Config) { c.Manager.ConnectTimeout = 0 }},
		{"negative history", func(c *Config) { c.History.MaxEntries = -1 }},
		{"empty connections file", func(c *Config) { c.Storage.ConnectionsFile = "" }},
		{"history without file", func(c *Config) { c.Storage.HistoryFile = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, ValidateConfig(cfg))
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x", "y.json"), expandHome("~/x/y.json"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
	assert.Equal(t, "relative", expandHome("relative"))
}
