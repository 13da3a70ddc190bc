// Package config loads sqlbook settings from YAML, environment and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the root configuration structure
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Manager ManagerConfig `mapstructure:"manager"`
	History HistoryConfig `mapstructure:"history"`
	IPC     IPCConfig     `mapstructure:"ipc"`
	Log     LogConfig     `mapstructure:"log"`
	Debug   bool          `mapstructure:"debug"`
}

// StorageConfig holds the locations of persisted state
type StorageConfig struct {
	ConnectionsFile string `mapstructure:"connections_file"`
	HistoryFile     string `mapstructure:"history_file"`
}

// ManagerConfig tunes the connection manager
type ManagerConfig struct {
	// QueueSize is the number of commands that may wait before callers block
	QueueSize int `mapstructure:"queue_size"`
	// RowLimit is appended to unbounded SELECT statements
	RowLimit int `mapstructure:"row_limit"`
	// ConnectTimeout bounds dialing a database server
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// HistoryConfig controls query history retention
type HistoryConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	MaxEntries int  `mapstructure:"max_entries"`
}

// IPCConfig holds the command socket settings
type IPCConfig struct {
	SocketPath string `mapstructure:"socket_path"`
}

// LogConfig holds logging settings
type LogConfig struct {
	File string `mapstructure:"file"`
}

// DataDir returns the per-user directory holding sqlbook state (~/.sqlbook).
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".sqlbook")
}

// DefaultSocketPath returns the default IPC endpoint for the current platform.
func DefaultSocketPath() string {
	if runtime.GOOS == "windows" {
		return `\\.\pipe\sqlbook`
	}
	return filepath.Join(DataDir(), "sqlbook.sock")
}

// LoadConfig loads configuration from $HOME/.sqlbook/config.yaml or
// ./config.yaml, environment variables (SQLBOOK_*) and defaults.
// A missing config file is not an error.
func LoadConfig() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(DataDir())
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadConfigFromPath loads configuration from an explicit file.
func LoadConfigFromPath(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(expandHome(path))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		// Defaults are static and always decode.
		panic(err)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()

	// Environment variable support
	v.AutomaticEnv()
	v.SetEnvPrefix("SQLBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	applyDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Storage.ConnectionsFile = expandHome(cfg.Storage.ConnectionsFile)
	cfg.Storage.HistoryFile = expandHome(cfg.Storage.HistoryFile)
	cfg.IPC.SocketPath = expandHome(cfg.IPC.SocketPath)
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateConfig validates the configuration values
func ValidateConfig(cfg *Config) error {
	if cfg.Storage.ConnectionsFile == "" {
		return fmt.Errorf("storage.connections_file cannot be empty")
	}
	if cfg.Manager.QueueSize < 1 {
		return fmt.Errorf("manager.queue_size must be >= 1, got %d", cfg.Manager.QueueSize)
	}
	if cfg.Manager.RowLimit < 1 {
		return fmt.Errorf("manager.row_limit must be >= 1, got %d", cfg.Manager.RowLimit)
	}
	if cfg.Manager.ConnectTimeout <= 0 {
		return fmt.Errorf("manager.connect_timeout must be positive, got %v", cfg.Manager.ConnectTimeout)
	}
	if cfg.History.MaxEntries < 0 {
		return fmt.Errorf("history.max_entries must be >= 0, got %d", cfg.History.MaxEntries)
	}
	if cfg.History.Enabled && cfg.Storage.HistoryFile == "" {
		return fmt.Errorf("storage.history_file cannot be empty when history is enabled")
	}
	return nil
}

// applyDefaults sets default configuration values
func applyDefaults(v *viper.Viper) {
	dir := DataDir()

	v.SetDefault("storage.connections_file", filepath.Join(dir, "connections.json"))
	v.SetDefault("storage.history_file", filepath.Join(dir, "history.db"))

	v.SetDefault("manager.queue_size", 8)
	v.SetDefault("manager.row_limit", 10)
	v.SetDefault("manager.connect_timeout", "10s")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.max_entries", 1000)

	v.SetDefault("ipc.socket_path", DefaultSocketPath())
	v.SetDefault("log.file", filepath.Join(dir, "sqlbook.log"))

	v.SetDefault("debug", false)
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
