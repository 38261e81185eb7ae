// Package config loads taskdeck settings from file, environment, and flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all taskdeck settings.
type Config struct {
	// DBPath is the location of the SQLite database. An empty value
	// disables durable storage entirely (the list runs in-memory-only,
	// read-only mode).
	DBPath string `mapstructure:"db_path"`

	// ListenAddr is the dashboard listen address for `taskdeck serve`.
	ListenAddr string `mapstructure:"listen_addr"`

	// LogFile routes logs to a rotated file instead of stderr.
	LogFile string `mapstructure:"log_file"`

	// Debounce is the settle window for database file watching.
	Debounce time.Duration `mapstructure:"debounce"`
}

// Load reads configuration from taskdeck.yaml (current directory, then
// $HOME/.config/taskdeck), overridden by TASKDECK_* environment variables.
//
// A missing config file is fine; defaults apply.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("taskdeck")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "taskdeck"))
	}

	v.SetEnvPrefix("TASKDECK")
	v.AutomaticEnv()

	v.SetDefault("db_path", defaultDBPath())
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_file", "")
	v.SetDefault("debounce", 100*time.Millisecond)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// defaultDBPath places the database under the user's home directory,
// falling back to the working directory when home is unknown.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".taskdeck", "todos.db")
	}
	return filepath.Join(home, ".taskdeck", "todos.db")
}
