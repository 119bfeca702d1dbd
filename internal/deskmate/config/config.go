// Package config loads the assistant's settings from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/deskmate-ai/deskmate/common/environment"
)

// Config holds all runtime settings.
type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Users struct {
		Path string `yaml:"path"`
	} `yaml:"users"`

	Commands struct {
		// Path to the synonym configuration. Empty means use the
		// built-in defaults.
		Path string `yaml:"path"`
	} `yaml:"commands"`

	History struct {
		Limit int `yaml:"limit"`
	} `yaml:"history"`

	User struct {
		ID string `yaml:"id"`
	} `yaml:"user"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Database.Path = "./deskmate.db"
	cfg.Users.Path = "./users.json"
	cfg.History.Limit = 50
	cfg.User.ID = "default_user"
	cfg.Log.Level = "info"
	return cfg
}

// Load reads the settings file at path (missing file falls back to
// defaults) and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults apply.
		case err != nil:
			return nil, fmt.Errorf("failed to read settings: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse settings: %w", err)
			}
		}
	}

	cfg.Database.Path = environment.StringOr("DESKMATE_DB_PATH", cfg.Database.Path)
	cfg.Users.Path = environment.StringOr("DESKMATE_USERS_PATH", cfg.Users.Path)
	cfg.Commands.Path = environment.StringOr("DESKMATE_COMMANDS_PATH", cfg.Commands.Path)
	cfg.User.ID = environment.StringOr("DESKMATE_USER_ID", cfg.User.ID)
	cfg.Log.Level = environment.StringOr("DESKMATE_LOG_LEVEL", cfg.Log.Level)
	cfg.History.Limit = environment.IntOr("DESKMATE_HISTORY_LIMIT", cfg.History.Limit)

	if cfg.History.Limit < 1 {
		return nil, fmt.Errorf("history limit must be positive, got %d", cfg.History.Limit)
	}

	return cfg, nil
}
