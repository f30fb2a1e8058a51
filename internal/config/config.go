// Package config resolves cloudcmd's data paths and settings.
//
// Settings come from built-in defaults, then an optional YAML file, then
// CLOUDCMD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvAPIURL     = "CLOUDCMD_API_URL"
	EnvAPITimeout = "CLOUDCMD_API_TIMEOUT"
	EnvLogLevel   = "CLOUDCMD_LOG_LEVEL"
	EnvLogFile    = "CLOUDCMD_LOG_FILE"
)

// Config holds all cloudcmd settings.
type Config struct {
	API    APIConfig    `yaml:"api"`
	Editor EditorConfig `yaml:"editor"`
	Log    LogConfig    `yaml:"log"`
}

// APIConfig describes the recipe server.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	// Multipart sends submissions as multipart/form-data with cloud_commands
	// as a JSON string field instead of a JSON body.
	Multipart bool `yaml:"multipart"`
}

// EditorConfig holds editing session settings.
type EditorConfig struct {
	MaxCommandSets int `yaml:"max_command_sets"`
	// Command edits step files; empty falls back to $VISUAL, then $EDITOR.
	Command string `yaml:"command,omitempty"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000/api/v1",
			Timeout: 15 * time.Second,
		},
		Editor: EditorConfig{MaxCommandSets: 1},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path uses DefaultConfigPath; a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path) //#nosec G304 -- config path chosen by the user
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if u := os.Getenv(EnvAPIURL); u != "" {
		c.API.BaseURL = u
	}
	if t := os.Getenv(EnvAPITimeout); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			secs, aerr := strconv.Atoi(t)
			if aerr != nil {
				return fmt.Errorf("%s: %w", EnvAPITimeout, err)
			}
			d = time.Duration(secs) * time.Second
		}
		c.API.Timeout = d
	}
	if l := os.Getenv(EnvLogLevel); l != "" {
		c.Log.Level = l
	}
	if f := os.Getenv(EnvLogFile); f != "" {
		c.Log.File = f
	}
	return nil
}

// Validate checks the settings are usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url %q is not an absolute URL", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.Editor.MaxCommandSets < 1 {
		return fmt.Errorf("editor.max_command_sets must be at least 1")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q unknown", c.Log.Level)
	}
	return nil
}

// Save writes c as YAML to path, creating its directory if needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
