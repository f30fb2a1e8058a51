package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// EnvHome overrides the data directory.
	EnvHome = "CLOUDCMD_HOME"
	// EnvDB overrides the SQLite database path.
	EnvDB = "CLOUDCMD_DB"
)

// DataDir returns the directory used to store cloudcmd data.
func DataDir() (string, error) {
	if d := os.Getenv(EnvHome); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cloudcmd"), nil
}

// EnsureDataDir returns DataDir after creating it if needed.
func EnsureDataDir() (string, error) {
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(d, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return d, nil
}

// DBPath returns the full path to the SQLite draft database.
func DBPath() (string, error) {
	if p := os.Getenv(EnvDB); p != "" {
		return p, nil
	}
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "cloudcmd.db"), nil
}

// DefaultConfigPath returns the config file location inside the data dir.
func DefaultConfigPath() (string, error) {
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.yaml"), nil
}
