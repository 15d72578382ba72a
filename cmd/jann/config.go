package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jgbyrne/jann/cmd/jann/deploy"

	"gopkg.in/yaml.v3"
)

// appName is the single source of truth for the application name.
// Derived identifiers (env vars, config paths, banners) are computed from it.
const appName = "jann"

// Derived env var names — computed once at init from appName.
var (
	envConfigDir = strings.ToUpper(appName) + "_CONFIG_DIR"
	envDryRun    = strings.ToUpper(appName) + "_MOSTLY_HARMLESS"
)

// Config is the optional per-user configuration file.
type Config struct {
	// Shell runs command statements when the deploy file does not set
	// @shell. Empty means /bin/sh.
	Shell string `yaml:"shell"`

	// EnvFile is loaded into the process environment before execution.
	// When unset, a .env file next to the deploy file is used if present.
	EnvFile string `yaml:"env_file"`

	// MostlyHarmless turns every deploy operation into a dry-run report.
	MostlyHarmless bool `yaml:"mostly_harmless"`

	// Deploy overrides the default overwrite policy wholesale.
	Deploy *deploy.Options `yaml:"deploy"`
}

// options returns the effective deploy policy before command-line
// switches are applied.
func (c Config) options() deploy.Options {
	if c.Deploy != nil {
		return *c.Deploy
	}
	return deploy.DefaultOptions()
}

// resolveConfigDir returns the base config directory for the application.
// Priority: $JANN_CONFIG_DIR > $XDG_CONFIG_HOME/jann > ~/.config/jann
func resolveConfigDir() (string, error) {
	if v := os.Getenv(envConfigDir); v != "" {
		return v, nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// loadConfig reads config.yml from the config directory. A missing file
// yields the zero config; a malformed one is an error.
func loadConfig() (Config, error) {
	var cfg Config

	dir, err := resolveConfigDir()
	if err != nil {
		return cfg, err
	}
	path := filepath.Join(dir, "config.yml")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}
