package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads the YAML file at path, applies defaults and validates.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration and applies JANUS_*
// environment overrides on top, re-validating the result.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies the supported JANUS_SECTION_FIELD environment
// variables.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("JANUS_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("JANUS_POLICY_PATH"); val != "" {
		cfg.Policy.Path = val
	}
	if val := os.Getenv("JANUS_SESSION_DB_PATH"); val != "" {
		cfg.Session.DBPath = val
	}
	if val := os.Getenv("JANUS_ACCOUNTING_DB_PATH"); val != "" {
		cfg.Accounting.DBPath = val
	}
	if val := os.Getenv("JANUS_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
}
