package config

import (
	"fmt"

	"mercator-hq/janus/pkg/radius/value"
)

// Validate checks the configuration for inconsistencies. It assumes defaults
// have been applied.
func Validate(cfg *Config) error {
	if cfg.Server.ListenAddress == "" {
		return fmt.Errorf("server.listen_address cannot be empty")
	}

	if len(cfg.Dictionary.Attributes) == 0 {
		return fmt.Errorf("dictionary.attributes cannot be empty")
	}
	seenNames := make(map[string]bool)
	seenNumbers := make(map[uint32]bool)
	for i, a := range cfg.Dictionary.Attributes {
		if a.Name == "" {
			return fmt.Errorf("dictionary.attributes[%d]: name cannot be empty", i)
		}
		if seenNames[a.Name] {
			return fmt.Errorf("dictionary.attributes[%d]: duplicate name %q", i, a.Name)
		}
		seenNames[a.Name] = true
		if seenNumbers[a.Number] {
			return fmt.Errorf("dictionary.attributes[%d]: duplicate number %d", i, a.Number)
		}
		seenNumbers[a.Number] = true
		if _, err := value.ParseType(a.Type); err != nil {
			return fmt.Errorf("dictionary.attributes[%d] (%s): %w", i, a.Name, err)
		}
	}

	if cfg.Policy.Path == "" {
		return fmt.Errorf("policy.path cannot be empty")
	}
	if cfg.Policy.MaxDepth < 1 {
		return fmt.Errorf("policy.max_depth must be at least 1")
	}
	if cfg.Policy.MaxFileSize < 1 {
		return fmt.Errorf("policy.max_file_size must be positive")
	}

	if cfg.Session.DBPath == "" {
		return fmt.Errorf("session.db_path cannot be empty")
	}

	if *cfg.Accounting.Enabled {
		if cfg.Accounting.DBPath == "" {
			return fmt.Errorf("accounting.db_path cannot be empty")
		}
		if cfg.Accounting.AsyncBuffer < 1 {
			return fmt.Errorf("accounting.async_buffer must be positive")
		}
		if cfg.Accounting.RetentionDays < 0 {
			return fmt.Errorf("accounting.retention_days cannot be negative")
		}
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry.logging.level must be one of debug, info, warn, error")
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry.logging.format must be json or text")
	}

	return nil
}
