package config

import "time"

// ApplyDefaults fills unset fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = "127.0.0.1:8812"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	if cfg.Policy.Watch == nil {
		cfg.Policy.Watch = boolPtr(true)
	}
	if cfg.Policy.WatchDebounce == 0 {
		cfg.Policy.WatchDebounce = 100 * time.Millisecond
	}
	if cfg.Policy.MaxDepth == 0 {
		cfg.Policy.MaxDepth = 32
	}
	if cfg.Policy.MaxFileSize == 0 {
		cfg.Policy.MaxFileSize = 1 * 1024 * 1024
	}

	if cfg.Session.DBPath == "" {
		cfg.Session.DBPath = "data/sessions.db"
	}
	if cfg.Session.StaleAfter == 0 {
		cfg.Session.StaleAfter = 24 * time.Hour
	}

	if cfg.Accounting.Enabled == nil {
		cfg.Accounting.Enabled = boolPtr(true)
	}
	if cfg.Accounting.DBPath == "" {
		cfg.Accounting.DBPath = "data/accounting.db"
	}
	if cfg.Accounting.AsyncBuffer == 0 {
		cfg.Accounting.AsyncBuffer = 1000
	}
	if cfg.Accounting.WriteTimeout == 0 {
		cfg.Accounting.WriteTimeout = 5 * time.Second
	}
	if cfg.Accounting.RetentionDays == 0 {
		cfg.Accounting.RetentionDays = 90
	}
	if cfg.Accounting.PruneSchedule == "" {
		cfg.Accounting.PruneSchedule = "0 3 * * *"
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "json"
	}
	if cfg.Telemetry.Metrics.Enabled == nil {
		cfg.Telemetry.Metrics.Enabled = boolPtr(true)
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = "janus"
	}
}

func boolPtr(b bool) *bool { return &b }
