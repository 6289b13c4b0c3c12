package config

import "time"

// Config is the root configuration for the Janus policy server.
type Config struct {
	// Server contains the HTTP server settings for the evaluation and
	// metrics endpoints.
	Server ServerConfig `yaml:"server"`

	// Dictionary defines the attributes policies may reference.
	Dictionary DictionaryConfig `yaml:"dictionary"`

	// Policy configures where policies are loaded from and how.
	Policy PolicyConfig `yaml:"policy"`

	// Session configures the active-session store backing Simultaneous-Use.
	Session SessionConfig `yaml:"session"`

	// Accounting configures evaluation accounting and retention.
	Accounting AccountingConfig `yaml:"accounting"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// ListenAddress is the host:port the server binds.
	// Default: "127.0.0.1:8812"
	ListenAddress string `yaml:"listen_address"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DictionaryConfig defines the attribute dictionary.
type DictionaryConfig struct {
	// Attributes lists the known attributes. Policies may only reference
	// attributes declared here.
	Attributes []AttributeConfig `yaml:"attributes"`
}

// AttributeConfig declares one dictionary attribute.
type AttributeConfig struct {
	// Name is the attribute name, e.g. "User-Name".
	Name string `yaml:"name"`

	// Number is the attribute's numeric identifier.
	Number uint32 `yaml:"number"`

	// Type is the declared value type: string, octets, bool, uint32,
	// uint64, int64, float64, ipaddr or date.
	Type string `yaml:"type"`
}

// PolicyConfig configures the policy source.
type PolicyConfig struct {
	// Path is the policy file or directory.
	Path string `yaml:"path"`

	// Watch enables hot reload on file changes.
	// Default: true
	Watch *bool `yaml:"watch"`

	// WatchDebounce is the quiet period before a reload triggers.
	// Default: 100ms
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	// MaxDepth is the maximum condition nesting depth.
	// Default: 32
	MaxDepth int `yaml:"max_depth"`

	// MaxFileSize is the maximum policy file size in bytes.
	// Default: 1MB
	MaxFileSize int64 `yaml:"max_file_size"`
}

// SessionConfig configures the session store.
type SessionConfig struct {
	// DBPath is the SQLite database file for active sessions.
	// Default: "data/sessions.db"
	DBPath string `yaml:"db_path"`

	// StaleAfter is the age past which sessions without a stop are swept.
	// Default: 24h
	StaleAfter time.Duration `yaml:"stale_after"`
}

// AccountingConfig configures evaluation accounting.
type AccountingConfig struct {
	// Enabled turns accounting on.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// DBPath is the SQLite database file for accounting records.
	// Default: "data/accounting.db"
	DBPath string `yaml:"db_path"`

	// AsyncBuffer is the recorder's channel buffer size.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds each storage write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// RetentionDays is how many days of records to keep; 0 keeps forever.
	// Default: 90
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is the cron expression for retention pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig configures observability.
type TelemetryConfig struct {
	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled exposes /metrics on the server address.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Namespace prefixes every metric name.
	// Default: "janus"
	Namespace string `yaml:"namespace"`
}
