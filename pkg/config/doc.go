// Package config holds the Janus server configuration.
//
// Configuration is a single YAML file loaded with LoadConfig, which applies
// defaults and validates before returning. Environment variables of the form
// JANUS_SECTION_FIELD override file values for a small set of operational
// knobs (listen address, policy path, database paths).
package config
