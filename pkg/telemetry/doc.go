// Package telemetry provides observability for the Janus policy server.
//
// The metrics subpackage exposes Prometheus instrumentation for condition
// evaluation; structured logging uses log/slog configured by the telemetry
// section of the server configuration.
package telemetry
