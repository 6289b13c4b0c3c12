// Janus is a policy condition server for network access control.
//
// It loads attribute-based policies written in PCL (Policy Condition
// Language), evaluates them against incoming requests and records the
// verdicts:
//   - Typed attribute comparison with explicit casts
//   - Regular expression matching with capture slots
//   - Virtual attributes backed by pair comparators (Simultaneous-Use)
//   - Hot policy reload on file changes
//   - SQLite-backed session tracking and evaluation accounting
//
// Usage:
//
//	# Start server with default configuration
//	janus run
//
//	# Start with custom configuration file
//	janus run --config /path/to/config.yaml
//
//	# Show version information
//	janus version
//
//	# Validate policy files
//	janus lint --file policies.yaml
package main

func main() {
	Execute()
}
