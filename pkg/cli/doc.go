/*
Package cli provides command-line interface utilities for Janus.

The cli package includes typed command errors and signal handling helpers
used by the janus command.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	// Use ctx for operations that should be cancelled on shutdown
*/
package cli
