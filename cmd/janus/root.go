package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "janus",
	Short: "Janus - policy condition server for network access control",
	Long: `Janus evaluates attribute-based access policies for network access
servers.

Policies are written in PCL (Policy Condition Language) and evaluated
against the attribute lists of each request:
  - Typed attribute comparison with explicit casts
  - Regular expression matching with capture slots
  - Virtual attributes backed by pair comparators (Simultaneous-Use)
  - Hot policy reload on file changes
  - SQLite-backed session tracking and evaluation accounting`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
