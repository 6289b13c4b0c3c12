package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"mercator-hq/janus/pkg/config"
	"mercator-hq/janus/pkg/pcl/parser"
)

var lintFlags struct {
	file   string
	dir    string
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate policy files",
	Long: `Validate PCL policy files for syntax and semantic errors.

The lint command parses policy files against the dictionary from the
configuration file and reports:
  - YAML syntax errors
  - Unknown attributes, operators and return codes
  - Operator and operand mismatches (e.g. a regex with a non-regex operator)
  - Invalid literal casts

Examples:
  # Lint single file
  janus lint --file policies.yaml

  # Lint directory
  janus lint --dir policies/

  # JSON output for CI/CD
  janus lint --file policies.yaml --format json`,
	RunE: lintPolicies,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "policy file to validate")
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "directory of policy files")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

// LintResult is the validation outcome for a single policy file.
type LintResult struct {
	File     string `json:"file"`
	Valid    bool   `json:"valid"`
	Policies int    `json:"policies,omitempty"`
	Error    string `json:"error,omitempty"`
}

func lintPolicies(cmd *cobra.Command, args []string) error {
	if lintFlags.file == "" && lintFlags.dir == "" {
		return fmt.Errorf("either --file or --dir must be specified")
	}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}
	d, err := buildDictionary(cfg)
	if err != nil {
		return err
	}
	p := parser.NewParser(d).
		WithMaxDepth(cfg.Policy.MaxDepth).
		WithMaxFileSize(cfg.Policy.MaxFileSize)

	var files []string
	if lintFlags.file != "" {
		files = append(files, lintFlags.file)
	}
	if lintFlags.dir != "" {
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(lintFlags.dir, pattern))
			if err != nil {
				return fmt.Errorf("failed to list policy files: %w", err)
			}
			files = append(files, matches...)
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no policy files found")
	}

	results := make([]LintResult, 0, len(files))
	failed := false
	for _, file := range files {
		result := LintResult{File: file, Valid: true}
		policies, err := p.Parse(file)
		if err != nil {
			result.Valid = false
			result.Error = err.Error()
			failed = true
		} else {
			result.Policies = len(policies)
		}
		results = append(results, result)
	}

	if lintFlags.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Valid {
				fmt.Printf("✓ %s (%d policies)\n", r.File, r.Policies)
			} else {
				fmt.Printf("✗ %s: %s\n", r.File, r.Error)
			}
		}
	}

	if failed {
		return fmt.Errorf("validation failed")
	}
	return nil
}
