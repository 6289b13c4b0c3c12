package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"mercator-hq/janus/pkg/pcl/ast"
	"mercator-hq/janus/pkg/pcl/parser"
)

// FileSource loads PCL policies from YAML files on disk. The path can be a
// single file or a directory; for a directory every .yaml and .yml file is
// loaded.
type FileSource struct {
	path   string
	parser *parser.Parser
	logger *slog.Logger
}

// NewFileSource creates a file-based policy source.
func NewFileSource(path string, p *parser.Parser, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:   path,
		parser: p,
		logger: logger.With("component", "policy-source"),
	}
}

// LoadPolicies loads all policies from the configured path.
func (s *FileSource) LoadPolicies(ctx context.Context) ([]*ast.Policy, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %q: %w", s.path, err)
	}

	var policies []*ast.Policy
	if info.IsDir() {
		policies, err = s.loadDirectory(ctx)
	} else {
		policies, err = s.parser.Parse(s.path)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("loaded policies from source",
		"path", s.path,
		"policy_count", len(policies),
	)
	return policies, nil
}

// loadDirectory loads every policy file under a directory. A file that fails
// to parse is skipped with a warning rather than failing the whole load.
func (s *FileSource) loadDirectory(ctx context.Context) ([]*ast.Policy, error) {
	var policies []*ast.Policy

	err := filepath.Walk(s.path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		loaded, err := s.parser.Parse(path)
		if err != nil {
			s.logger.Warn("failed to load policy file, skipping",
				"path", path,
				"error", err,
			)
			return nil
		}

		s.logger.Debug("loaded policy file",
			"path", path,
			"policy_count", len(loaded),
		)
		policies = append(policies, loaded...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %q: %w", s.path, err)
	}

	return policies, nil
}
