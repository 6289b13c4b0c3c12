package parser

import (
	"fmt"
	"os"

	"mercator-hq/janus/pkg/pcl/ast"
	"mercator-hq/janus/pkg/paircmp"
	"mercator-hq/janus/pkg/radius/dict"
)

// Parser loads PCL policy files into condition trees. Attribute references
// resolve against the dictionary given at construction; an optional
// comparator registry marks virtual-attribute comparisons for the
// pair-comparator path.
type Parser struct {
	dict        *dict.Dictionary
	comparators *paircmp.Registry
	maxFileSize int64
	maxDepth    int
}

// NewParser creates a parser with default limits.
func NewParser(d *dict.Dictionary) *Parser {
	return &Parser{
		dict:        d,
		maxFileSize: 1 * 1024 * 1024, // 1MB
		maxDepth:    32,
	}
}

// WithComparators sets the registry consulted to tag virtual-attribute
// comparisons.
func (p *Parser) WithComparators(r *paircmp.Registry) *Parser {
	p.comparators = r
	return p
}

// WithMaxFileSize sets the maximum policy file size.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	p.maxFileSize = size
	return p
}

// WithMaxDepth sets the maximum condition nesting depth.
func (p *Parser) WithMaxDepth(depth int) *Parser {
	p.maxDepth = depth
	return p
}

// Parse loads every policy in the file at path.
func (p *Parser) Parse(path string) ([]*ast.Policy, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access policy file: %w", err)
	}
	if info.Size() > p.maxFileSize {
		return nil, fmt.Errorf("policy file %s: size %d exceeds maximum %d bytes", path, info.Size(), p.maxFileSize)
	}

	f, err := parseYAMLFile(path)
	if err != nil {
		return nil, fmt.Errorf("policy file %s: %w", path, err)
	}
	return p.build(f, path)
}

// ParseBytes loads policies from YAML in memory. The sourcePath only labels
// diagnostics.
func (p *Parser) ParseBytes(data []byte, sourcePath string) ([]*ast.Policy, error) {
	if int64(len(data)) > p.maxFileSize {
		return nil, fmt.Errorf("policy data %s: size %d exceeds maximum %d bytes", sourcePath, len(data), p.maxFileSize)
	}

	f, err := parseYAMLBytes(data)
	if err != nil {
		return nil, fmt.Errorf("policy data %s: %w", sourcePath, err)
	}
	return p.build(f, sourcePath)
}

func (p *Parser) build(f *yamlFile, sourcePath string) ([]*ast.Policy, error) {
	if len(f.Policies) == 0 {
		return nil, fmt.Errorf("policy file %s: no policies defined", sourcePath)
	}

	b := &builder{
		sourcePath:  sourcePath,
		dict:        p.dict,
		comparators: p.comparators,
		maxDepth:    p.maxDepth,
	}

	seen := make(map[string]bool, len(f.Policies))
	policies := make([]*ast.Policy, 0, len(f.Policies))
	for i := range f.Policies {
		policy, err := b.buildPolicy(&f.Policies[i])
		if err != nil {
			return nil, fmt.Errorf("policy file %s: %w", sourcePath, err)
		}
		if seen[policy.Name] {
			return nil, fmt.Errorf("policy file %s: duplicate policy name %q", sourcePath, policy.Name)
		}
		seen[policy.Name] = true
		policies = append(policies, policy)
	}
	return policies, nil
}
