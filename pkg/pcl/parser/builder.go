package parser

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"mercator-hq/janus/pkg/pcl/ast"
	"mercator-hq/janus/pkg/paircmp"
	"mercator-hq/janus/pkg/radius/dict"
	"mercator-hq/janus/pkg/radius/value"
)

// builder constructs condition trees from intermediate YAML structures. It
// resolves attribute names, coerces literals, precompiles regexes and tags
// virtual-attribute comparisons.
type builder struct {
	sourcePath  string
	dict        *dict.Dictionary
	comparators *paircmp.Registry
	maxDepth    int
}

// buildPolicy transforms a yamlPolicy into an ast.Policy.
func (b *builder) buildPolicy(yp *yamlPolicy) (*ast.Policy, error) {
	if yp.Name == "" {
		return nil, fmt.Errorf("policy name is required")
	}
	if yp.When == nil {
		return nil, fmt.Errorf("policy %q has no when condition", yp.Name)
	}

	when, err := b.buildCondition(yp.When, 0)
	if err != nil {
		return nil, fmt.Errorf("policy %q: %w", yp.Name, err)
	}

	return &ast.Policy{
		Name:        yp.Name,
		Description: yp.Description,
		When:        when,
		SourceFile:  b.sourcePath,
	}, nil
}

// buildCondition transforms one yamlCondition into a node. Composite
// conditions come back wrapped in a child node so negation and chaining
// treat them as a unit.
func (b *builder) buildCondition(yc *yamlCondition, depth int) (*ast.Node, error) {
	if depth > b.maxDepth {
		return nil, fmt.Errorf("condition nesting exceeds maximum depth %d", b.maxDepth)
	}

	if err := checkVariants(yc); err != nil {
		return nil, err
	}

	var (
		n   *ast.Node
		err error
	)
	switch {
	case yc.All != nil:
		n, err = b.buildComposite(yc.All, ast.LinkAnd, depth)

	case yc.Any != nil:
		n, err = b.buildComposite(yc.Any, ast.LinkOr, depth)

	case yc.Not != nil:
		n, err = b.buildCondition(yc.Not, depth+1)
		if err == nil {
			n.Negate = !n.Negate
		}

	case yc.Exists != nil:
		n, err = b.buildExists(yc.Exists)

	case yc.RCode != "":
		rc, ok := ast.ParseReturnCode(yc.RCode)
		if !ok {
			return nil, fmt.Errorf("unknown return code %q", yc.RCode)
		}
		n = ast.ReturnCodeNode(rc)

	case yc.Const != nil:
		n = ast.BoolNode(*yc.Const)

	default:
		n, err = b.buildMap(yc)
	}
	if err != nil {
		return nil, err
	}

	if yc.Negate {
		n.Negate = !n.Negate
	}
	return n, nil
}

// buildComposite builds an all/any block: each child becomes a node, the
// chain is linked with the matching markers and wrapped as a subtree.
func (b *builder) buildComposite(children []yamlCondition, link func(...*ast.Node) *ast.Node, depth int) (*ast.Node, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("empty condition block")
	}

	nodes := make([]*ast.Node, 0, len(children))
	for i := range children {
		child, err := b.buildCondition(&children[i], depth+1)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		nodes = append(nodes, child)
	}

	return ast.ChildNode(link(nodes...)), nil
}

// buildExists builds a bare truth-test node from an attribute or list
// reference.
func (b *builder) buildExists(yo *yamlOperand) (*ast.Node, error) {
	t, err := b.buildOperand(yo)
	if err != nil {
		return nil, err
	}
	switch t.Kind {
	case ast.TemplateAttr, ast.TemplateList, ast.TemplateXlat, ast.TemplateExec:
		return ast.TemplateNode(t), nil
	}
	return nil, fmt.Errorf("exists requires an attribute, list or expansion, not %s", t.Kind)
}

// buildMap builds a comparison node from lhs/op/rhs.
func (b *builder) buildMap(yc *yamlCondition) (*ast.Node, error) {
	if yc.LHS == nil || yc.Op == "" || yc.RHS == nil {
		return nil, fmt.Errorf("comparison requires lhs, op and rhs")
	}

	op := ast.Operator(yc.Op)
	negate := false
	if yc.Op == "!~" {
		// Regex non-match is a negated match.
		op = ast.OperatorRegexMatch
		negate = true
	}
	if !op.Valid() {
		return nil, fmt.Errorf("unknown operator %q", yc.Op)
	}

	lhs, err := b.buildOperand(yc.LHS)
	if err != nil {
		return nil, fmt.Errorf("lhs: %w", err)
	}
	rhs, err := b.buildOperand(yc.RHS)
	if err != nil {
		return nil, fmt.Errorf("rhs: %w", err)
	}

	if op == ast.OperatorRegexMatch {
		if rhs.Kind != ast.TemplateRegex && rhs.Kind != ast.TemplateRegexXlat &&
			rhs.Kind != ast.TemplateData && rhs.Kind != ast.TemplateXlat && rhs.Kind != ast.TemplateExec {
			return nil, fmt.Errorf("%q requires a pattern on the right side", yc.Op)
		}
	} else if rhs.Kind == ast.TemplateRegex || rhs.Kind == ast.TemplateRegexXlat {
		return nil, fmt.Errorf("regex pattern requires the %q operator", ast.OperatorRegexMatch)
	}

	n := ast.MapNode(lhs, op, rhs)
	n.Negate = negate

	// Comparisons against a registered virtual attribute go through the
	// pair-comparator path instead of generic typed comparison.
	if b.comparators != nil && lhs.IsAttr() && op != ast.OperatorRegexMatch &&
		b.comparators.Find(lhs.Attr.Name) != nil {
		n.Fixup = ast.FixupPairCompare
	}

	return n, nil
}

// buildOperand transforms one operand spec into a template.
func (b *builder) buildOperand(yo *yamlOperand) (*ast.Template, error) {
	cast := value.TypeInvalid
	if yo.Cast != "" {
		var err error
		if cast, err = value.ParseType(yo.Cast); err != nil {
			return nil, err
		}
	}

	set := 0
	for _, present := range []bool{yo.Attr != "", yo.List != "", yo.Xlat != "", yo.Exec != "", yo.Regex != "", !yo.Value.IsZero()} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("operand needs exactly one of attr, list, xlat, exec, regex or value")
	}

	switch {
	case yo.Attr != "":
		list, name, err := splitAttrRef(yo.Attr)
		if err != nil {
			return nil, err
		}
		attr := b.dict.Lookup(name)
		if attr == nil {
			return nil, fmt.Errorf("unknown attribute %q", name)
		}
		return &ast.Template{Kind: ast.TemplateAttr, Attr: attr, List: list, Cast: cast}, nil

	case yo.List != "":
		list, err := parseListRef(yo.List)
		if err != nil {
			return nil, err
		}
		return &ast.Template{Kind: ast.TemplateList, List: list, Cast: cast}, nil

	case yo.Xlat != "":
		return &ast.Template{Kind: ast.TemplateXlat, Xlat: yo.Xlat, Cast: cast}, nil

	case yo.Exec != "":
		return &ast.Template{Kind: ast.TemplateExec, Xlat: yo.Exec, Cast: cast}, nil

	case yo.Regex != "":
		flags, err := parseRegexFlags(yo.Flags)
		if err != nil {
			return nil, err
		}
		// Patterns with expansions compile at evaluation time, after
		// substituted values are escaped.
		if strings.Contains(yo.Regex, "%{") {
			return &ast.Template{Kind: ast.TemplateRegexXlat, Xlat: yo.Regex, RegexFlags: flags}, nil
		}
		re, err := ast.CompileRegex(yo.Regex, flags)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", yo.Regex, err)
		}
		return &ast.Template{Kind: ast.TemplateRegex, Regex: re}, nil
	}

	return b.buildLiteral(&yo.Value, cast)
}

// buildLiteral decodes a YAML scalar into a typed literal template. A
// load-time cast is applied here, so literals never reach the evaluator with
// an unconsumed cast.
func (b *builder) buildLiteral(node *yaml.Node, cast value.Type) (*ast.Template, error) {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return nil, err
	}

	var box value.Box
	switch v := raw.(type) {
	case string:
		box = value.NewString(v)
	case bool:
		box = value.NewBool(v)
	case int:
		box = value.NewInt64(int64(v))
	case int64:
		box = value.NewInt64(v)
	case uint64:
		box = value.NewUint64(v)
	case float64:
		box = value.NewFloat64(v)
	default:
		return nil, fmt.Errorf("unsupported literal type %T", raw)
	}

	if cast != value.TypeInvalid && cast != box.Type {
		castBox, err := value.Cast(box, cast)
		if err != nil {
			return nil, fmt.Errorf("literal %s does not cast to %s: %w", box, cast, err)
		}
		box = castBox
	}

	return &ast.Template{Kind: ast.TemplateData, Data: box}, nil
}

// checkVariants rejects conditions mixing more than one variant group.
func checkVariants(yc *yamlCondition) error {
	set := 0
	for _, present := range []bool{
		yc.All != nil,
		yc.Any != nil,
		yc.Not != nil,
		yc.Exists != nil,
		yc.RCode != "",
		yc.Const != nil,
		yc.LHS != nil || yc.Op != "" || yc.RHS != nil,
	} {
		if present {
			set++
		}
	}
	if set > 1 {
		return fmt.Errorf("condition mixes multiple forms")
	}
	if set == 0 {
		return fmt.Errorf("empty condition")
	}
	return nil
}

// splitAttrRef splits "reply.Framed-IP-Address" into a list qualifier and an
// attribute name. Unqualified names search the request list.
func splitAttrRef(ref string) (ast.PairListRef, string, error) {
	qual, name, found := strings.Cut(ref, ".")
	if !found {
		return ast.ListRequest, ref, nil
	}
	list, err := parseListRef(qual)
	if err != nil {
		return "", "", err
	}
	return list, name, nil
}

// parseListRef validates a pair-list name.
func parseListRef(s string) (ast.PairListRef, error) {
	switch ast.PairListRef(s) {
	case ast.ListRequest, ast.ListReply, ast.ListControl:
		return ast.PairListRef(s), nil
	}
	return "", fmt.Errorf("unknown pair list %q", s)
}

// parseRegexFlags parses a pattern modifier string ("i", "m", "im").
func parseRegexFlags(s string) (ast.RegexFlags, error) {
	var flags ast.RegexFlags
	for _, c := range s {
		switch c {
		case 'i':
			flags.IgnoreCase = true
		case 'm':
			flags.Multiline = true
		default:
			return ast.RegexFlags{}, fmt.Errorf("unknown regex flag %q", string(c))
		}
	}
	return flags, nil
}
