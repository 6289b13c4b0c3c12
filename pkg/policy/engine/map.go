package engine

import (
	"context"
	"fmt"

	"mercator-hq/janus/pkg/pcl/ast"
	"mercator-hq/janus/pkg/radius/request"
	"mercator-hq/janus/pkg/radius/value"
)

// evalMap evaluates one comparison node.
//
// The fast path realizes both templates; when both sides produce a concrete
// value the comparison happens immediately. When either side defers (an
// attribute, list or precompiled-regex reference) the evaluation falls back
// to iterating the left side's attribute instances, comparing each through
// the normalizer until one matches. A multi-valued attribute therefore
// satisfies the condition if any of its instances does, on either side.
func (e *Evaluator) evalMap(ctx context.Context, req *request.Request, c *ast.Node) (bool, error) {
	m := c.Map

	if m.LHS.Kind == ast.TemplateUnresolved || m.RHS.Kind == ast.TemplateUnresolved {
		return false, structuralf("map %s has an unresolved operand", describeMap(m))
	}

	lhs, err := e.realizeTemplate(ctx, req, m.LHS, m.RHS)
	if err != nil {
		return false, fmt.Errorf("failed evaluating left side of condition: %w", err)
	}
	rhs, err := e.realizeTemplate(ctx, req, m.RHS, m.LHS)
	if err != nil {
		return false, fmt.Errorf("failed evaluating right side of condition: %w", err)
	}

	if lhs != nil && rhs != nil {
		return e.normalizeValues(ctx, req, c, &lhs.box, &rhs.box)
	}

	switch m.LHS.Kind {
	case ast.TemplateList, ast.TemplateAttr:
		// A paircompare map never iterates the virtual attribute; the
		// registered comparator defines its semantics.
		if c.Fixup == ast.FixupPairCompare && m.Op != ast.OperatorRegexMatch {
			return e.normalizeAndCompare(ctx, req, c, nil)
		}

		for _, vp := range req.PairsMatching(m.LHS) {
			matched, err := e.normalizeAndCompare(ctx, req, c, &vp.Value)
			if err != nil {
				return false, err
			}
			if matched {
				return true, nil
			}
		}
		return false, nil

	case ast.TemplateData:
		box := m.LHS.Data
		return e.normalizeAndCompare(ctx, req, c, &box)

	case ast.TemplateExec, ast.TemplateXlat:
		out, err := e.expander.Expand(ctx, req, m.LHS, nil)
		if err != nil {
			return false, &ExpansionError{Template: m.LHS.Xlat, Cause: err}
		}
		box := value.NewString(out)
		return e.normalizeAndCompare(ctx, req, c, &box)
	}

	return false, structuralf("template kind %s cannot be the left side of a map", m.LHS.Kind)
}

// describeMap renders a map for error messages.
func describeMap(m *ast.Map) string {
	return fmt.Sprintf("%s %s %s", m.LHS.Describe(), m.Op, m.RHS.Describe())
}
