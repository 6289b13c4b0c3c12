package engine

import (
	"context"
	"fmt"
	"regexp"

	"mercator-hq/janus/pkg/pcl/ast"
	"mercator-hq/janus/pkg/radius/request"
	"mercator-hq/janus/pkg/radius/value"
)

// MaxRegexCaptures is the number of capture slots reserved when a pattern
// does not report its own sub-group count. Slot 0 holds the whole match.
const MaxRegexCaptures = 32

// compareValues dispatches a comparison between two same-typed operands to
// the right strategy: regex match (with capture publishing), a registered
// pair comparator, or generic typed comparison.
func (e *Evaluator) compareValues(ctx context.Context, req *request.Request, c *ast.Node, lhs, rhs *value.Box) (bool, error) {
	m := c.Map

	if m.Op == ast.OperatorRegexMatch {
		return e.compareRegex(req, c, lhs, rhs)
	}

	if c.Fixup == ast.FixupPairCompare {
		if !m.LHS.IsAttr() {
			return false, structuralf("paircompare map %s has non-attribute left side", describeMap(m))
		}
		if rhs == nil {
			return false, structuralf("paircompare map %s has no right-hand value", describeMap(m))
		}

		// The comparator sees a synthetic singleton list: a copy of the
		// right-hand value tagged with the map's operator and the virtual
		// attribute's identity.
		check := &request.Pair{Attr: m.LHS.Attr, Op: m.Op, Value: *rhs}
		rcode, err := e.comparators.Compare(ctx, req, request.List{check})
		if err != nil {
			return false, &PairCompareError{Attr: m.LHS.Attr.Name, Cause: err}
		}
		return rcode == 0, nil
	}

	if lhs == nil || rhs == nil {
		return false, structuralf("map %s is missing an operand", describeMap(m))
	}
	return applyOperator(m.Op, *lhs, *rhs)
}

// compareRegex matches the left operand against a pattern: the right
// template's precompiled one, or a pattern compiled now from the realized
// right-hand string. On match the captured substrings are published to the
// request's capture slots; on no-match any previous captures are cleared.
func (e *Evaluator) compareRegex(req *request.Request, c *ast.Node, lhs, rhs *value.Box) (bool, error) {
	m := c.Map

	if lhs == nil || lhs.Type != value.TypeString {
		return false, structuralf("regex subject in %s is not a string", describeMap(m))
	}

	var re *regexp.Regexp
	if m.RHS.Kind == ast.TemplateRegex {
		re = m.RHS.Regex.Compiled()
	} else {
		if rhs == nil || rhs.Type != value.TypeString {
			return false, structuralf("regex pattern in %s is not a string", describeMap(m))
		}
		pattern := rhs.Data.(string)
		compiled, err := ast.CompileRegex(pattern, m.RHS.RegexFlags)
		if err != nil {
			return false, &RegexCompileError{Pattern: pattern, Cause: err}
		}
		re = compiled.Compiled()
	}

	// Slot count comes from the engine-reported sub-group count, with a
	// fixed fallback when the pattern reports none.
	slots := re.NumSubexp() + 1
	if re.NumSubexp() == 0 {
		slots = MaxRegexCaptures + 1
	}

	subject := lhs.Data.(string)
	groups := re.FindStringSubmatch(subject)
	if groups == nil {
		e.logger.Debug("regex no match, clearing captures", "pattern", re.String())
		req.Captures.Clear()
		return false, nil
	}

	published := make([]string, slots)
	copy(published, groups)
	req.Captures.Publish(published)
	e.logger.Debug("regex matched, publishing captures",
		"pattern", re.String(),
		"captures", len(groups),
	)
	return true, nil
}

// applyOperator applies a comparison operator to two operands of the same
// type, using the generic typed-value primitives.
func applyOperator(op ast.Operator, a, b value.Box) (bool, error) {
	switch op {
	case ast.OperatorEqual:
		return value.Equal(a, b)

	case ast.OperatorNotEqual:
		eq, err := value.Equal(a, b)
		return !eq, err

	case ast.OperatorLessThan:
		cmp, err := value.Compare(a, b)
		return cmp < 0, err

	case ast.OperatorGreaterThan:
		cmp, err := value.Compare(a, b)
		return cmp > 0, err

	case ast.OperatorLessEqual:
		cmp, err := value.Compare(a, b)
		return cmp <= 0, err

	case ast.OperatorGreaterEqual:
		cmp, err := value.Compare(a, b)
		return cmp >= 0, err
	}

	return false, fmt.Errorf("operator %q undefined for type %s", op, a.Type)
}
