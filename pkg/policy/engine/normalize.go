package engine

import (
	"context"

	"mercator-hq/janus/pkg/pcl/ast"
	"mercator-hq/janus/pkg/radius/request"
	"mercator-hq/janus/pkg/radius/value"
	"mercator-hq/janus/pkg/xlat"
)

// selectCastType chooses the single comparison type for a map. First
// applicable rule wins:
//
//  1. regex match compares strings
//  2. paircompare maps use the virtual attribute's declared type
//  3. explicit cast on the left template
//  4. left attribute reference's declared type
//  5. right attribute reference's declared type
//  6. left literal's type, unless string
//  7. right literal's type, unless string
//  8. no forced type (the numeric-string heuristic may still apply)
//
// String-typed literals do not force the type: forcing "string" would be a
// no-op for coercion but would suppress the numeric-string heuristic, and
// two numeric-looking literals are required to compare numerically.
func selectCastType(c *ast.Node) (value.Type, error) {
	m := c.Map

	switch {
	case m.Op == ast.OperatorRegexMatch:
		return value.TypeString, nil

	case c.Fixup == ast.FixupPairCompare:
		if !m.LHS.IsAttr() {
			return value.TypeInvalid, structuralf("paircompare map %s has non-attribute left side", describeMap(m))
		}
		return m.LHS.Attr.Type, nil

	case m.LHS.Cast != value.TypeInvalid:
		return m.LHS.Cast, nil

	case m.LHS.IsAttr():
		return m.LHS.Attr.Type, nil

	case m.RHS.IsAttr():
		return m.RHS.Attr.Type, nil

	case m.LHS.IsData() && m.LHS.Data.Type != value.TypeString:
		return m.LHS.Data.Type, nil

	case m.RHS.IsData() && m.RHS.Data.Type != value.TypeString:
		return m.RHS.Data.Type, nil
	}

	return value.TypeInvalid, nil
}

// allDigits reports whether s is a decimal integer, allowing one leading
// minus sign.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// normalizeValues coerces two concrete operands to the map's comparison type
// and compares them. When no type is forced and both operands are
// numeric-looking strings, they compare as 64-bit integers instead of
// lexicographically ("9" < "10", not "9" > "10").
func (e *Evaluator) normalizeValues(ctx context.Context, req *request.Request, c *ast.Node, lhs, rhs *value.Box) (bool, error) {
	castType, err := selectCastType(c)
	if err != nil {
		return false, err
	}

	if castType == value.TypeInvalid &&
		lhs != nil && lhs.Type == value.TypeString &&
		rhs != nil && rhs.Type == value.TypeString &&
		allDigits(lhs.Data.(string)) && allDigits(rhs.Data.(string)) {
		castType = value.TypeInt64
		e.logger.Debug("operands are number strings, comparing as int64")
	}

	if castType != value.TypeInvalid {
		if lhs, err = castOperand(lhs, castType); err != nil {
			return false, err
		}
		if rhs, err = castOperand(rhs, castType); err != nil {
			return false, err
		}
	}

	return e.compareValues(ctx, req, c, lhs, rhs)
}

// castOperand casts a single operand to the comparison type. A nil operand
// (virtual-attribute left side, or an omitted regex right side) passes
// through.
func castOperand(b *value.Box, to value.Type) (*value.Box, error) {
	if b == nil || b.Type == value.TypeInvalid || b.Type == to {
		return b, nil
	}
	cast, err := value.Cast(*b, to)
	if err != nil {
		return nil, &CastError{From: b.Type, To: to, Cause: err}
	}
	return &cast, nil
}

// normalizeAndCompare resolves the right side of a map and compares it with
// a single left-hand value, casting both to the map's comparison type. It is
// invoked once per candidate left-hand attribute instance; lhs is nil only
// for paircompare maps, where the comparator supplies the left side's
// semantics.
//
// A right-hand attribute reference is resolved existentially: every matching
// instance is compared until one succeeds. A cast failure aborts the whole
// evaluation rather than skipping the instance.
func (e *Evaluator) normalizeAndCompare(ctx context.Context, req *request.Request, c *ast.Node, lhs *value.Box) (bool, error) {
	m := c.Map

	var escape xlat.EscapeFunc
	if m.Op == ast.OperatorRegexMatch && m.RHS.Kind == ast.TemplateRegexXlat {
		escape = regexEscape
	}

	switch m.RHS.Kind {
	case ast.TemplateAttr:
		for _, vp := range req.PairsMatching(m.RHS) {
			matched, err := e.normalizeValues(ctx, req, c, lhs, &vp.Value)
			if err != nil {
				return false, err
			}
			if matched {
				return true, nil
			}
		}
		return false, nil

	case ast.TemplateData:
		box := m.RHS.Data
		return e.normalizeValues(ctx, req, c, lhs, &box)

	case ast.TemplateExec, ast.TemplateXlat, ast.TemplateRegexXlat:
		// Expanded operands start as strings, then get converted to the
		// comparison type like any other.
		out, err := e.expander.Expand(ctx, req, m.RHS, escape)
		if err != nil {
			return false, &ExpansionError{Template: m.RHS.Xlat, Cause: err}
		}
		box := value.NewString(out)
		return e.normalizeValues(ctx, req, c, lhs, &box)

	case ast.TemplateRegex:
		// The pattern is precompiled; only the subject needs coercion.
		return e.normalizeValues(ctx, req, c, lhs, nil)
	}

	return false, structuralf("template kind %s cannot be the right side of a map", m.RHS.Kind)
}
