package engine

import (
	"context"

	"mercator-hq/janus/pkg/pcl/ast"
	"mercator-hq/janus/pkg/radius/request"
	"mercator-hq/janus/pkg/radius/value"
	"mercator-hq/janus/pkg/xlat"
)

// realized is a template resolved to a concrete typed value. Owned
// distinguishes values produced for this evaluation from values that alias
// storage embedded in the condition tree; aliased boxes must never be
// mutated.
type realized struct {
	box   value.Box
	owned bool
}

// realizeTemplate resolves a template to a concrete value when that is
// possible without iterating the request's attributes.
//
// Attribute references, list references and precompiled regexes return
// (nil, nil): they are deferred to the per-instance iteration path. Literals
// resolve to their (aliased) value. Exec, xlat and regex-xlat templates are
// expanded and then cast toward a target type chosen from, in priority
// order: this template's explicit cast, the sibling's explicit cast, the
// sibling's declared attribute type, the sibling's literal type, and finally
// string.
func (e *Evaluator) realizeTemplate(ctx context.Context, req *request.Request, in, other *ast.Template) (*realized, error) {
	var escape xlat.EscapeFunc

	switch in.Kind {
	case ast.TemplateList, ast.TemplateRegex, ast.TemplateAttr:
		return nil, nil

	case ast.TemplateData:
		// The loader consumes casts on literals by converting the value;
		// one left over means it did not run.
		if in.Cast != value.TypeInvalid && in.Cast != in.Data.Type {
			return nil, structuralf("literal %s carries unconsumed cast to %s", in.Describe(), in.Cast)
		}
		return &realized{box: in.Data, owned: false}, nil

	case ast.TemplateRegexXlat:
		escape = regexEscape
		fallthrough

	case ast.TemplateExec, ast.TemplateXlat:
		out, err := e.expander.Expand(ctx, req, in, escape)
		if err != nil {
			return nil, &ExpansionError{Template: in.Xlat, Cause: err}
		}

		castType := value.TypeString
		switch {
		case in.Cast != value.TypeInvalid:
			castType = in.Cast
		case other.Cast != value.TypeInvalid:
			castType = other.Cast
		case other.Kind == ast.TemplateAttr:
			castType = other.Attr.Type
		case other.Kind == ast.TemplateData:
			castType = other.Data.Type
		}

		box := value.NewString(out)
		if castType != box.Type {
			box, err = value.Cast(box, castType)
			if err != nil {
				return nil, &CastError{From: value.TypeString, To: castType, Cause: err}
			}
		}
		return &realized{box: box, owned: true}, nil
	}

	return nil, structuralf("template kind %s cannot be realized", in.Kind)
}
