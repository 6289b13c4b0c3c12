package engine

import (
	"context"
	"log/slog"
	"time"

	"mercator-hq/janus/pkg/paircmp"
	"mercator-hq/janus/pkg/pcl/ast"
	"mercator-hq/janus/pkg/radius/request"
	"mercator-hq/janus/pkg/telemetry/metrics"
	"mercator-hq/janus/pkg/xlat"
)

// Evaluator evaluates PCL condition trees against requests. It is stateless
// between calls and safe for concurrent use; all per-evaluation state lives
// on the request being evaluated.
type Evaluator struct {
	expander    xlat.Expander
	comparators *paircmp.Registry
	logger      *slog.Logger
	metrics     *metrics.EvaluationMetrics
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the evaluator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) { e.logger = logger }
}

// WithComparators sets the pair-comparator registry consulted for
// PairCompare maps.
func WithComparators(r *paircmp.Registry) Option {
	return func(e *Evaluator) { e.comparators = r }
}

// WithMetrics enables Prometheus instrumentation of evaluations.
func WithMetrics(m *metrics.EvaluationMetrics) Option {
	return func(e *Evaluator) { e.metrics = m }
}

// New creates an evaluator. The expander resolves exec/xlat templates; it
// may block (e.g. issuing a sub-request), in which case cancellation policy
// belongs to it, not to the evaluator.
func New(expander xlat.Expander, opts ...Option) *Evaluator {
	e := &Evaluator{
		expander:    expander,
		comparators: paircmp.NewRegistry(),
		logger:      slog.Default().With("component", "policy.engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate walks a condition tree against a request and returns the verdict.
// prior is the previous module's return code, matched by KindReturnCode
// nodes. On error the walk stops immediately: no negation is applied and no
// further nodes are visited.
func (e *Evaluator) Evaluate(ctx context.Context, req *request.Request, cond *ast.Node, prior ast.ReturnCode) (bool, error) {
	start := time.Now()

	matched, err := e.eval(ctx, req, cond, prior)

	e.metrics.RecordEvaluation(matched, failureKind(err), time.Since(start))
	if err != nil {
		e.logger.Debug("condition evaluation failed",
			"request_id", req.ID,
			"error", err,
		)
		return false, err
	}

	e.logger.Debug("condition evaluated",
		"request_id", req.ID,
		"matched", matched,
		"duration", time.Since(start),
	)
	return matched, nil
}

// eval is the iterative tree walk. The tree is logically recursive but the
// walk uses the explicit parent back-references and forward chains instead
// of the call stack, so arbitrarily deep nesting cannot overflow it.
func (e *Evaluator) eval(ctx context.Context, req *request.Request, c *ast.Node, prior ast.ReturnCode) (bool, error) {
	result := false
	depth := 0

	for c != nil {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		var err error
		switch c.Kind {
		case ast.KindTemplate:
			result, err = e.evalTemplate(ctx, req, c.Template)

		case ast.KindReturnCode:
			result = c.ReturnCode == prior

		case ast.KindMap:
			result, err = e.evalMap(ctx, req, c)

		case ast.KindChild:
			// Descend without consuming a chain step.
			depth++
			c = c.Child
			continue

		case ast.KindTrue:
			result = true

		case ast.KindFalse:
			result = false

		default:
			return false, structuralf("node kind %s cannot be evaluated", c.Kind)
		}

		if err != nil {
			return false, err
		}

		// Negation applies to the node's own result, never to errors.
		if c.Negate {
			result = !result
		}

	advance:
		for {
			// Fallen off the end of this chain: climb until a sibling
			// exists. Each wrapper climbed through applies its own
			// negation. Running out of parents ends the walk.
			for c.Next == nil {
				if c.Parent == nil {
					return result, nil
				}
				c = c.Parent
				if c.Negate {
					result = !result
				}
				depth--
				if depth < 0 {
					return false, structuralf("parent links escape the tree root")
				}
			}

			// Short-circuit on the marker between this node and the next.
			switch c.Next.Kind {
			case ast.KindAnd:
				if !result {
					if c.Parent == nil {
						return result, nil
					}
					c = c.Parent
					if c.Negate {
						result = !result
					}
					depth--
					continue advance
				}
				c = c.Next.Next // skip the &&

			case ast.KindOr:
				if result {
					if c.Parent == nil {
						return result, nil
					}
					c = c.Parent
					if c.Negate {
						result = !result
					}
					depth--
					continue advance
				}
				c = c.Next.Next // skip the ||

			default:
				c = c.Next
			}
			break
		}
	}

	return result, nil
}

// evalTemplate evaluates a bare (non-map) template as a truth test: an
// attribute or list reference is true when at least one matching instance
// exists; an exec/xlat is true when its expansion is non-empty.
func (e *Evaluator) evalTemplate(ctx context.Context, req *request.Request, t *ast.Template) (bool, error) {
	switch t.Kind {
	case ast.TemplateAttr, ast.TemplateList:
		return len(req.PairsMatching(t)) > 0, nil

	case ast.TemplateExec, ast.TemplateXlat:
		out, err := e.expander.Expand(ctx, req, t, nil)
		if err != nil {
			return false, &ExpansionError{Template: t.Xlat, Cause: err}
		}
		return out != "", nil
	}

	// Bare regexes and literals never survive parsing; anything else here
	// means the loader is broken.
	return false, structuralf("template kind %s cannot be a truth test", t.Kind)
}
