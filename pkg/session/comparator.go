package session

import (
	"context"
	"fmt"

	"mercator-hq/janus/pkg/paircmp"
	"mercator-hq/janus/pkg/pcl/ast"
	"mercator-hq/janus/pkg/radius/dict"
	"mercator-hq/janus/pkg/radius/request"
	"mercator-hq/janus/pkg/radius/value"
)

// SimultaneousUseComparator returns a pair comparator answering comparisons
// against the Simultaneous-Use virtual attribute. The check pair's value is
// the session limit; the comparator counts the requesting user's live
// sessions and applies the check's operator to (count, limit).
//
// Following the legacy convention, the comparator returns 0 when the check
// matches and 1 when it does not.
func SimultaneousUseComparator(store *Store, userNameAttr *dict.Attribute) paircmp.CompareFunc {
	return func(ctx context.Context, req *request.Request, check *request.Pair) (int, error) {
		user := req.Request.First(userNameAttr)
		if user == nil {
			return 1, fmt.Errorf("request has no %s attribute", userNameAttr.Name)
		}
		if user.Value.Type != value.TypeString {
			return 1, fmt.Errorf("%s is not a string", userNameAttr.Name)
		}

		count, err := store.CountByUser(ctx, user.Value.Data.(string))
		if err != nil {
			return 1, err
		}

		limitBox, err := value.Cast(check.Value, value.TypeUint64)
		if err != nil {
			return 1, fmt.Errorf("session limit: %w", err)
		}
		limit := limitBox.Data.(uint64)

		op := check.Op
		if op == "" {
			op = ast.OperatorLessEqual
		}

		var matched bool
		switch op {
		case ast.OperatorEqual:
			matched = count == limit
		case ast.OperatorNotEqual:
			matched = count != limit
		case ast.OperatorLessThan:
			matched = count < limit
		case ast.OperatorLessEqual:
			matched = count <= limit
		case ast.OperatorGreaterThan:
			matched = count > limit
		case ast.OperatorGreaterEqual:
			matched = count >= limit
		default:
			return 1, fmt.Errorf("operator %q undefined for session counts", op)
		}

		if matched {
			return 0, nil
		}
		return 1, nil
	}
}
