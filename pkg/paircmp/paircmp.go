// Package paircmp implements the legacy pair-comparator registry. A pair
// comparator defines the semantics of a "virtual" attribute: one whose value
// is computed by a function over the whole request rather than stored on it
// (Simultaneous-Use being the classic example). The condition engine routes
// comparisons against such attributes here instead of using generic typed
// comparison.
package paircmp

import (
	"context"
	"fmt"
	"sync"

	"mercator-hq/janus/pkg/radius/request"
)

// CompareFunc evaluates one check pair against a request. Following the
// legacy convention it returns 0 for match and nonzero for no match; an
// error aborts the evaluation.
type CompareFunc func(ctx context.Context, req *request.Request, check *request.Pair) (int, error)

// Registry maps attribute names to their comparators. Registration happens
// at startup; Compare is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byAttr map[string]CompareFunc
}

// NewRegistry returns an empty comparator registry.
func NewRegistry() *Registry {
	return &Registry{byAttr: make(map[string]CompareFunc)}
}

// Register installs a comparator for an attribute name, replacing any
// previous one.
func (r *Registry) Register(attrName string, fn CompareFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byAttr[attrName] = fn
}

// Find returns the comparator registered for an attribute name, or nil.
func (r *Registry) Find(attrName string) CompareFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byAttr[attrName]
}

// Compare evaluates a list of check pairs against the request. Every check
// pair must have a registered comparator. The result is 0 if all checks
// match, or the first nonzero comparator result.
func (r *Registry) Compare(ctx context.Context, req *request.Request, checks request.List) (int, error) {
	for _, check := range checks {
		fn := r.Find(check.Attr.Name)
		if fn == nil {
			return -1, fmt.Errorf("no comparator registered for attribute %q", check.Attr.Name)
		}
		rcode, err := fn(ctx, req, check)
		if err != nil {
			return -1, err
		}
		if rcode != 0 {
			return rcode, nil
		}
	}
	return 0, nil
}
