// Package request holds the per-request mutable state the condition engine
// evaluates against: the attribute pair lists, the regex capture slots, and
// the prior module return code. A Request is owned by exactly one evaluation
// at a time; nothing here is safe for concurrent mutation.
package request

import (
	"github.com/google/uuid"

	"mercator-hq/janus/pkg/pcl/ast"
	"mercator-hq/janus/pkg/radius/dict"
	"mercator-hq/janus/pkg/radius/value"
)

// Pair is a single attribute instance: a dictionary attribute bound to a
// value. Op is only meaningful on synthetic check pairs handed to pair
// comparators.
type Pair struct {
	Attr  *dict.Attribute
	Value value.Box
	Op    ast.Operator
}

// List is an ordered list of attribute pairs. Attributes may appear more
// than once; comparisons against them have existential semantics.
type List []*Pair

// Matching returns the pairs whose attribute is a, in list order.
func (l List) Matching(a *dict.Attribute) []*Pair {
	var out []*Pair
	for _, p := range l {
		if p.Attr == a {
			out = append(out, p)
		}
	}
	return out
}

// First returns the first pair whose attribute is a, or nil.
func (l List) First(a *dict.Attribute) *Pair {
	for _, p := range l {
		if p.Attr == a {
			return p
		}
	}
	return nil
}

// Add appends a pair to the list.
func (l *List) Add(a *dict.Attribute, v value.Box) {
	*l = append(*l, &Pair{Attr: a, Value: v})
}

// Request is one in-flight request being evaluated.
type Request struct {
	// ID uniquely identifies the request for logging and accounting.
	ID string

	// Request, Reply and Control are the attribute pair lists.
	Request List
	Reply   List
	Control List

	// Captures are the regex capture slots, overwritten by every regex
	// evaluation.
	Captures Captures
}

// New returns an empty request with a fresh ID.
func New() *Request {
	return &Request{ID: uuid.NewString()}
}

// List returns the pair list named by ref, or nil for an unknown list.
func (r *Request) List(ref ast.PairListRef) List {
	switch ref {
	case ast.ListRequest, "":
		return r.Request
	case ast.ListReply:
		return r.Reply
	case ast.ListControl:
		return r.Control
	}
	return nil
}

// PairsMatching returns the attribute instances a template refers to, in
// list order. For a list reference it returns the whole list.
func (r *Request) PairsMatching(t *ast.Template) []*Pair {
	switch t.Kind {
	case ast.TemplateAttr:
		return r.List(t.List).Matching(t.Attr)
	case ast.TemplateList:
		return r.List(t.List)
	}
	return nil
}
