// Package engine evaluates PCL condition trees against in-flight requests,
// producing the match/no-match/error verdict that gates authorization and
// accounting decisions.
//
// # Architecture
//
// Evaluation is split into four cooperating pieces:
//
//  1. Template realizer - resolves a template to a concrete typed value when
//     possible, or defers attribute/list/regex references to iteration
//  2. Type normalizer - chooses the single comparison type for a map and
//     coerces both operands to it
//  3. Value comparator - dispatches among regex match (publishing capture
//     slots), registered pair comparators, and generic typed comparison
//  4. Tree walker - drives the above per node, applies negation, and
//     short-circuits AND/OR chains
//
// # Evaluation Flow
//
//	Evaluate(request, tree, prior rcode)
//	       ↓
//	walk one node at a time (iterative, parent back-references)
//	  map node → realize both sides
//	    both concrete → normalize types → compare
//	    either deferred → iterate matching attribute instances,
//	                      normalize+compare each until one matches
//	  template node → truth test (existence / non-empty expansion)
//	  rcode node → compare with prior module return code
//	       ↓
//	negate if marked, then short-circuit via AND/OR chain markers
//	       ↓
//	verdict (bool) or error
//
// # Semantics worth knowing
//
//   - Multi-valued attributes match existentially: "Attr == 2" is true if
//     any instance equals 2, on either side of the operator.
//   - When no type is forced and both operands are numeric-looking strings,
//     they compare as integers, so "9" < "10".
//   - A matching regex publishes its captures to the request's slots; a
//     non-matching one clears them.
//   - Any failure (expansion, cast, regex compile) aborts the whole walk:
//     negation is not applied and no further siblings are visited.
//
// # Thread Safety
//
// Condition trees are immutable after loading and an Evaluator holds no
// per-evaluation state, so any number of requests may be evaluated
// concurrently. All mutable state (capture slots, scratch values) belongs to
// the request being evaluated.
package engine
