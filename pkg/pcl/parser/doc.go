// Package parser loads PCL policy files into condition trees.
//
// PCL policies are structured YAML, not expression text. A file holds a list
// of named policies, each with a "when" condition. Conditions compose with
// all/any/not, compare operands with the usual operators, test attribute
// existence, or match the previous module's return code:
//
//	policies:
//	  - name: block-guests
//	    when:
//	      all:
//	        - lhs: {attr: User-Name}
//	          op: "=~"
//	          rhs: {regex: "^guest", flags: i}
//	        - not:
//	            rcode: reject
//
// The parser decodes the YAML into an intermediate structure (yaml.go), then
// a builder (builder.go) turns it into ast.Node trees: attribute names are
// resolved against a dictionary, literals are coerced and load-time casts
// applied, regexes are precompiled, AND/OR chain markers and parent
// back-references are linked, and comparisons against registered virtual
// attributes are tagged for the pair-comparator path. Trees coming out of
// Parse satisfy every structural invariant the evaluator assumes.
package parser
