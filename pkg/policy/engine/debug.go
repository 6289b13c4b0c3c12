package engine

import (
	"fmt"
	"strings"

	"mercator-hq/janus/pkg/pcl/ast"
)

// DumpCondition renders a condition tree as indented text for diagnostics.
// Each chain entry is printed with its kind, negation and fixup; map
// operands and child subtrees are expanded inline.
func DumpCondition(cond *ast.Node) string {
	var b strings.Builder
	dumpChain(&b, cond, 0)
	return b.String()
}

func dumpChain(b *strings.Builder, cond *ast.Node, depth int) {
	indent := strings.Repeat("  ", depth)

	for c := cond; c != nil; c = c.Next {
		fmt.Fprintf(b, "%scond %s (%p)\n", indent, c.Kind, c)
		fmt.Fprintf(b, "%s  negate : %v\n", indent, c.Negate)
		fmt.Fprintf(b, "%s  fixup  : %s\n", indent, c.Fixup)

		switch c.Kind {
		case ast.KindMap:
			fmt.Fprintf(b, "%s  lhs    : %s\n", indent, c.Map.LHS.Describe())
			fmt.Fprintf(b, "%s  op     : %s\n", indent, c.Map.Op)
			fmt.Fprintf(b, "%s  rhs    : %s\n", indent, c.Map.RHS.Describe())

		case ast.KindReturnCode:
			fmt.Fprintf(b, "%s  rcode  : %s\n", indent, c.ReturnCode)

		case ast.KindTemplate:
			fmt.Fprintf(b, "%s  tmpl   : %s\n", indent, c.Template.Describe())

		case ast.KindChild:
			fmt.Fprintf(b, "%s  child (\n", indent)
			dumpChain(b, c.Child, depth+2)
			fmt.Fprintf(b, "%s  )\n", indent)
		}
	}
}
