package ast

// Builder helpers for constructing condition trees programmatically. The PCL
// loader uses these; tests do too. They take care of the chain links and
// parent back-references so that hand-built trees satisfy the same structural
// invariants as loaded ones.

// MapNode returns a comparison node.
func MapNode(lhs *Template, op Operator, rhs *Template) *Node {
	return &Node{Kind: KindMap, Map: &Map{LHS: lhs, Op: op, RHS: rhs}}
}

// TemplateNode returns a bare template truth-test node.
func TemplateNode(t *Template) *Node {
	return &Node{Kind: KindTemplate, Template: t}
}

// ReturnCodeNode returns a node matching the previous module's return code.
func ReturnCodeNode(rc ReturnCode) *Node {
	return &Node{Kind: KindReturnCode, ReturnCode: rc}
}

// BoolNode returns a constant true or false node.
func BoolNode(v bool) *Node {
	if v {
		return &Node{Kind: KindTrue}
	}
	return &Node{Kind: KindFalse}
}

// Negated marks a node as negated and returns it.
func Negated(n *Node) *Node {
	n.Negate = true
	return n
}

// ChildNode wraps a chain in a parenthesized subtree node and points every
// entry of the chain back at the wrapper.
func ChildNode(head *Node) *Node {
	child := &Node{Kind: KindChild, Child: head}
	for n := head; n != nil; n = n.Next {
		n.Parent = child
	}
	return child
}

// LinkAnd joins nodes into a chain with AND markers between them and returns
// the head.
func LinkAnd(nodes ...*Node) *Node {
	return link(KindAnd, nodes)
}

// LinkOr joins nodes into a chain with OR markers between them and returns
// the head.
func LinkOr(nodes ...*Node) *Node {
	return link(KindOr, nodes)
}

func link(marker Kind, nodes []*Node) *Node {
	if len(nodes) == 0 {
		return nil
	}
	head := nodes[0]
	tail := chainTail(head)
	for _, n := range nodes[1:] {
		tail.Next = &Node{Kind: marker, Next: n}
		tail = chainTail(n)
	}
	return head
}

// chainTail follows Next links to the last entry of a chain.
func chainTail(n *Node) *Node {
	for n.Next != nil {
		n = n.Next
	}
	return n
}
