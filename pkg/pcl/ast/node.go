package ast

// Kind identifies the variant of a condition Node.
type Kind uint8

const (
	// KindInvalid is the zero kind; it must never reach evaluation.
	KindInvalid Kind = iota

	// KindAnd and KindOr are chain markers. They carry no payload and sit
	// between real nodes on a Next chain.
	KindAnd
	KindOr

	// KindTrue and KindFalse are constant results.
	KindTrue
	KindFalse

	// KindReturnCode matches the previous module's return code.
	KindReturnCode

	// KindTemplate is a bare template used as a truth test (attribute
	// existence, or non-empty expansion).
	KindTemplate

	// KindMap is a single comparison: lhs template, operator, rhs template.
	KindMap

	// KindChild is a nested parenthesized sub-expression.
	KindChild
)

var kindNames = map[Kind]string{
	KindInvalid:    "invalid",
	KindAnd:        "and",
	KindOr:         "or",
	KindTrue:       "true",
	KindFalse:      "false",
	KindReturnCode: "rcode",
	KindTemplate:   "tmpl",
	KindMap:        "map",
	KindChild:      "child",
}

// String returns the kind name used in debug dumps.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "<INVALID>"
}

// Fixup is a parse-time annotation on a node.
type Fixup uint8

const (
	// FixupNone means no annotation.
	FixupNone Fixup = iota

	// FixupAttr marks a node whose attribute reference was resolved late.
	FixupAttr

	// FixupType marks a node whose operand types were reconciled late.
	FixupType

	// FixupPairCompare marks a map whose left side is a virtual attribute:
	// comparison semantics come from a registered pair comparator, not from
	// generic typed comparison.
	FixupPairCompare
)

var fixupNames = map[Fixup]string{
	FixupNone:        "none",
	FixupAttr:        "attr",
	FixupType:        "type",
	FixupPairCompare: "paircompare",
}

// String returns the fixup name used in debug dumps.
func (f Fixup) String() string {
	if s, ok := fixupNames[f]; ok {
		return s
	}
	return "<INVALID>"
}

// Node is one entry in a condition tree.
type Node struct {
	// Kind selects the variant and which payload fields are meaningful.
	Kind Kind

	// Negate inverts the node's boolean result. It is never applied to an
	// evaluation error.
	Negate bool

	// Fixup is the parse-time annotation, if any.
	Fixup Fixup

	// Parent is a non-owning back-reference to the enclosing KindChild
	// node; nil at the top level.
	Parent *Node

	// Next is the following node on this AND/OR chain.
	Next *Node

	// Child is the nested subtree (KindChild only).
	Child *Node

	// Template is the bare template payload (KindTemplate only).
	Template *Template

	// Map is the comparison payload (KindMap only).
	Map *Map

	// ReturnCode is the stored return code (KindReturnCode only).
	ReturnCode ReturnCode
}

// Map is a single comparison: left template, operator, right template.
// Regex-not-match never appears: the parser normalizes "!~" into a negated
// OperatorRegexMatch node.
type Map struct {
	LHS *Template
	RHS *Template
	Op  Operator
}
