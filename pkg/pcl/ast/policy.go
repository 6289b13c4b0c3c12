package ast

// Policy is a named condition loaded from a PCL file. The surrounding server
// decides what a matching policy gates (authorization, accounting); this
// package only carries the tree.
type Policy struct {
	// Name uniquely identifies the policy within its file.
	Name string

	// Description is optional human-readable documentation.
	Description string

	// When is the root of the condition tree.
	When *Node

	// SourceFile is the file the policy was loaded from, for diagnostics.
	SourceFile string
}
