// Package ast defines the data model for PCL (Policy Condition Language)
// condition trees: the parsed boolean expressions that the policy engine
// evaluates against in-flight requests.
//
// A condition tree is a chain of Nodes. Each Node carries a kind (map,
// template, child subtree, constant, return-code match), an optional
// negation, and links that encode the tree shape without recursion:
//
//   - Next points forward along an AND/OR chain. The logical operators
//     themselves appear as lightweight KindAnd/KindOr marker nodes between
//     real nodes, which is what lets the evaluator short-circuit by
//     inspecting a single link.
//   - Child points down into a parenthesized sub-expression (KindChild only).
//   - Parent is a non-owning back-reference to the enclosing KindChild node,
//     nil at the top level. The evaluator follows it instead of keeping a
//     call stack.
//
// Trees are built once (by the PCL loader or the builder helpers here) and
// are immutable afterwards; they may be evaluated concurrently against many
// requests.
package ast
