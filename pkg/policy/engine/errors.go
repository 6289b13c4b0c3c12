package engine

import (
	"errors"
	"fmt"

	"mercator-hq/janus/pkg/radius/value"
)

// ErrAttributeNotFound is reserved for callers that distinguish "condition
// referenced an attribute the request does not carry" from an ordinary
// no-match. The evaluator itself never returns it; missing attributes simply
// fail to match.
var ErrAttributeNotFound = errors.New("no matching attribute found")

// ExpansionError indicates the expansion engine failed to produce a value
// for a template.
type ExpansionError struct {
	Template string
	Cause    error
}

// Error returns the error message.
func (e *ExpansionError) Error() string {
	return fmt.Sprintf("expansion of %q failed: %v", e.Template, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ExpansionError) Unwrap() error { return e.Cause }

// CastError indicates an operand could not be coerced to the comparison
// type.
type CastError struct {
	From  value.Type
	To    value.Type
	Cause error
}

// Error returns the error message.
func (e *CastError) Error() string {
	return fmt.Sprintf("failed casting operand from %s to %s: %v", e.From, e.To, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *CastError) Unwrap() error { return e.Cause }

// RegexCompileError indicates a runtime-produced pattern failed to compile.
type RegexCompileError struct {
	Pattern string
	Cause   error
}

// Error returns the error message.
func (e *RegexCompileError) Error() string {
	return fmt.Sprintf("invalid regex pattern %q: %v", e.Pattern, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *RegexCompileError) Unwrap() error { return e.Cause }

// RegexExecError indicates the regex engine reported an execution failure
// distinct from "no match". The standard library engine cannot fail at
// execution time, so this surfaces only from alternative engines.
type RegexExecError struct {
	Cause error
}

// Error returns the error message.
func (e *RegexExecError) Error() string {
	return fmt.Sprintf("regex execution failed: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e *RegexExecError) Unwrap() error { return e.Cause }

// PairCompareError indicates a registered pair comparator failed.
type PairCompareError struct {
	Attr  string
	Cause error
}

// Error returns the error message.
func (e *PairCompareError) Error() string {
	return fmt.Sprintf("pair comparison on %q failed: %v", e.Attr, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *PairCompareError) Unwrap() error { return e.Cause }

// StructuralError indicates a condition tree that should have been rejected
// or resolved by the loader reached evaluation: an unresolved template, an
// unsupported variant in a position that cannot hold it, or corrupted links.
// It is a programming error in the passes upstream of the evaluator, not a
// property of the request being evaluated.
type StructuralError struct {
	Msg string
}

// Error returns the error message.
func (e *StructuralError) Error() string {
	return "condition structure invalid: " + e.Msg
}

// structuralf builds a StructuralError with a formatted message.
func structuralf(format string, args ...any) *StructuralError {
	return &StructuralError{Msg: fmt.Sprintf(format, args...)}
}

// failureKind maps an evaluation error onto the label used by the failure
// counter metric.
func failureKind(err error) string {
	var (
		expErr    *ExpansionError
		castErr   *CastError
		reCompErr *RegexCompileError
		reExecErr *RegexExecError
		pairErr   *PairCompareError
		structErr *StructuralError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &expErr):
		return "expansion"
	case errors.As(err, &castErr):
		return "cast"
	case errors.As(err, &reCompErr):
		return "regex_compile"
	case errors.As(err, &reExecErr):
		return "regex_exec"
	case errors.As(err, &pairErr):
		return "paircompare"
	case errors.As(err, &structErr):
		return "structural"
	}
	return "other"
}
