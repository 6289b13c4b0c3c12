package ast

// Operator is a comparison operator in a PCL map.
type Operator string

const (
	OperatorEqual        Operator = "=="
	OperatorNotEqual     Operator = "!="
	OperatorLessThan     Operator = "<"
	OperatorGreaterThan  Operator = ">"
	OperatorLessEqual    Operator = "<="
	OperatorGreaterEqual Operator = ">="
	OperatorRegexMatch   Operator = "=~"
)

// Valid reports whether op is a known operator.
func (op Operator) Valid() bool {
	switch op {
	case OperatorEqual, OperatorNotEqual, OperatorLessThan, OperatorGreaterThan,
		OperatorLessEqual, OperatorGreaterEqual, OperatorRegexMatch:
		return true
	}
	return false
}

// ReturnCode is the result code a module returns to the server core. A
// KindReturnCode node matches when the previous module's code equals its
// stored code.
type ReturnCode string

const (
	CodeReject   ReturnCode = "reject"
	CodeFail     ReturnCode = "fail"
	CodeOK       ReturnCode = "ok"
	CodeHandled  ReturnCode = "handled"
	CodeInvalid  ReturnCode = "invalid"
	CodeDisallow ReturnCode = "disallow"
	CodeNotFound ReturnCode = "notfound"
	CodeNoop     ReturnCode = "noop"
	CodeUpdated  ReturnCode = "updated"
)

// ParseReturnCode returns the ReturnCode named by s, or false if unknown.
func ParseReturnCode(s string) (ReturnCode, bool) {
	switch ReturnCode(s) {
	case CodeReject, CodeFail, CodeOK, CodeHandled, CodeInvalid,
		CodeDisallow, CodeNotFound, CodeNoop, CodeUpdated:
		return ReturnCode(s), true
	}
	return "", false
}
