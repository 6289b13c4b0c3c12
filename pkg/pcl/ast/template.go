package ast

import (
	"fmt"
	"regexp"

	"mercator-hq/janus/pkg/radius/dict"
	"mercator-hq/janus/pkg/radius/value"
)

// TemplateKind identifies the variant of a Template.
type TemplateKind uint8

const (
	// TemplateUnresolved is the zero kind. The loader must have replaced
	// every unresolved template before evaluation; one reaching the engine
	// is a structural error.
	TemplateUnresolved TemplateKind = iota

	// TemplateAttr references an attribute on the request.
	TemplateAttr

	// TemplateList references a whole pair list on the request.
	TemplateList

	// TemplateExec is a command template expanded by the expansion engine,
	// producing the command's output.
	TemplateExec

	// TemplateXlat is an expansion template producing a string.
	TemplateXlat

	// TemplateRegex is a precompiled regular expression pattern.
	TemplateRegex

	// TemplateRegexXlat is an expansion template producing a regex pattern;
	// substituted values are metacharacter-escaped before use.
	TemplateRegexXlat

	// TemplateData is a literal typed value.
	TemplateData
)

var templateKindNames = map[TemplateKind]string{
	TemplateUnresolved: "unresolved",
	TemplateAttr:       "attr",
	TemplateList:       "list",
	TemplateExec:       "exec",
	TemplateXlat:       "xlat",
	TemplateRegex:      "regex",
	TemplateRegexXlat:  "regex-xlat",
	TemplateData:       "data",
}

// String returns the template kind name used in debug dumps.
func (k TemplateKind) String() string {
	if s, ok := templateKindNames[k]; ok {
		return s
	}
	return "<INVALID>"
}

// PairListRef names a pair list on the request.
type PairListRef string

const (
	ListRequest PairListRef = "request"
	ListReply   PairListRef = "reply"
	ListControl PairListRef = "control"
)

// Template references a value source: an attribute, a list, a literal, an
// expansion, or a regular expression, with an optional explicit type cast.
type Template struct {
	// Kind selects the variant and which payload fields are meaningful.
	Kind TemplateKind

	// Cast is the explicit cast type, or value.TypeInvalid for none.
	Cast value.Type

	// Attr is the referenced attribute (TemplateAttr).
	Attr *dict.Attribute

	// List names the pair list to search. It qualifies TemplateAttr
	// references (defaulting to ListRequest) and is the payload of
	// TemplateList.
	List PairListRef

	// Xlat is the raw expansion text (TemplateExec, TemplateXlat,
	// TemplateRegexXlat).
	Xlat string

	// Regex is the precompiled pattern (TemplateRegex).
	Regex *Regex

	// RegexFlags applies to patterns produced at evaluation time
	// (TemplateRegexXlat).
	RegexFlags RegexFlags

	// Data is the literal value (TemplateData).
	Data value.Box
}

// IsAttr reports whether the template is an attribute reference.
func (t *Template) IsAttr() bool { return t.Kind == TemplateAttr }

// IsData reports whether the template is a literal value.
func (t *Template) IsData() bool { return t.Kind == TemplateData }

// Describe returns a short form of the template for debug dumps.
func (t *Template) Describe() string {
	switch t.Kind {
	case TemplateAttr:
		if t.List != "" && t.List != ListRequest {
			return fmt.Sprintf("&%s.%s", t.List, t.Attr.Name)
		}
		return "&" + t.Attr.Name
	case TemplateList:
		return "&" + string(t.List) + ":"
	case TemplateExec:
		return "`" + t.Xlat + "`"
	case TemplateXlat:
		return "%{" + t.Xlat + "}"
	case TemplateRegex:
		return "/" + t.Regex.Pattern + "/" + t.Regex.Flags.String()
	case TemplateRegexXlat:
		return "/" + t.Xlat + "/" + t.RegexFlags.String()
	case TemplateData:
		return t.Data.String()
	}
	return "<" + t.Kind.String() + ">"
}

// RegexFlags are the pattern modifiers supported by PCL regexes.
type RegexFlags struct {
	// IgnoreCase compiles the pattern case-insensitively.
	IgnoreCase bool

	// Multiline makes ^ and $ match at line boundaries.
	Multiline bool
}

// String renders the flags in their policy-text form.
func (f RegexFlags) String() string {
	var s string
	if f.IgnoreCase {
		s += "i"
	}
	if f.Multiline {
		s += "m"
	}
	return s
}

// Regex is a precompiled regular expression with its original pattern text.
type Regex struct {
	Pattern string
	Flags   RegexFlags

	re *regexp.Regexp
}

// CompileRegex compiles a pattern with the given flags.
func CompileRegex(pattern string, flags RegexFlags) (*Regex, error) {
	re, err := regexp.Compile(flags.prefix() + pattern)
	if err != nil {
		return nil, err
	}
	return &Regex{Pattern: pattern, Flags: flags, re: re}, nil
}

func (f RegexFlags) prefix() string {
	var mods string
	if f.IgnoreCase {
		mods += "i"
	}
	if f.Multiline {
		mods += "m"
	}
	if mods == "" {
		return ""
	}
	return "(?" + mods + ")"
}

// Compiled returns the compiled pattern.
func (r *Regex) Compiled() *regexp.Regexp { return r.re }
