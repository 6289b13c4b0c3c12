// Package xlat is the expansion engine: it turns embedded expansion
// templates (%{...} references, command templates) into strings at
// evaluation time. The condition engine only depends on the Expander
// interface; TemplateExpander is the default implementation.
package xlat

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"mercator-hq/janus/pkg/pcl/ast"
	"mercator-hq/janus/pkg/radius/request"
)

// EscapeFunc transforms a substituted value before it is inserted into the
// expansion output. The condition engine uses it to escape regex
// metacharacters when an expansion produces a pattern.
type EscapeFunc func(string) string

// Expander resolves an expansion template against a request.
type Expander interface {
	// Expand evaluates the template's expansion text and returns the
	// produced string. escape, if non-nil, is applied to every substituted
	// value (not to literal text).
	Expand(ctx context.Context, req *request.Request, t *ast.Template, escape EscapeFunc) (string, error)
}

// CommandRunner executes an expanded command template and returns its
// output. It is the hook TemplateExpander uses for TemplateExec.
type CommandRunner func(ctx context.Context, command string) (string, error)

// TemplateExpander is the default Expander. It substitutes
//
//	%{Attr-Name}       first matching attribute on the request list
//	%{list.Attr-Name}  first matching attribute on a named list
//	%{0} .. %{N}       regex capture slots
//
// and passes TemplateExec output through the configured CommandRunner.
type TemplateExpander struct {
	// Run executes command templates. If nil, TemplateExec expansion fails.
	Run CommandRunner
}

// Expand implements Expander.
func (e *TemplateExpander) Expand(ctx context.Context, req *request.Request, t *ast.Template, escape EscapeFunc) (string, error) {
	switch t.Kind {
	case ast.TemplateXlat, ast.TemplateRegexXlat:
		return e.expandText(req, t.Xlat, escape)

	case ast.TemplateExec:
		if e.Run == nil {
			return "", fmt.Errorf("no command runner configured for exec template %q", t.Xlat)
		}
		command, err := e.expandText(req, t.Xlat, escape)
		if err != nil {
			return "", err
		}
		out, err := e.Run(ctx, command)
		if err != nil {
			return "", fmt.Errorf("exec %q: %w", command, err)
		}
		return strings.TrimRight(out, "\n"), nil
	}
	return "", fmt.Errorf("template kind %s is not expandable", t.Kind)
}

// expandText substitutes %{...} references in text.
func (e *TemplateExpander) expandText(req *request.Request, text string, escape EscapeFunc) (string, error) {
	var out strings.Builder

	for {
		i := strings.Index(text, "%{")
		if i < 0 {
			out.WriteString(text)
			return out.String(), nil
		}
		out.WriteString(text[:i])
		text = text[i+2:]

		j := strings.IndexByte(text, '}')
		if j < 0 {
			return "", fmt.Errorf("unterminated %%{ reference")
		}
		ref := text[:j]
		text = text[j+1:]

		val, err := e.resolve(req, ref)
		if err != nil {
			return "", err
		}
		if escape != nil {
			val = escape(val)
		}
		out.WriteString(val)
	}
}

// resolve looks up a single %{ref} against the request. Unknown attributes
// expand to the empty string; a malformed reference is an error.
func (e *TemplateExpander) resolve(req *request.Request, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty %%{} reference")
	}

	// Capture slot reference.
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 0 {
			return "", fmt.Errorf("invalid capture reference %%{%d}", n)
		}
		s, _ := req.Captures.Get(n)
		return s, nil
	}

	list := ast.ListRequest
	name := ref
	if k := strings.IndexByte(ref, '.'); k >= 0 {
		list, name = ast.PairListRef(ref[:k]), ref[k+1:]
	}

	pairs := req.List(list)
	if pairs == nil {
		return "", fmt.Errorf("unknown list in reference %%{%s}", ref)
	}
	for _, p := range pairs {
		if p.Attr.Name == name {
			return p.Value.String(), nil
		}
	}
	return "", nil
}
