package engine

import (
	"context"
	"errors"
	"testing"

	"mercator-hq/janus/pkg/paircmp"
	"mercator-hq/janus/pkg/pcl/ast"
	"mercator-hq/janus/pkg/radius/dict"
	"mercator-hq/janus/pkg/radius/request"
	"mercator-hq/janus/pkg/radius/value"
	"mercator-hq/janus/pkg/xlat"
)

// fakeExpander resolves xlat text from a fixed table and counts every
// invocation, so tests can assert that short-circuiting skipped an operand.
type fakeExpander struct {
	results map[string]string
	errs    map[string]error
	calls   []string
}

func (f *fakeExpander) Expand(ctx context.Context, req *request.Request, t *ast.Template, escape xlat.EscapeFunc) (string, error) {
	f.calls = append(f.calls, t.Xlat)
	if err := f.errs[t.Xlat]; err != nil {
		return "", err
	}
	out := f.results[t.Xlat]
	if escape != nil {
		out = escape(out)
	}
	return out, nil
}

func (f *fakeExpander) callCount(text string) int {
	n := 0
	for _, c := range f.calls {
		if c == text {
			n++
		}
	}
	return n
}

func testDict(t *testing.T) *dict.Dictionary {
	t.Helper()
	d := dict.New()
	for _, a := range []*dict.Attribute{
		{Name: "User-Name", Number: 1, Type: value.TypeString},
		{Name: "NAS-Port", Number: 5, Type: value.TypeUint32},
		{Name: "Framed-IP-Address", Number: 8, Type: value.TypeIPAddr},
		{Name: "Class", Number: 25, Type: value.TypeOctets},
		{Name: "Acct-Session-Id", Number: 44, Type: value.TypeString},
		{Name: "Simultaneous-Use", Number: 1034, Type: value.TypeUint32},
	} {
		d.MustRegister(a)
	}
	return d
}

func attrTmpl(d *dict.Dictionary, name string) *ast.Template {
	return &ast.Template{Kind: ast.TemplateAttr, Attr: d.Lookup(name), List: ast.ListRequest}
}

func dataTmpl(b value.Box) *ast.Template {
	return &ast.Template{Kind: ast.TemplateData, Data: b}
}

func xlatTmpl(text string) *ast.Template {
	return &ast.Template{Kind: ast.TemplateXlat, Xlat: text}
}

func regexTmpl(t *testing.T, pattern string) *ast.Template {
	t.Helper()
	re, err := ast.CompileRegex(pattern, ast.RegexFlags{})
	if err != nil {
		t.Fatalf("CompileRegex(%q) failed: %v", pattern, err)
	}
	return &ast.Template{Kind: ast.TemplateRegex, Regex: re}
}

// TestEvaluate_Constants tests constant nodes and negation on them.
func TestEvaluate_Constants(t *testing.T) {
	tests := []struct {
		name   string
		node   *ast.Node
		want   bool
	}{
		{name: "true", node: ast.BoolNode(true), want: true},
		{name: "false", node: ast.BoolNode(false), want: false},
		{name: "negated true", node: ast.Negated(ast.BoolNode(true)), want: false},
		{name: "negated false", node: ast.Negated(ast.BoolNode(false)), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(&fakeExpander{})
			got, err := e.Evaluate(context.Background(), request.New(), tt.node, ast.CodeNoop)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestEvaluate_ShortCircuitAnd verifies that a false left side of && skips
// the right side entirely.
func TestEvaluate_ShortCircuitAnd(t *testing.T) {
	exp := &fakeExpander{results: map[string]string{"never": "x"}}
	e := New(exp)

	right := ast.MapNode(xlatTmpl("never"), ast.OperatorEqual, dataTmpl(value.NewString("x")))
	cond := ast.LinkAnd(ast.BoolNode(false), right)

	got, err := e.Evaluate(context.Background(), request.New(), cond, ast.CodeNoop)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if got {
		t.Errorf("Evaluate() = true, want false")
	}
	if n := exp.callCount("never"); n != 0 {
		t.Errorf("right side expanded %d times, want 0", n)
	}
}

// TestEvaluate_ShortCircuitOr verifies that a true left side of || skips the
// right side entirely.
func TestEvaluate_ShortCircuitOr(t *testing.T) {
	exp := &fakeExpander{results: map[string]string{"never": "x"}}
	e := New(exp)

	right := ast.MapNode(xlatTmpl("never"), ast.OperatorEqual, dataTmpl(value.NewString("x")))
	cond := ast.LinkOr(ast.BoolNode(true), right)

	got, err := e.Evaluate(context.Background(), request.New(), cond, ast.CodeNoop)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !got {
		t.Errorf("Evaluate() = false, want true")
	}
	if n := exp.callCount("never"); n != 0 {
		t.Errorf("right side expanded %d times, want 0", n)
	}
}

// TestEvaluate_AndOrChains tests longer chains with both markers.
func TestEvaluate_AndOrChains(t *testing.T) {
	tests := []struct {
		name string
		cond func() *ast.Node
		want bool
	}{
		{
			name: "true and true",
			cond: func() *ast.Node { return ast.LinkAnd(ast.BoolNode(true), ast.BoolNode(true)) },
			want: true,
		},
		{
			name: "true and false",
			cond: func() *ast.Node { return ast.LinkAnd(ast.BoolNode(true), ast.BoolNode(false)) },
			want: false,
		},
		{
			name: "false or true",
			cond: func() *ast.Node { return ast.LinkOr(ast.BoolNode(false), ast.BoolNode(true)) },
			want: true,
		},
		{
			name: "false or false",
			cond: func() *ast.Node { return ast.LinkOr(ast.BoolNode(false), ast.BoolNode(false)) },
			want: false,
		},
		{
			name: "chain of three",
			cond: func() *ast.Node {
				return ast.LinkAnd(ast.BoolNode(true), ast.BoolNode(true), ast.BoolNode(false))
			},
			want: false,
		},
		{
			name: "nested child flips verdict",
			// false || (true && true)
			cond: func() *ast.Node {
				child := ast.ChildNode(ast.LinkAnd(ast.BoolNode(true), ast.BoolNode(true)))
				return ast.LinkOr(ast.BoolNode(false), child)
			},
			want: true,
		},
		{
			name: "negated child",
			// !(true && false)
			cond: func() *ast.Node {
				return ast.Negated(ast.ChildNode(ast.LinkAnd(ast.BoolNode(true), ast.BoolNode(false))))
			},
			want: true,
		},
		{
			name: "negated child after and short-circuit",
			// !(false && true): the subtree exits on the && marker, not
			// off the end of the chain.
			cond: func() *ast.Node {
				return ast.Negated(ast.ChildNode(ast.LinkAnd(ast.BoolNode(false), ast.BoolNode(true))))
			},
			want: true,
		},
		{
			name: "negated child after or short-circuit",
			// !(true || false)
			cond: func() *ast.Node {
				return ast.Negated(ast.ChildNode(ast.LinkOr(ast.BoolNode(true), ast.BoolNode(false))))
			},
			want: false,
		},
		{
			name: "negated child feeds outer chain",
			// !(true && false) && true
			cond: func() *ast.Node {
				child := ast.Negated(ast.ChildNode(ast.LinkAnd(ast.BoolNode(true), ast.BoolNode(false))))
				return ast.LinkAnd(child, ast.BoolNode(true))
			},
			want: true,
		},
		{
			name: "doubly negated child",
			// !!(false)
			cond: func() *ast.Node {
				inner := ast.Negated(ast.ChildNode(ast.BoolNode(false)))
				return ast.Negated(ast.ChildNode(inner))
			},
			want: false,
		},
		{
			name: "negation applies per nesting level",
			// !(!(true && false) && true) == !(true && true) == false
			cond: func() *ast.Node {
				inner := ast.Negated(ast.ChildNode(ast.LinkAnd(ast.BoolNode(true), ast.BoolNode(false))))
				return ast.Negated(ast.ChildNode(ast.LinkAnd(inner, ast.BoolNode(true))))
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(&fakeExpander{})
			got, err := e.Evaluate(context.Background(), request.New(), tt.cond(), ast.CodeNoop)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestEvaluate_DeepNesting verifies termination and correctness on deeply
// nested subtrees; the iterative walk must not recurse.
func TestEvaluate_DeepNesting(t *testing.T) {
	// ((((...(true)...)))) nested 10000 deep.
	cond := ast.BoolNode(true)
	for i := 0; i < 10000; i++ {
		cond = ast.ChildNode(cond)
	}

	e := New(&fakeExpander{})
	got, err := e.Evaluate(context.Background(), request.New(), cond, ast.CodeNoop)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !got {
		t.Errorf("Evaluate() = false, want true")
	}
}

// TestEvaluate_ReturnCode tests matching against the prior module's return
// code.
func TestEvaluate_ReturnCode(t *testing.T) {
	tests := []struct {
		name  string
		node  *ast.Node
		prior ast.ReturnCode
		want  bool
	}{
		{name: "match", node: ast.ReturnCodeNode(ast.CodeOK), prior: ast.CodeOK, want: true},
		{name: "no match", node: ast.ReturnCodeNode(ast.CodeOK), prior: ast.CodeReject, want: false},
		{name: "negated match", node: ast.Negated(ast.ReturnCodeNode(ast.CodeOK)), prior: ast.CodeOK, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(&fakeExpander{})
			got, err := e.Evaluate(context.Background(), request.New(), tt.node, tt.prior)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestEvaluate_BareTemplate tests bare templates as truth tests.
func TestEvaluate_BareTemplate(t *testing.T) {
	d := testDict(t)

	req := request.New()
	req.Request.Add(d.Lookup("User-Name"), value.NewString("bob"))

	tests := []struct {
		name    string
		tmpl    *ast.Template
		want    bool
		wantErr bool
	}{
		{name: "attribute present", tmpl: attrTmpl(d, "User-Name"), want: true},
		{name: "attribute absent", tmpl: attrTmpl(d, "NAS-Port"), want: false},
		{name: "list non-empty", tmpl: &ast.Template{Kind: ast.TemplateList, List: ast.ListRequest}, want: true},
		{name: "list empty", tmpl: &ast.Template{Kind: ast.TemplateList, List: ast.ListReply}, want: false},
		{name: "non-empty expansion", tmpl: xlatTmpl("hello"), want: true},
		{name: "empty expansion", tmpl: xlatTmpl("empty"), want: false},
		{name: "failing expansion", tmpl: xlatTmpl("boom"), wantErr: true},
		{name: "bare regex is structural error", tmpl: regexTmpl(t, "x"), wantErr: true},
		{name: "bare literal is structural error", tmpl: dataTmpl(value.NewString("x")), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := &fakeExpander{
				results: map[string]string{"hello": "world", "empty": ""},
				errs:    map[string]error{"boom": errors.New("exec failed")},
			}
			e := New(exp)

			got, err := e.Evaluate(context.Background(), req, ast.TemplateNode(tt.tmpl), ast.CodeNoop)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Evaluate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestEvaluate_ExistentialMultiValue verifies that a multi-valued attribute
// matches if any instance satisfies the comparison.
func TestEvaluate_ExistentialMultiValue(t *testing.T) {
	d := testDict(t)

	req := request.New()
	req.Request.Add(d.Lookup("NAS-Port"), value.NewUint32(1))
	req.Request.Add(d.Lookup("NAS-Port"), value.NewUint32(2))
	req.Request.Add(d.Lookup("NAS-Port"), value.NewUint32(3))

	tests := []struct {
		name string
		rhs  *ast.Template
		want bool
	}{
		{name: "second instance matches", rhs: dataTmpl(value.NewUint32(2)), want: true},
		{name: "no instance matches", rhs: dataTmpl(value.NewUint32(5)), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(&fakeExpander{})
			cond := ast.MapNode(attrTmpl(d, "NAS-Port"), ast.OperatorEqual, tt.rhs)

			got, err := e.Evaluate(context.Background(), req, cond, ast.CodeNoop)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestEvaluate_ExistentialRHS verifies existential semantics when the
// multi-valued attribute is on the right-hand side.
func TestEvaluate_ExistentialRHS(t *testing.T) {
	d := testDict(t)

	req := request.New()
	req.Request.Add(d.Lookup("NAS-Port"), value.NewUint32(7))
	req.Request.Add(d.Lookup("NAS-Port"), value.NewUint32(9))

	e := New(&fakeExpander{})
	cond := ast.MapNode(dataTmpl(value.NewUint32(9)), ast.OperatorEqual, attrTmpl(d, "NAS-Port"))

	got, err := e.Evaluate(context.Background(), req, cond, ast.CodeNoop)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !got {
		t.Errorf("Evaluate() = false, want true")
	}
}

// TestEvaluate_NumericStringHeuristic verifies that numeric-looking strings
// compare as integers when nothing forces a type.
func TestEvaluate_NumericStringHeuristic(t *testing.T) {
	tests := []struct {
		name string
		lhs  string
		op   ast.Operator
		rhs  string
		want bool
	}{
		// Numerically equal, lexicographically different.
		{name: "leading zero equality", lhs: "010", op: ast.OperatorEqual, rhs: "10", want: true},
		// Lexicographic order would invert this.
		{name: "9 less than 10", lhs: "9", op: ast.OperatorLessThan, rhs: "10", want: true},
		{name: "negative numbers", lhs: "-5", op: ast.OperatorLessThan, rhs: "3", want: true},
		// Non-numeric operands keep string semantics.
		{name: "non-numeric stays string", lhs: "abc", op: ast.OperatorEqual, rhs: "abc", want: true},
		{name: "mixed stays string", lhs: "010", op: ast.OperatorEqual, rhs: "10x", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(&fakeExpander{})
			cond := ast.MapNode(
				dataTmpl(value.NewString(tt.lhs)),
				tt.op,
				dataTmpl(value.NewString(tt.rhs)),
			)

			got, err := e.Evaluate(context.Background(), request.New(), cond, ast.CodeNoop)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q %s %q) = %v, want %v", tt.lhs, tt.op, tt.rhs, got, tt.want)
			}
		})
	}
}

// TestEvaluate_ExplicitCastPriority verifies that an explicit cast beats the
// type implied by the other operand.
func TestEvaluate_ExplicitCastPriority(t *testing.T) {
	d := testDict(t)

	req := request.New()
	req.Request.Add(d.Lookup("User-Name"), value.NewString("010"))

	// Without a cast, User-Name's declared string type wins: "010" != "10".
	lhs := attrTmpl(d, "User-Name")
	cond := ast.MapNode(lhs, ast.OperatorEqual, dataTmpl(value.NewString("10")))

	e := New(&fakeExpander{})
	got, err := e.Evaluate(context.Background(), req, cond, ast.CodeNoop)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if got {
		t.Errorf("uncast comparison = true, want false (string semantics)")
	}

	// An explicit int64 cast on the left template overrides the attribute's
	// declared type, so the operands compare numerically.
	castLHS := attrTmpl(d, "User-Name")
	castLHS.Cast = value.TypeInt64
	cond = ast.MapNode(castLHS, ast.OperatorEqual, dataTmpl(value.NewString("10")))

	got, err = e.Evaluate(context.Background(), req, cond, ast.CodeNoop)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !got {
		t.Errorf("cast comparison = false, want true (numeric semantics)")
	}
}

// TestEvaluate_ErrorShortCircuitsTree verifies that a failure aborts the
// whole walk: the sibling is never evaluated and negation is not applied.
func TestEvaluate_ErrorShortCircuitsTree(t *testing.T) {
	d := testDict(t)

	req := request.New()
	req.Request.Add(d.Lookup("User-Name"), value.NewString("not-a-number"))

	// Casting "not-a-number" to int64 fails during normalization.
	lhs := attrTmpl(d, "User-Name")
	lhs.Cast = value.TypeInt64
	failing := ast.Negated(ast.MapNode(lhs, ast.OperatorEqual, dataTmpl(value.NewString("10"))))

	exp := &fakeExpander{results: map[string]string{"never": "x"}}
	right := ast.MapNode(xlatTmpl("never"), ast.OperatorEqual, dataTmpl(value.NewString("x")))
	cond := ast.LinkAnd(failing, right)

	e := New(exp)
	_, err := e.Evaluate(context.Background(), req, cond, ast.CodeNoop)
	if err == nil {
		t.Fatal("Evaluate() error = nil, want cast failure")
	}
	var castErr *CastError
	if !errors.As(err, &castErr) {
		t.Errorf("Evaluate() error = %v, want *CastError", err)
	}
	if n := exp.callCount("never"); n != 0 {
		t.Errorf("sibling expanded %d times after failure, want 0", n)
	}
}

// TestEvaluate_NegatedErrorNotFlipped verifies a negated node that errors
// reports the error rather than a flipped verdict.
func TestEvaluate_NegatedErrorNotFlipped(t *testing.T) {
	exp := &fakeExpander{errs: map[string]error{"boom": errors.New("expansion broke")}}
	e := New(exp)

	cond := ast.Negated(ast.MapNode(xlatTmpl("boom"), ast.OperatorEqual, dataTmpl(value.NewString("x"))))

	_, err := e.Evaluate(context.Background(), request.New(), cond, ast.CodeNoop)
	if err == nil {
		t.Fatal("Evaluate() error = nil, want expansion failure")
	}
	var expErr *ExpansionError
	if !errors.As(err, &expErr) {
		t.Errorf("Evaluate() error = %v, want *ExpansionError", err)
	}
}

// TestEvaluate_InvalidNodeKind verifies that unknown node kinds are
// structural errors.
func TestEvaluate_InvalidNodeKind(t *testing.T) {
	e := New(&fakeExpander{})

	_, err := e.Evaluate(context.Background(), request.New(), &ast.Node{Kind: ast.KindInvalid}, ast.CodeNoop)
	var structErr *StructuralError
	if !errors.As(err, &structErr) {
		t.Errorf("Evaluate() error = %v, want *StructuralError", err)
	}
}

// TestEvaluate_PairCompare verifies that maps flagged as paircompare route
// through the registered comparator with a synthetic check pair.
func TestEvaluate_PairCompare(t *testing.T) {
	d := testDict(t)

	var seen *request.Pair
	comparators := paircmp.NewRegistry()
	comparators.Register("Simultaneous-Use", func(ctx context.Context, req *request.Request, check *request.Pair) (int, error) {
		seen = check
		// Pretend one session is active: match when the limit is above it.
		limit := check.Value.Data.(uint32)
		if limit > 1 {
			return 0, nil
		}
		return 1, nil
	})

	e := New(&fakeExpander{}, WithComparators(comparators))

	cond := ast.MapNode(attrTmpl(d, "Simultaneous-Use"), ast.OperatorLessEqual, dataTmpl(value.NewString("3")))
	cond.Fixup = ast.FixupPairCompare

	got, err := e.Evaluate(context.Background(), request.New(), cond, ast.CodeNoop)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !got {
		t.Errorf("Evaluate() = false, want true")
	}

	if seen == nil {
		t.Fatal("comparator never invoked")
	}
	if seen.Attr.Name != "Simultaneous-Use" {
		t.Errorf("check pair attribute = %q, want Simultaneous-Use", seen.Attr.Name)
	}
	if seen.Op != ast.OperatorLessEqual {
		t.Errorf("check pair operator = %q, want <=", seen.Op)
	}
	// The right side was cast to the virtual attribute's declared type.
	if seen.Value.Type != value.TypeUint32 {
		t.Errorf("check pair value type = %s, want uint32", seen.Value.Type)
	}

	// A failing comparator aborts the evaluation.
	comparators.Register("Simultaneous-Use", func(ctx context.Context, req *request.Request, check *request.Pair) (int, error) {
		return -1, errors.New("session store down")
	})
	_, err = e.Evaluate(context.Background(), request.New(), cond, ast.CodeNoop)
	var pairErr *PairCompareError
	if !errors.As(err, &pairErr) {
		t.Errorf("Evaluate() error = %v, want *PairCompareError", err)
	}
}

// TestEvaluate_ContextCancelled verifies the walk stops on a cancelled
// context.
func TestEvaluate_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(&fakeExpander{})
	_, err := e.Evaluate(ctx, request.New(), ast.BoolNode(true), ast.CodeNoop)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Evaluate() error = %v, want context.Canceled", err)
	}
}
