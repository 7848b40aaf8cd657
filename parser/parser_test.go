package parser_test

import (
	"context"
	"testing"

	"github.com/quellabs/objectquel/ast"
	"github.com/quellabs/objectquel/parser"
)

func mustParse(t *testing.T, src string) *ast.Retrieve {
	t.Helper()
	r, err := parser.Parse(context.Background(), src)
	if err != nil {
		t.Fatalf("parse error: %v\nsource: %s", err, src)
	}
	return r
}

func TestParseTrivialRetrieve(t *testing.T) {
	r := mustParse(t, "retrieve (u.name) where u.id = 42")
	if len(r.Values) != 1 {
		t.Fatalf("expected 1 value, got %d", len(r.Values))
	}
	if r.Values[0].Name != "name" {
		t.Fatalf("expected default alias name 'name', got %q", r.Values[0].Name)
	}
	cond, ok := r.Conditions.(*ast.BinaryOperator)
	if !ok || cond.Op != ast.OpEq {
		t.Fatalf("expected top-level Eq condition, got %#v", r.Conditions)
	}
}

func TestParseRangesAndVia(t *testing.T) {
	r := mustParse(t, `
range of p is Product via p.categoryId = c.id
range of c is Category
retrieve unique (p, c.name as categoryName)
where p.price > :min and exists(c)
sort by p.price desc
window 2 using window_size 10`)

	if len(r.Ranges) != 2 {
		t.Fatalf("expected 2 ranges, got %d", len(r.Ranges))
	}
	p, ok := r.Ranges[0].(*ast.RangeDatabase)
	if !ok || p.Name != "p" || p.EntityName != "Product" {
		t.Fatalf("unexpected first range: %#v", r.Ranges[0])
	}
	if p.JoinProperty == nil {
		t.Fatal("expected join property on range p")
	}
	if !r.Unique {
		t.Fatal("expected unique flag")
	}
	if len(r.Values) != 2 || r.Values[1].Name != "categoryName" {
		t.Fatalf("expected second value aliased categoryName, got %#v", r.Values)
	}
	if r.Window == nil || *r.Window != 2 || r.WindowSize == nil || *r.WindowSize != 10 {
		t.Fatalf("unexpected window: %#v %#v", r.Window, r.WindowSize)
	}
	if len(r.Sort) != 1 || !r.Sort[0].Desc {
		t.Fatalf("expected one descending sort item, got %#v", r.Sort)
	}
}

func TestParseDirective(t *testing.T) {
	r := mustParse(t, "@InValuesAreFinal = true retrieve (p) where p.id in (:ids)")
	v, ok := r.Directives["InValuesAreFinal"]
	if !ok || v.Kind != ast.DirectiveBool || !v.Bool {
		t.Fatalf("expected InValuesAreFinal=true directive, got %#v", r.Directives)
	}
	in, ok := r.Conditions.(*ast.In)
	if !ok {
		t.Fatalf("expected In condition, got %#v", r.Conditions)
	}
	if len(in.Parameters) != 1 {
		t.Fatalf("expected 1 in-parameter, got %d", len(in.Parameters))
	}
}

func TestParseMethodCallSort(t *testing.T) {
	r := mustParse(t, "retrieve (u) sort by u.displayName()")
	if len(r.Sort) != 1 {
		t.Fatalf("expected 1 sort item")
	}
	mc, ok := r.Sort[0].Expr.(*ast.MethodCall)
	if !ok || mc.Name != "displayName" {
		t.Fatalf("expected displayName method call, got %#v", r.Sort[0].Expr)
	}
	if mc.Receiver == nil || mc.Receiver.Name != "u" {
		t.Fatalf("expected receiver 'u', got %#v", mc.Receiver)
	}
}

func TestParseIsNullDesugars(t *testing.T) {
	r := mustParse(t, "retrieve (u) where u.deletedAt is null")
	cond, ok := r.Conditions.(*ast.BinaryOperator)
	if !ok || cond.Op != ast.OpEq {
		t.Fatalf("expected Eq(x, null), got %#v", r.Conditions)
	}
	if _, ok := cond.Right.(*ast.Null); !ok {
		t.Fatalf("expected right side Null, got %#v", cond.Right)
	}
}

func TestParseIsNotNullDesugars(t *testing.T) {
	r := mustParse(t, "retrieve (u) where u.deletedAt is not null")
	cond, ok := r.Conditions.(*ast.BinaryOperator)
	if !ok || cond.Op != ast.OpNeq {
		t.Fatalf("expected Neq(x, null), got %#v", r.Conditions)
	}
}

func TestParseNegativeNumberLiteral(t *testing.T) {
	r := mustParse(t, "retrieve (p) where p.delta = -5")
	cond := r.Conditions.(*ast.BinaryOperator)
	n, ok := cond.Right.(*ast.Number)
	if !ok || n.Int != -5 {
		t.Fatalf("expected Number(-5), got %#v", cond.Right)
	}
}

func TestParseUnaryMinusOnExpression(t *testing.T) {
	r := mustParse(t, "retrieve (p) where p.delta = -(p.a + p.b)")
	cond := r.Conditions.(*ast.BinaryOperator)
	wrap, ok := cond.Right.(*ast.BinaryOperator)
	if !ok || wrap.Op != ast.OpMinus {
		t.Fatalf("expected 0-minus wrapper, got %#v", cond.Right)
	}
	zero, ok := wrap.Left.(*ast.Number)
	if !ok || zero.Int != 0 {
		t.Fatalf("expected literal 0 on left of wrapper, got %#v", wrap.Left)
	}
}

func TestParseRegexLiteral(t *testing.T) {
	r := mustParse(t, `retrieve (u) where u.email = /^a.*@b\.com$/i`)
	cond := r.Conditions.(*ast.BinaryOperator)
	re, ok := cond.Right.(*ast.RegexLiteral)
	if !ok || re.Flags != "i" {
		t.Fatalf("expected regex literal with flags 'i', got %#v", cond.Right)
	}
}

func TestParseJSONSourceRange(t *testing.T) {
	r := mustParse(t, `
range of j is json_source(:payload)
retrieve (j)`)
	if len(r.Ranges) != 1 {
		t.Fatalf("expected 1 range")
	}
	if _, ok := r.Ranges[0].(*ast.RangeJSON); !ok {
		t.Fatalf("expected RangeJSON, got %#v", r.Ranges[0])
	}
}

func TestParseMultipleQueriesRejected(t *testing.T) {
	_, err := parser.Parse(context.Background(), "retrieve (a) retrieve (b)")
	if err == nil {
		t.Fatal("expected ParseMultipleQueries error")
	}
}

func TestParseNotPrefix(t *testing.T) {
	r := mustParse(t, "retrieve (u) where not u.active")
	if _, ok := r.Conditions.(*ast.Not); !ok {
		t.Fatalf("expected Not node, got %#v", r.Conditions)
	}
}

func TestParsePrecedence(t *testing.T) {
	r := mustParse(t, "retrieve (u) where u.a = 1 and u.b = 2 or u.c = 3")
	top, ok := r.Conditions.(*ast.BinaryOperator)
	if !ok || top.Op != ast.OpOr {
		t.Fatalf("expected top-level Or (and binds tighter), got %#v", r.Conditions)
	}
	left, ok := top.Left.(*ast.BinaryOperator)
	if !ok || left.Op != ast.OpAnd {
		t.Fatalf("expected left side of Or to be an And, got %#v", top.Left)
	}
}

func TestParseArithmeticPrecedence(t *testing.T) {
	r := mustParse(t, "retrieve (u) where u.total = u.a + u.b * u.c")
	cond := r.Conditions.(*ast.BinaryOperator)
	right, ok := cond.Right.(*ast.BinaryOperator)
	if !ok || right.Op != ast.OpPlus {
		t.Fatalf("expected Plus at top of right side, got %#v", cond.Right)
	}
	mul, ok := right.Right.(*ast.BinaryOperator)
	if !ok || mul.Op != ast.OpMul {
		t.Fatalf("expected Mul nested under Plus, got %#v", right.Right)
	}
}
