package semantic

import "github.com/quellabs/objectquel/ast"

// walkIdentifierHeads calls fn on every identifier that begins a property
// chain within e: bare property references, In's tested identifier,
// Exists's entity identifier, and MethodCall's receiver. It does not call
// fn on tail segments (Identifier.Next), which are property names rather
// than independently resolvable identifiers.
func walkIdentifierHeads(e ast.Expr, fn func(*ast.Identifier)) {
	switch t := e.(type) {
	case nil:
		return
	case *ast.Identifier:
		fn(t)
	case *ast.BinaryOperator:
		walkIdentifierHeads(t.Left, fn)
		walkIdentifierHeads(t.Right, fn)
	case *ast.Not:
		walkIdentifierHeads(t.Expr, fn)
	case *ast.In:
		fn(t.Identifier)
		for _, p := range t.Parameters {
			walkIdentifierHeads(p, fn)
		}
	case *ast.Exists:
		fn(t.EntityIdentifier)
	case *ast.MethodCall:
		if t.Receiver != nil {
			fn(t.Receiver)
		}
		for _, a := range t.Args {
			walkIdentifierHeads(a, fn)
		}
	}
}

// forEachIdentifierHead visits every head identifier reachable from r's
// values, conditions, and sort list. via-clause identifiers are excluded:
// those are handled separately since they are restricted to referencing
// other declared ranges (see viaReferencesRanges), not arbitrary entities.
func forEachIdentifierHead(r *ast.Retrieve, fn func(*ast.Identifier)) {
	for _, a := range r.Values {
		walkIdentifierHeads(a.Expression, fn)
	}
	if r.Conditions != nil {
		walkIdentifierHeads(r.Conditions, fn)
	}
	for _, s := range r.Sort {
		walkIdentifierHeads(s.Expr, fn)
	}
}

// forEachViaIdentifierHead visits every head identifier in every range's
// via-clause.
func forEachViaIdentifierHead(r *ast.Retrieve, fn func(*ast.Identifier)) {
	for _, rg := range r.Ranges {
		if db, ok := rg.(*ast.RangeDatabase); ok && db.JoinProperty != nil {
			walkIdentifierHeads(db.JoinProperty, fn)
		}
	}
}

// forEachExpr rewrites every top-level expression slot in r (via-clauses,
// value expressions, conditions, sort keys) through ast.Transform with fn.
func forEachExpr(r *ast.Retrieve, fn func(ast.Expr) ast.Expr) {
	for _, rg := range r.Ranges {
		if db, ok := rg.(*ast.RangeDatabase); ok && db.JoinProperty != nil {
			db.JoinProperty = ast.Transform(db.JoinProperty, fn)
		}
	}
	for _, a := range r.Values {
		a.Expression = ast.Transform(a.Expression, fn)
	}
	if r.Conditions != nil {
		r.Conditions = ast.Transform(r.Conditions, fn)
	}
	for i := range r.Sort {
		r.Sort[i].Expr = ast.Transform(r.Sort[i].Expr, fn)
	}
}

// isWholeEntity reports whether e is a bare identifier bound to a range
// with no property tail, i.e. a reference to an entire entity rather than
// one of its properties.
func isWholeEntity(e ast.Expr) bool {
	id, ok := e.(*ast.Identifier)
	return ok && id.Next == nil && id.Range != nil
}

// isTrueLiteral reports whether e is the literal boolean true.
func isTrueLiteral(e ast.Expr) bool {
	b, ok := e.(*ast.Bool)
	return ok && b.Value
}

// simplifyBoolean collapses And/Or nodes absorbing a literal true left
// behind by handleExists erasing an Exists node, e.g. And(x, true) -> x.
func simplifyBoolean(e ast.Expr) ast.Expr {
	switch t := e.(type) {
	case *ast.BinaryOperator:
		t.Left = simplifyBoolean(t.Left)
		t.Right = simplifyBoolean(t.Right)
		if t.Op == ast.OpAnd {
			if isTrueLiteral(t.Left) {
				return t.Right
			}
			if isTrueLiteral(t.Right) {
				return t.Left
			}
		}
		if t.Op == ast.OpOr {
			if isTrueLiteral(t.Left) || isTrueLiteral(t.Right) {
				return &ast.Bool{Value: true, LineNo: t.LineNo}
			}
		}
		return t
	case *ast.Not:
		t.Expr = simplifyBoolean(t.Expr)
		return t
	default:
		return e
	}
}
