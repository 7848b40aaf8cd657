package semantic

import (
	"context"

	"github.com/quellabs/objectquel/ast"
	"github.com/quellabs/objectquel/metadata"
	"github.com/quellabs/objectquel/objerr"
)

// plugMacros substitutes every bare identifier matching a declared macro
// name with a fresh clone of that macro's body, wherever it appears in
// values, conditions, or sort keys. A macro whose own body is a bare range
// reference (no property tail) is recorded in state so processMacros can
// still reject it if it ends up as an operand of an arithmetic expression.
func plugMacros(_ context.Context, r *ast.Retrieve, _ metadata.Store, st *state) error {
	if len(r.Macros) == 0 {
		return nil
	}
	forEachExpr(r, func(e ast.Expr) ast.Expr {
		id, ok := e.(*ast.Identifier)
		if !ok || id.Next != nil {
			return e
		}
		body, ok := r.Macros[id.Name]
		if !ok {
			return e
		}
		clone := body.Clone()
		if bodyID, ok := body.(*ast.Identifier); ok && bodyID.Next == nil {
			st.wholeEntityMacro[clone] = true
		}
		return clone
	})
	return nil
}

// processMacros rejects expressions built directly on a whole-entity
// macro: such a macro may only stand alone as a value or operand of a
// logical connective, never as an operand of a scalar comparison or
// arithmetic operator.
func processMacros(_ context.Context, r *ast.Retrieve, _ metadata.Store, st *state) error {
	if len(st.wholeEntityMacro) == 0 {
		return nil
	}
	var bad error
	check := func(e ast.Expr) {
		if bad != nil || e == nil {
			return
		}
		if st.wholeEntityMacro[e] {
			bad = objerr.NewSemanticError(objerr.SemanticEntityArithmetic, "process-macros",
				"macro %q denotes an entire entity and cannot be used in an arithmetic or comparison expression", exprLabel(e))
		}
	}
	scan := func(e ast.Expr) {
		ast.Walk(e, func(n ast.Node) bool {
			switch t := n.(type) {
			case *ast.BinaryOperator:
				if !t.Op.IsLogical() {
					check(t.Left)
					check(t.Right)
				}
			case *ast.In:
				check(t.Identifier)
			}
			return true
		})
	}
	for _, a := range r.Values {
		scan(a.Expression)
	}
	scan(r.Conditions)
	for _, s := range r.Sort {
		scan(s.Expr)
	}
	return bad
}

func exprLabel(e ast.Expr) string {
	if id, ok := e.(*ast.Identifier); ok {
		return id.String()
	}
	return "<expr>"
}
