package semantic

import (
	"context"
	"fmt"

	"github.com/quellabs/objectquel/ast"
	"github.com/quellabs/objectquel/metadata"
)

// requireByAnnotation marks a range required if the relation property its
// via-clause joins through (recorded by transformViaRelations before it
// rewrote that property into a physical column) carries a
// @RequiredRelation annotation on the owning entity.
func requireByAnnotation(_ context.Context, r *ast.Retrieve, store metadata.Store, st *state) error {
	for _, rg := range r.Ranges {
		db, ok := rg.(*ast.RangeDatabase)
		if !ok {
			continue
		}
		prop, ok := st.relationProperty[db]
		if !ok {
			continue
		}
		for _, grp := range store.Annotations(db.EntityName) {
			if grp.Property == prop && grp.Has("RequiredRelation") {
				db.Required = true
			}
		}
	}
	return nil
}

// requireByWhereUse marks every range referenced anywhere in the WHERE
// clause as required: a condition on a range's column only makes sense
// if that range's join actually contributes rows.
func requireByWhereUse(_ context.Context, r *ast.Retrieve, _ metadata.Store, _ *state) error {
	if r.Conditions == nil {
		return nil
	}
	walkIdentifierHeads(r.Conditions, func(id *ast.Identifier) {
		if id.Range != nil {
			id.Range.SetRequired(true)
		}
	})
	return nil
}

// relaxRequiredOnIsNull relaxes a range back to optional when the WHERE
// clause tests one of its columns with `is null`: that idiom means "this
// relation may be absent", the opposite of the default requireByWhereUse
// inference, and is only meaningful against a LEFT-joinable range.
func relaxRequiredOnIsNull(_ context.Context, r *ast.Retrieve, _ metadata.Store, _ *state) error {
	if r.Conditions == nil {
		return nil
	}
	ast.Walk(r.Conditions, func(n ast.Node) bool {
		bin, ok := n.(*ast.BinaryOperator)
		if !ok || bin.Op != ast.OpEq {
			return true
		}
		if _, ok := bin.Right.(*ast.Null); !ok {
			return true
		}
		if id, ok := bin.Left.(*ast.Identifier); ok && id.Range != nil {
			id.Range.SetRequired(false)
		}
		return true
	})
	return nil
}

// handleExists forces the range named by each EXISTS(entity) test to be
// required, then erases the EXISTS node itself: invariant 6 requires that
// no Exists node survive the pipeline. Erasing an operand of And/Or
// leaves behind a literal true, which is then simplified away; a
// condition tree that reduces entirely to true is dropped.
func handleExists(_ context.Context, r *ast.Retrieve, _ metadata.Store, _ *state) error {
	forEachExpr(r, func(e ast.Expr) ast.Expr {
		ex, ok := e.(*ast.Exists)
		if !ok {
			return e
		}
		if ex.EntityIdentifier.Range != nil {
			ex.EntityIdentifier.Range.SetRequired(true)
		}
		return &ast.Bool{Value: true, LineNo: ex.LineNo}
	})
	r.Conditions = simplifyBoolean(r.Conditions)
	if isTrueLiteral(r.Conditions) {
		r.Conditions = nil
	}
	for _, a := range r.Values {
		a.Expression = simplifyBoolean(a.Expression)
	}
	for i := range r.Sort {
		r.Sort[i].Expr = simplifyBoolean(r.Sort[i].Expr)
	}
	return nil
}

// gatherReferenceJoins adds a hidden (VisibleInResult=false) alias
// exposing the primary key of every database range that the WHERE clause
// references but that isn't already selected, so the lowered query still
// returns enough to let the hydrator identify those rows.
func gatherReferenceJoins(_ context.Context, r *ast.Retrieve, store metadata.Store, _ *state) error {
	if r.Conditions == nil {
		return nil
	}
	selected := map[string]bool{}
	for _, a := range r.Values {
		walkIdentifierHeads(a.Expression, func(id *ast.Identifier) {
			if id.Range != nil {
				selected[id.Range.RangeName()] = true
			}
		})
	}
	seen := map[string]bool{}
	walkIdentifierHeads(r.Conditions, func(id *ast.Identifier) {
		if id.Range == nil {
			return
		}
		name := id.Range.RangeName()
		if selected[name] || seen[name] {
			return
		}
		seen[name] = true
		db, ok := id.Range.(*ast.RangeDatabase)
		if !ok {
			return
		}
		keys, ok := store.IdentifierKeys(db.EntityName)
		if !ok || len(keys) == 0 {
			return
		}
		pk := &ast.Identifier{Name: db.Name, Range: db, Next: &ast.Identifier{Name: keys[0]}}
		r.Values = append(r.Values, &ast.Alias{
			Name:            fmt.Sprintf("%s_%s", db.Name, keys[0]),
			Expression:      pk,
			VisibleInResult: false,
		})
	})
	return nil
}
