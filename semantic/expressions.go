package semantic

import (
	"context"

	"github.com/quellabs/objectquel/ast"
	"github.com/quellabs/objectquel/metadata"
	"github.com/quellabs/objectquel/objerr"
)

// validateProperties rejects a property reference that doesn't resolve to
// a column or relation on its range's entity. Ranges sourced from JSON
// have no catalog to validate against and are skipped.
func validateProperties(_ context.Context, r *ast.Retrieve, store metadata.Store, _ *state) error {
	var bad error
	forEachIdentifierHead(r, func(id *ast.Identifier) {
		if bad != nil || id.Next == nil || id.Range == nil {
			return
		}
		db, ok := id.Range.(*ast.RangeDatabase)
		if !ok {
			return
		}
		prop := id.Last().Name
		if !propertyResolves(store, db.EntityName, prop) {
			bad = objerr.NewSemanticError(objerr.SemanticUnknownProperty, "validate-properties",
				"unknown property %q on entity %q (range %q)", prop, db.EntityName, db.Name)
		}
	})
	return bad
}

// rejectEntityArithmetic rejects a scalar comparison, arithmetic
// operator, or `in` test whose operand is a bare reference to an entire
// entity rather than one of its properties.
func rejectEntityArithmetic(_ context.Context, r *ast.Retrieve, _ metadata.Store, _ *state) error {
	var bad error
	scan := func(e ast.Expr) {
		if bad != nil {
			return
		}
		ast.Walk(e, func(n ast.Node) bool {
			if bad != nil {
				return false
			}
			switch t := n.(type) {
			case *ast.BinaryOperator:
				if !t.Op.IsLogical() {
					if isWholeEntity(t.Left) || isWholeEntity(t.Right) {
						bad = objerr.NewSemanticError(objerr.SemanticEntityArithmetic, "reject-entity-arithmetic",
							"operator %q cannot be applied to an entire entity", t.Op)
					}
				}
			case *ast.In:
				if isWholeEntity(t.Identifier) {
					bad = objerr.NewSemanticError(objerr.SemanticEntityArithmetic, "reject-entity-arithmetic",
						"'in' cannot test an entire entity")
				}
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

// plugAliasPatterns records an entity-expansion pattern on every value
// alias whose expression denotes an entire entity, so the SQL lowerer
// knows to expand it into one column per field aliased as
// `range`.`column` AS `range_property` instead of rendering a single
// column reference.
func plugAliasPatterns(_ context.Context, r *ast.Retrieve, _ metadata.Store, _ *state) error {
	for _, a := range r.Values {
		if isWholeEntity(a.Expression) {
			id := a.Expression.(*ast.Identifier)
			pattern := id.Range.RangeName() + "."
			a.AliasPattern = &pattern
		}
	}
	return nil
}
