package semantic

import (
	"context"

	"github.com/quellabs/objectquel/ast"
	"github.com/quellabs/objectquel/metadata"
	"github.com/quellabs/objectquel/objerr"
)

// viaOperands returns the two identifier operands of a range's via-clause
// equality, or nil, nil if the clause isn't a simple identifier-to-identifier
// comparison (anything more exotic is left untouched by these two passes
// and is still free to be a correct, if unjoined, condition evaluated at
// lowering time).
func viaOperands(db *ast.RangeDatabase) (*ast.Identifier, *ast.Identifier) {
	bin, ok := db.JoinProperty.(*ast.BinaryOperator)
	if !ok || bin.Op != ast.OpEq {
		return nil, nil
	}
	left, lok := bin.Left.(*ast.Identifier)
	right, rok := bin.Right.(*ast.Identifier)
	if !lok || !rok {
		return nil, nil
	}
	return left, right
}

// ownSide returns the operand of a via-clause equality that belongs to db
// itself (as opposed to the range db is joining onto).
func ownSide(db *ast.RangeDatabase, left, right *ast.Identifier) *ast.Identifier {
	if left.Range == db {
		return left
	}
	if right.Range == db {
		return right
	}
	return nil
}

// propertyResolves reports whether property is a known column, or a known
// relation, on entity.
func propertyResolves(store metadata.Store, entity, property string) bool {
	if cm, ok := store.ColumnMap(entity); ok {
		if _, ok := cm[property]; ok {
			return true
		}
	}
	if _, ok := store.ManyToOne(entity)[property]; ok {
		return true
	}
	if _, ok := store.OneToOne(entity)[property]; ok {
		return true
	}
	if _, ok := store.OneToMany(entity)[property]; ok {
		return true
	}
	return false
}

// validateViaRelations rejects a via-clause that references a property
// not declared, as either a column or a relation, on its owning entity.
func validateViaRelations(_ context.Context, r *ast.Retrieve, store metadata.Store, _ *state) error {
	for _, rg := range r.Ranges {
		db, ok := rg.(*ast.RangeDatabase)
		if !ok || db.JoinProperty == nil {
			continue
		}
		left, right := viaOperands(db)
		if left == nil {
			continue
		}
		for _, id := range [2]*ast.Identifier{left, right} {
			if id.Range == nil {
				continue
			}
			entity := entityNameOf(id.Range)
			prop := id.Last().Name
			if id.Next == nil {
				continue // whole-range reference, not a property access
			}
			if !propertyResolves(store, entity, prop) {
				return objerr.NewSemanticError(objerr.SemanticInvalidViaRelation, "validate-via-relations",
					"via-clause on range %q references unknown property %q on entity %q", db.Name, prop, entity)
			}
		}
	}
	return nil
}

func entityNameOf(rg ast.Range) string {
	if db, ok := rg.(*ast.RangeDatabase); ok {
		return db.EntityName
	}
	return ""
}

// transformViaRelations rewrites a via-clause's relation property (one
// declared via @ManyToOne or @OneToOne, not a plain column) into the
// physical join column backing that relation, and records the original
// property name so requireByAnnotation can still find its
// @RequiredRelation annotation by the name the query author wrote.
func transformViaRelations(_ context.Context, r *ast.Retrieve, store metadata.Store, st *state) error {
	for _, rg := range r.Ranges {
		db, ok := rg.(*ast.RangeDatabase)
		if !ok || db.JoinProperty == nil {
			continue
		}
		left, right := viaOperands(db)
		if left == nil {
			continue
		}
		own := ownSide(db, left, right)
		if own == nil || own.Next == nil {
			continue
		}
		tail := own.Last()
		entity := entityNameOf(own.Range)
		if rel, ok := store.ManyToOne(entity)[tail.Name]; ok {
			st.relationProperty[db] = tail.Name
			tail.Name = rel.JoinColumn
			continue
		}
		if rel, ok := store.OneToOne(entity)[tail.Name]; ok {
			st.relationProperty[db] = tail.Name
			tail.Name = rel.JoinColumn
		}
	}
	return nil
}
