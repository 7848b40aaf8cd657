package semantic

import (
	"context"

	"github.com/quellabs/objectquel/ast"
	"github.com/quellabs/objectquel/metadata"
)

// detectSortMode flips SortInApplicationLogic when a sort expression
// can't be expressed as a SQL ORDER BY term: either it calls a method, or
// it sorts on a JSON-sourced range.
func detectSortMode(_ context.Context, r *ast.Retrieve, _ metadata.Store, _ *state) error {
	for _, s := range r.Sort {
		if ast.ContainsMethodCall(s.Expr) {
			r.SortInApplicationLogic = true
			return nil
		}
		jsonTrigger := false
		walkIdentifierHeads(s.Expr, func(id *ast.Identifier) {
			if _, ok := id.Range.(*ast.RangeJSON); ok {
				jsonTrigger = true
			}
		})
		if jsonTrigger {
			r.SortInApplicationLogic = true
			return nil
		}
	}
	return nil
}
