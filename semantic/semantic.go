// Package semantic runs the ordered pass pipeline that turns a parsed
// Retrieve into one ready for lowering: resolving every identifier to a
// range, validating entities and properties against a metadata.Store,
// deciding which ranges must be inner-joined, and erasing constructs
// (EXISTS) that have no SQL representation of their own.
//
// Passes run in a fixed order and mutate the Retrieve in place; the first
// pass to fail halts the pipeline, following the teacher's type-switch
// analysis style (_examples/oarkflow-sqlparser/analyze.go) rather than
// collecting every error before reporting.
package semantic

import (
	"context"

	"github.com/quellabs/objectquel/ast"
	"github.com/quellabs/objectquel/metadata"
	"github.com/quellabs/objectquel/objerr"
)

// pass is one step of the pipeline. name identifies it in SemanticError.Pass.
type pass struct {
	name string
	run  func(context.Context, *ast.Retrieve, metadata.Store, *state) error
}

// state carries information one pass produces and a later pass consumes,
// where that information can't be recovered from the Retrieve itself once
// an earlier pass has rewritten it.
type state struct {
	// wholeEntityMacro marks identifier nodes substituted in by plugMacros
	// whose macro body was itself a bare range reference, not a property
	// expression, so processMacros can reject them if used in arithmetic.
	wholeEntityMacro map[ast.Expr]bool

	// relationProperty records, per range with a via-clause, the original
	// relation property name used before transformViaRelations rewrote it
	// to a physical join column, so requireByAnnotation can still look up
	// the @RequiredRelation annotation under its declared name.
	relationProperty map[*ast.RangeDatabase]string
}

func newState() *state {
	return &state{
		wholeEntityMacro: map[ast.Expr]bool{},
		relationProperty: map[*ast.RangeDatabase]string{},
	}
}

var pipeline = []pass{
	{"language-version", checkLanguageVersion},
	{"plug-macros", plugMacros},
	{"no-duplicate-ranges", noDuplicateRanges},
	{"process-ranges", processRanges},
	{"process-macros", processMacros},
	{"plug-implicit-ranges", plugImplicitRanges},
	{"require-from-root", requireFromRoot},
	{"via-references-ranges", viaReferencesRanges},
	{"add-namespaces", addNamespaces},
	{"validate-entities", validateEntities},
	{"validate-via-relations", validateViaRelations},
	{"transform-via-relations", transformViaRelations},
	{"validate-properties", validateProperties},
	{"reject-entity-arithmetic", rejectEntityArithmetic},
	{"plug-alias-patterns", plugAliasPatterns},
	{"require-by-annotation", requireByAnnotation},
	{"require-by-where-use", requireByWhereUse},
	{"relax-required-on-is-null", relaxRequiredOnIsNull},
	{"handle-exists", handleExists},
	{"gather-reference-joins", gatherReferenceJoins},
	{"detect-sort-mode", detectSortMode},
}

// Run executes every pass in order against r, stopping at the first
// failure. store resolves entity and relationship metadata; it is never
// written through.
func Run(ctx context.Context, r *ast.Retrieve, store metadata.Store) error {
	st := newState()
	for _, p := range pipeline {
		select {
		case <-ctx.Done():
			return objerr.Canceled(ctx.Err())
		default:
		}
		if err := p.run(ctx, r, store, st); err != nil {
			return err
		}
	}
	return nil
}
