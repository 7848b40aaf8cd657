package semantic

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/quellabs/objectquel/ast"
	"github.com/quellabs/objectquel/metadata"
	"github.com/quellabs/objectquel/objerr"
)

// noDuplicateRanges rejects a query that declares the same range name
// twice.
func noDuplicateRanges(_ context.Context, r *ast.Retrieve, _ metadata.Store, _ *state) error {
	seen := map[string]bool{}
	var dups []string
	for _, rg := range r.Ranges {
		name := rg.RangeName()
		if seen[name] {
			dups = append(dups, name)
		}
		seen[name] = true
	}
	if len(dups) > 0 {
		return objerr.NewSemanticError(objerr.SemanticDuplicateRange, "no-duplicate-ranges",
			"duplicate range name(s): %s", strings.Join(dups, ", "))
	}
	return nil
}

// processRanges binds every identifier whose head names a declared range
// to that range, including the identifiers inside via-clauses.
func processRanges(_ context.Context, r *ast.Retrieve, _ metadata.Store, _ *state) error {
	bind := func(id *ast.Identifier) {
		if rg := r.RangeByName(id.Name); rg != nil {
			id.Range = rg
		}
	}
	forEachIdentifierHead(r, bind)
	forEachViaIdentifierHead(r, bind)
	return nil
}

// plugImplicitRanges synthesizes a RangeDatabase for every identifier head
// that names neither a declared range nor one already bound, treating its
// own name as the entity name. One synthesized range is reused per
// distinct entity within the query; names are the entity's first letter,
// upper-cased, followed by a monotonic three-digit counter (X001, X002,
// ...). via-clauses are excluded: those may only reference declared
// ranges (see viaReferencesRanges).
func plugImplicitRanges(_ context.Context, r *ast.Retrieve, _ metadata.Store, _ *state) error {
	byEntity := map[string]*ast.RangeDatabase{}
	counter := 1
	forEachIdentifierHead(r, func(id *ast.Identifier) {
		if id.Range != nil {
			return
		}
		entity := id.Name
		rg, ok := byEntity[entity]
		if !ok {
			prefix := "X"
			if len(entity) > 0 {
				prefix = strings.ToUpper(string([]rune(entity)[0]))
				if !unicode.IsLetter([]rune(entity)[0]) {
					prefix = "X"
				}
			}
			rg = &ast.RangeDatabase{Name: fmt.Sprintf("%s%03d", prefix, counter), EntityName: entity}
			counter++
			byEntity[entity] = rg
			r.Ranges = append(r.Ranges, rg)
		}
		id.Range = rg
		id.Name = rg.Name
	})
	return nil
}

// requireFromRoot rejects a query with no database range acting as the
// FROM root (a range with no via-clause).
func requireFromRoot(_ context.Context, r *ast.Retrieve, _ metadata.Store, _ *state) error {
	for _, rg := range r.Ranges {
		if db, ok := rg.(*ast.RangeDatabase); ok && db.JoinProperty == nil {
			return nil
		}
	}
	return objerr.NewSemanticError(objerr.SemanticMissingFromRoot, "require-from-root",
		"query has no database range without a via-clause to act as the FROM root")
}

// viaReferencesRanges rejects a via-clause that refers to anything other
// than another declared range: by the time this pass runs, every head
// identifier bound to a range has .Range set by processRanges, and
// plugImplicitRanges deliberately skips via-clauses, so an unbound head
// here is a free identifier.
func viaReferencesRanges(_ context.Context, r *ast.Retrieve, _ metadata.Store, _ *state) error {
	var bad *ast.Identifier
	forEachViaIdentifierHead(r, func(id *ast.Identifier) {
		if bad == nil && id.Range == nil {
			bad = id
		}
	})
	if bad != nil {
		return objerr.NewSemanticError(objerr.SemanticRangeReferencesNonRange, "via-references-ranges",
			"via-clause identifier %q does not reference a declared range", bad.String())
	}
	return nil
}

// addNamespaces qualifies every database range's entity name with the
// store's configured namespace.
func addNamespaces(_ context.Context, r *ast.Retrieve, store metadata.Store, _ *state) error {
	for _, rg := range r.Ranges {
		if db, ok := rg.(*ast.RangeDatabase); ok {
			db.EntityName = store.AddNamespace(db.EntityName)
		}
	}
	return nil
}

// validateEntities rejects a database range whose entity is unknown to
// the store.
func validateEntities(_ context.Context, r *ast.Retrieve, store metadata.Store, _ *state) error {
	for _, rg := range r.Ranges {
		db, ok := rg.(*ast.RangeDatabase)
		if !ok {
			continue
		}
		if !store.Exists(db.EntityName) {
			return objerr.NewSemanticError(objerr.SemanticUnknownEntity, "validate-entities",
				"unknown entity %q (range %q)", db.EntityName, db.Name)
		}
	}
	return nil
}
