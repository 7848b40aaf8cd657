package semantic_test

import (
	"context"
	"testing"

	"github.com/quellabs/objectquel/ast"
	"github.com/quellabs/objectquel/metadata"
	"github.com/quellabs/objectquel/metadata/metadatatest"
	"github.com/quellabs/objectquel/objerr"
	"github.com/quellabs/objectquel/parser"
	"github.com/quellabs/objectquel/semantic"
)

func testStore() *metadatatest.Store {
	return metadatatest.New().
		With("Product", metadatatest.Entity{
			Table: "products",
			Columns: map[string]string{
				"id": "id", "name": "name", "price": "price",
				"categoryId": "category_id", "deletedAt": "deleted_at",
			},
			Identifiers: []string{"id"},
			ManyToOne: map[string]metadata.ManyToOne{
				"category": {TargetEntity: "Category", JoinColumn: "category_id"},
			},
			Annotations: []metadata.AnnotationGroup{
				{Property: "category", Annotations: []metadata.Annotation{{Name: "RequiredRelation"}}},
			},
		}).
		With("Category", metadatatest.Entity{
			Table:       "categories",
			Columns:     map[string]string{"id": "id", "name": "name"},
			Identifiers: []string{"id"},
		}).
		With("x", metadatatest.Entity{Table: "xs", Identifiers: []string{"id"}}).
		With("u", metadatatest.Entity{Table: "us", Identifiers: []string{"id"}})
}

func mustParse(t *testing.T, src string) *ast.Retrieve {
	t.Helper()
	r, err := parser.Parse(context.Background(), src)
	if err != nil {
		t.Fatalf("parse error: %v\nsource: %s", err, src)
	}
	return r
}

func TestRequiredRangeViaAnnotation(t *testing.T) {
	r := mustParse(t, `
range of p is Product via p.category = c.id
range of c is Category
retrieve (p.name, c.name as categoryName) where p.price > 10`)

	if err := semantic.Run(context.Background(), r, testStore()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := r.RangeByName("p").(*ast.RangeDatabase)
	if !p.Required {
		t.Fatal("expected p required via @RequiredRelation, but p.Required is false")
	}
	if p.JoinProperty.(*ast.BinaryOperator).Left.(*ast.Identifier).Last().Name != "category_id" {
		t.Fatalf("expected via-clause rewritten to physical column, got %#v", p.JoinProperty)
	}
}

func TestExistsForcesRequiredAndErases(t *testing.T) {
	r := mustParse(t, `
range of p is Product via p.category = c.id
range of c is Category
retrieve (p.name) where exists(c)`)

	if err := semantic.Run(context.Background(), r, testStore()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := r.RangeByName("c").(*ast.RangeDatabase)
	if !c.Required {
		t.Fatal("expected c required by exists(c)")
	}
	if r.Conditions != nil {
		t.Fatalf("expected conditions erased to nil, got %#v", r.Conditions)
	}
}

func TestIsNullRelaxesRequired(t *testing.T) {
	r := mustParse(t, `
range of p is Product via p.category = c.id
range of c is Category
retrieve (p.name) where c.name is null`)

	if err := semantic.Run(context.Background(), r, testStore()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := r.RangeByName("c").(*ast.RangeDatabase)
	if c.Required {
		t.Fatal("expected c relaxed to optional by 'is null' test")
	}
}

func TestImplicitRangeSynthesis(t *testing.T) {
	r := mustParse(t, "retrieve (x)")
	if err := semantic.Run(context.Background(), r, testStore()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Ranges) != 1 {
		t.Fatalf("expected exactly one synthesized range, got %d", len(r.Ranges))
	}
	db := r.Ranges[0].(*ast.RangeDatabase)
	if db.Name != "X001" || db.EntityName != "x" {
		t.Fatalf("expected synthesized range X001/x, got %#v", db)
	}
}

func TestUnknownPropertyRejected(t *testing.T) {
	r := mustParse(t, "range of p is Product\nretrieve (p.bogus)")
	err := semantic.Run(context.Background(), r, testStore())
	if objerr.Code(err) != objerr.SemanticUnknownProperty {
		t.Fatalf("expected SemanticUnknownProperty, got %v (%q)", err, objerr.Code(err))
	}
}

func TestDuplicateRangeRejected(t *testing.T) {
	r := mustParse(t, "range of p is Product\nrange of p is Category\nretrieve (p)")
	err := semantic.Run(context.Background(), r, testStore())
	if objerr.Code(err) != objerr.SemanticDuplicateRange {
		t.Fatalf("expected SemanticDuplicateRange, got %v (%q)", err, objerr.Code(err))
	}
}

func TestMissingFromRootRejected(t *testing.T) {
	r := mustParse(t, `
range of p is Product via p.category = c.id
range of c is Category via c.id = p.category
retrieve (p)`)
	err := semantic.Run(context.Background(), r, testStore())
	if objerr.Code(err) != objerr.SemanticMissingFromRoot {
		t.Fatalf("expected SemanticMissingFromRoot, got %v (%q)", err, objerr.Code(err))
	}
}

func TestEntityArithmeticRejected(t *testing.T) {
	r := mustParse(t, "range of p is Product\nretrieve (p.name) where p + 1 = 2")
	err := semantic.Run(context.Background(), r, testStore())
	if objerr.Code(err) != objerr.SemanticEntityArithmetic {
		t.Fatalf("expected SemanticEntityArithmetic, got %v (%q)", err, objerr.Code(err))
	}
}

func TestSortModeDetectionMethodCall(t *testing.T) {
	r := mustParse(t, "retrieve (u) sort by u.displayName()")
	if err := semantic.Run(context.Background(), r, testStore()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.SortInApplicationLogic {
		t.Fatal("expected SortInApplicationLogic set by method-call sort key")
	}
}

func TestAliasPatternOnWholeEntity(t *testing.T) {
	r := mustParse(t, "range of p is Product\nretrieve (p)")
	if err := semantic.Run(context.Background(), r, testStore()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Values[0].AliasPattern == nil || *r.Values[0].AliasPattern != "p." {
		t.Fatalf("expected alias pattern 'p.', got %#v", r.Values[0].AliasPattern)
	}
}

func TestLanguageVersionRejected(t *testing.T) {
	r := mustParse(t, "@LanguageVersion 9\nrange of p is Product\nretrieve (p.id)")
	err := semantic.Run(context.Background(), r, testStore())
	if objerr.Code(err) != objerr.SemanticUnsupportedVersion {
		t.Fatalf("expected SemanticUnsupportedVersion, got %v (%q)", err, objerr.Code(err))
	}
}
