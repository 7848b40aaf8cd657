package sqlgen_test

import (
	"context"
	"strings"
	"testing"

	"github.com/quellabs/objectquel/ast"
	"github.com/quellabs/objectquel/metadata"
	"github.com/quellabs/objectquel/metadata/metadatatest"
	"github.com/quellabs/objectquel/parser"
	"github.com/quellabs/objectquel/semantic"
	"github.com/quellabs/objectquel/sqlgen"
)

func testStore() *metadatatest.Store {
	return metadatatest.New().
		With("Product", metadatatest.Entity{
			Table: "products",
			Columns: map[string]string{
				"id": "id", "name": "name", "price": "price", "categoryId": "category_id",
			},
			Identifiers: []string{"id"},
			ManyToOne: map[string]metadata.ManyToOne{
				"category": {TargetEntity: "Category", JoinColumn: "category_id"},
			},
		}).
		With("Category", metadatatest.Entity{
			Table:       "categories",
			Columns:     map[string]string{"id": "id", "name": "name"},
			Identifiers: []string{"id"},
		})
}

func compile(t *testing.T, src string, params map[string]any) (string, []any) {
	t.Helper()
	r, err := parser.Parse(context.Background(), src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if err := semantic.Run(context.Background(), r, testStore()); err != nil {
		t.Fatalf("semantic error: %v", err)
	}
	sql, bound, err := sqlgen.Lower(r, testStore(), params)
	if err != nil {
		t.Fatalf("lowering error: %v", err)
	}
	return sql, bound
}

func TestLowerSimpleSelect(t *testing.T) {
	sql, bound := compile(t, "range of p is Product\nretrieve (p.name) where p.price > :min", map[string]any{"min": 10})
	if !strings.Contains(sql, "FROM `products` as `p`") {
		t.Fatalf("expected FROM clause, got %s", sql)
	}
	if !strings.Contains(sql, "`p`.`name` as `name`") {
		t.Fatalf("expected projected name field, got %s", sql)
	}
	if !strings.Contains(sql, "WHERE (`p`.`price` > ?)") {
		t.Fatalf("expected WHERE clause with placeholder, got %s", sql)
	}
	if len(bound) != 1 || bound[0] != 10 {
		t.Fatalf("expected bound params [10], got %#v", bound)
	}
}

// A range that carries a via-clause is, by definition, never the FROM
// root (requireFromRoot demands a range without one) — so in these
// fixtures `c` (no via) is the root and `p` (via p.category = c.id) is
// the joined-in range.
func TestLowerRequiredJoin(t *testing.T) {
	sql, _ := compile(t, `
range of p is Product via p.category = c.id
range of c is Category
retrieve (p.name) where p.price > 10`, nil)
	if !strings.Contains(sql, "FROM `categories` as `c`") {
		t.Fatalf("expected categories as FROM root, got %s", sql)
	}
	if !strings.Contains(sql, "INNER JOIN `products` as `p` ON (`p`.`category_id` = `c`.`id`)") {
		t.Fatalf("expected inner join on rewritten column, got %s", sql)
	}
}

func TestLowerOptionalJoin(t *testing.T) {
	sql, _ := compile(t, `
range of p is Product via p.category = c.id
range of c is Category
retrieve (p.name)`, nil)
	if !strings.Contains(sql, "LEFT JOIN `products` as `p`") {
		t.Fatalf("expected left join for non-required range, got %s", sql)
	}
}

func TestLowerEntityExpansion(t *testing.T) {
	sql, _ := compile(t, "range of p is Product\nretrieve (p)", nil)
	if !strings.Contains(sql, "`p`.`category_id` as `p_categoryId`") || !strings.Contains(sql, "`p`.`name` as `p_name`") {
		t.Fatalf("expected expanded entity columns, got %s", sql)
	}
}

func TestLowerIsNull(t *testing.T) {
	sql, _ := compile(t, "range of p is Product\nretrieve (p.name) where p.categoryId is null", nil)
	if !strings.Contains(sql, "`p`.`category_id` IS NULL") {
		t.Fatalf("expected IS NULL rendering, got %s", sql)
	}
}

func TestLowerDistinct(t *testing.T) {
	sql, _ := compile(t, "range of p is Product\nretrieve unique (p.name)", nil)
	if !strings.HasPrefix(sql, "SELECT DISTINCT ") {
		t.Fatalf("expected DISTINCT, got %s", sql)
	}
}

func TestLowerInWithArrayParam(t *testing.T) {
	sql, bound := compile(t, "range of p is Product\nretrieve (p.name) where p.id in (:ids)", map[string]any{"ids": []any{1, 2, 3}})
	if !strings.Contains(sql, "`p`.`id` IN (?, ?, ?)") {
		t.Fatalf("expected expanded IN placeholders, got %s", sql)
	}
	if len(bound) != 3 {
		t.Fatalf("expected 3 bound params, got %#v", bound)
	}
}

func TestLowerOrderByFieldWhenInValuesAreFinal(t *testing.T) {
	sql, bound := compile(t, "@InValuesAreFinal = true\nrange of p is Product\nretrieve (p.name) where p.id in (:ids)",
		map[string]any{"ids": []any{3, 1, 2}})
	if !strings.Contains(sql, "ORDER BY FIELD(`p`.`id`, ?, ?, ?)") {
		t.Fatalf("expected FIELD() ordering, got %s", sql)
	}
	if len(bound) != 6 {
		t.Fatalf("expected 3 IN placeholders + 3 FIELD placeholders bound twice, got %d: %#v", len(bound), bound)
	}
}
