package objectquel_test

import (
	"context"
	"strings"
	"testing"

	"github.com/quellabs/objectquel"
	"github.com/quellabs/objectquel/metadata"
	"github.com/quellabs/objectquel/metadata/metadatatest"
)

func testStore() *metadatatest.Store {
	return metadatatest.New().
		With("Product", metadatatest.Entity{
			Table:       "products",
			Columns:     map[string]string{"id": "id", "name": "name", "price": "price", "categoryId": "category_id"},
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
		})
}

type fakeExecutor struct{ rows []any }

func (f *fakeExecutor) FetchColumn(context.Context, string, []any) ([]any, error) {
	return f.rows, nil
}

func TestCompileTrivialProjection(t *testing.T) {
	cq, err := objectquel.Compile(context.Background(), "range of p is Product\nretrieve (p.name) where p.price > :min",
		map[string]any{"min": 10}, testStore(), nil)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	if !strings.Contains(cq.SQL, "FROM `products` as `p`") {
		t.Fatalf("unexpected SQL: %s", cq.SQL)
	}
	if len(cq.BoundParams) != 1 || cq.BoundParams[0] != 10 {
		t.Fatalf("unexpected bound params: %#v", cq.BoundParams)
	}
	if cq.SortInApplicationLogic {
		t.Fatal("expected sort_in_application_logic = false")
	}
}

func TestCompileMissingExecutorForWindowedQuery(t *testing.T) {
	_, err := objectquel.Compile(context.Background(), "range of p is Product\nretrieve (p.name) window 0 using window_size 2",
		nil, testStore(), nil)
	if err == nil {
		t.Fatal("expected an error when a window is present without a QueryExecutor")
	}
}

func TestCompilePaginationDefaultPath(t *testing.T) {
	exec := &fakeExecutor{rows: []any{"id1", "id2", "id3"}}
	cq, err := objectquel.Compile(context.Background(),
		"range of p is Product\nretrieve (p) sort by p.price window 1 using window_size 2",
		map[string]any{}, testStore(), exec)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	if cq.FullQueryResultCount == nil || *cq.FullQueryResultCount != 3 {
		t.Fatalf("expected full_query_result_count 3, got %v", cq.FullQueryResultCount)
	}
	if !strings.Contains(cq.SQL, "`p`.`id` IN (?)") {
		t.Fatalf("expected windowed IN filter, got %s", cq.SQL)
	}
}

func TestExplainSummarizesRangesAndJoins(t *testing.T) {
	cq, err := objectquel.Compile(context.Background(), `
range of p is Product via p.category = c.id
range of c is Category
retrieve (p.name)`, nil, testStore(), nil)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	explain := cq.Explain()
	if !strings.Contains(explain, "from-root") || !strings.Contains(explain, "inner join") {
		t.Fatalf("expected explain to mention from-root and inner join, got %q", explain)
	}
}

func TestExplainMentionsApplicationSort(t *testing.T) {
	cq, err := objectquel.Compile(context.Background(), "range of u is Product\nretrieve (u.name) sort by u.name.toUpper()",
		nil, testStore(), nil)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	if !strings.Contains(cq.Explain(), "application logic") {
		t.Fatalf("expected explain to mention application-logic sort, got %q", cq.Explain())
	}
}
