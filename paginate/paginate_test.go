package paginate_test

import (
	"context"
	"strings"
	"testing"

	"github.com/quellabs/objectquel/metadata/metadatatest"
	"github.com/quellabs/objectquel/objerr"
	"github.com/quellabs/objectquel/paginate"
	"github.com/quellabs/objectquel/parser"
	"github.com/quellabs/objectquel/semantic"
	"github.com/quellabs/objectquel/sqlgen"
)

func testStore() *metadatatest.Store {
	return metadatatest.New().
		With("Product", metadatatest.Entity{
			Table:       "products",
			Columns:     map[string]string{"id": "id", "name": "name", "price": "price"},
			Identifiers: []string{"id"},
		})
}

func compileWindowed(t *testing.T, src string, params map[string]any) (sql string, bound []any, fetchCalls int) {
	t.Helper()
	r, err := parser.Parse(context.Background(), src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	store := testStore()
	if err := semantic.Run(context.Background(), r, store); err != nil {
		t.Fatalf("semantic error: %v", err)
	}
	if params == nil {
		params = map[string]any{}
	}
	exec := &fakeExecutor{rows: []any{"id1", "id2", "id3"}}
	if err := paginate.Rewrite(context.Background(), r, store, params, exec); err != nil {
		t.Fatalf("rewrite error: %v", err)
	}
	sql, bound, err = sqlgen.Lower(r, store, params)
	if err != nil {
		t.Fatalf("lowering error: %v", err)
	}
	if exec.calls > 0 {
		if r.FullQueryResultCount == nil || *r.FullQueryResultCount != uint64(len(exec.rows)) {
			t.Fatalf("expected full_query_result_count %d, got %v", len(exec.rows), r.FullQueryResultCount)
		}
	} else if r.FullQueryResultCount != nil {
		t.Fatalf("expected no full_query_result_count without an auxiliary fetch, got %d", *r.FullQueryResultCount)
	}
	return sql, bound, exec.calls
}

type fakeExecutor struct {
	rows  []any
	calls int
	err   error
}

func (f *fakeExecutor) FetchColumn(_ context.Context, _ string, _ []any) ([]any, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func TestRewriteDefaultPathSlicesAuxiliaryResult(t *testing.T) {
	sql, bound, calls := compileWindowed(t, "range of p is Product\nretrieve (p.name) sort by p.price window 1 using window_size 2", nil)
	if calls != 1 {
		t.Fatalf("expected exactly one auxiliary fetch, got %d", calls)
	}
	if !strings.Contains(sql, "`p`.`id` IN (?)") {
		t.Fatalf("expected a single-value IN filter for the last page, got %s", sql)
	}
	if len(bound) != 1 || bound[0] != "id3" {
		t.Fatalf("expected bound params [id3], got %#v", bound)
	}
}

func TestRewriteDefaultPathEmptyPageBeyondResults(t *testing.T) {
	sql, bound, _ := compileWindowed(t, "range of p is Product\nretrieve (p.name) sort by p.price window 5 using window_size 2", nil)
	if !strings.Contains(sql, "WHERE FALSE") {
		t.Fatalf("expected the condition to collapse to FALSE for a window past the end, got %s", sql)
	}
	if len(bound) != 0 {
		t.Fatalf("expected no bound params, got %#v", bound)
	}
}

func TestRewriteSkippedWithoutWindow(t *testing.T) {
	_, _, calls := compileWindowed(t, "range of p is Product\nretrieve (p.name)", nil)
	if calls != 0 {
		t.Fatalf("expected no auxiliary fetch without a window, got %d", calls)
	}
}

func TestRewriteSkippedWhenSortInApplicationLogic(t *testing.T) {
	_, _, calls := compileWindowed(t, "range of p is Product\nretrieve (p.name) sort by p.name.toUpper() window 0 using window_size 2", nil)
	if calls != 0 {
		t.Fatalf("expected no auxiliary fetch when sorting in application logic, got %d", calls)
	}
}

func TestRewriteInValuesAreFinalSlicesExistingIn(t *testing.T) {
	r, err := parser.Parse(context.Background(), "@InValuesAreFinal = true\nrange of p is Product\nretrieve (p.name) where p.id in (:ids) window 0 using window_size 1")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	store := testStore()
	if err := semantic.Run(context.Background(), r, store); err != nil {
		t.Fatalf("semantic error: %v", err)
	}
	params := map[string]any{"ids": []any{7, 9, 11}}
	exec := &fakeExecutor{}
	if err := paginate.Rewrite(context.Background(), r, store, params, exec); err != nil {
		t.Fatalf("rewrite error: %v", err)
	}
	if exec.calls != 0 {
		t.Fatalf("expected no auxiliary fetch when an existing IN is already final, got %d", exec.calls)
	}
	if r.FullQueryResultCount == nil || *r.FullQueryResultCount != 3 {
		t.Fatalf("expected full_query_result_count 3, got %v", r.FullQueryResultCount)
	}
	sql, bound, err := sqlgen.Lower(r, store, params)
	if err != nil {
		t.Fatalf("lowering error: %v", err)
	}
	if !strings.Contains(sql, "`p`.`id` IN (?)") {
		t.Fatalf("expected a single-value IN filter, got %s", sql)
	}
	if len(bound) != 1 || bound[0] != 7 {
		t.Fatalf("expected bound params [7], got %#v", bound)
	}
}

func TestRewriteWrapsExecutorFailureAsAdapterError(t *testing.T) {
	r, err := parser.Parse(context.Background(), "range of p is Product\nretrieve (p.name) window 0 using window_size 2")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	store := testStore()
	if err := semantic.Run(context.Background(), r, store); err != nil {
		t.Fatalf("semantic error: %v", err)
	}
	exec := &fakeExecutor{err: errBoom}
	err = paginate.Rewrite(context.Background(), r, store, map[string]any{}, exec)
	if err == nil {
		t.Fatal("expected an error")
	}
	if objerr.Code(err) != objerr.AdapterQueryFailed {
		t.Fatalf("expected code %s, got %s", objerr.AdapterQueryFailed, objerr.Code(err))
	}
}

var errBoom = &executorFailure{}

type executorFailure struct{}

func (*executorFailure) Error() string { return "connection refused" }

