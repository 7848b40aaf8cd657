// Package paginate converts a validated Retrieve's window/window_size into
// a deterministic primary-key IN filter (spec.md §4.6). It is the only
// package in the compiler that issues SQL: everywhere else works purely on
// the AST, and this package's one blocking call goes through the
// QueryExecutor interface rather than a concrete driver, mirroring the way
// the rest of the pack keeps a hand-written core free of its out-of-process
// collaborators (compare holomush's repository-interface pattern in
// internal/world/repository.go, adapted here to a single fetch rather than
// a full CRUD surface).
package paginate

import (
	"context"
	"fmt"

	"github.com/quellabs/objectquel/ast"
	"github.com/quellabs/objectquel/internal/obsmetrics"
	"github.com/quellabs/objectquel/internal/obstrace"
	"github.com/quellabs/objectquel/metadata"
	"github.com/quellabs/objectquel/objerr"
	"github.com/quellabs/objectquel/sqlgen"
)

// QueryExecutor is the sole interface through which the compiler issues
// SQL. Concrete implementations (see adapter/postgres) own connection
// management, retries, and driver-error classification; the rewriter
// treats every error it returns as an unrecoverable AdapterError and never
// retries itself (spec.md §7).
type QueryExecutor interface {
	FetchColumn(ctx context.Context, sql string, params []any) ([]any, error)
}

// Rewrite mutates r in place so that, once lowered, its conditions contain
// exactly one IN constraint on the main range's primary key identifier
// restricted to the requested window. It is a no-op when r has no window,
// is sort-in-application-logic, or the store reports no resolvable main
// range primary key (spec.md §4.6 step 1-2). params is the same
// named-parameter map that will later be passed to sqlgen.Lower; Rewrite
// may add synthetic entries to it for the primary keys it resolves.
func Rewrite(ctx context.Context, r *ast.Retrieve, store metadata.Store, params map[string]any, exec QueryExecutor) error {
	if r.Window == nil || r.SortInApplicationLogic {
		return nil
	}
	key, ok := store.PrimaryKeyOfMainRange(r)
	if !ok {
		return nil
	}

	start := int(*r.Window) * int(*r.WindowSize)
	end := start + int(*r.WindowSize)

	if directiveTrue(r, "InValuesAreFinal") {
		if existing, found := findMainRangeIn(r.Conditions, key); found {
			values, err := resolveInValues(existing, params)
			if err != nil {
				return err
			}
			count := uint64(len(values))
			r.FullQueryResultCount = &count
			applyWindow(r, existing, mainRangeIdentifier(key), clampSlice(values, start, end), params)
			return nil
		}
	}

	clone := r.Clone()
	clone.Unique = true
	clone.Window, clone.WindowSize = nil, nil
	cloneRoot := metadata.MainRangeOf(clone)
	clone.Values = []*ast.Alias{{
		Name:            "primary",
		Expression:      &ast.Identifier{Name: cloneRoot.Name, Next: &ast.Identifier{Name: key.PrimaryKey}, Range: cloneRoot},
		VisibleInResult: true,
	}}

	sql, bound, err := sqlgen.Lower(clone, store, params)
	if err != nil {
		return err
	}
	fetchCtx, span := obstrace.StartPaginationFetch(ctx, *r.Window, *r.WindowSize)
	rows, err := exec.FetchColumn(fetchCtx, sql, bound)
	obstrace.End(span, err)
	obsmetrics.RecordPaginationRoundTrip()
	if err != nil {
		return objerr.NewAdapterError(sql, err)
	}

	count := uint64(len(rows))
	r.FullQueryResultCount = &count
	sliced := clampSlice(rows, start, end)

	existing, _ := findMainRangeIn(r.Conditions, key)
	applyWindow(r, existing, mainRangeIdentifier(key), sliced, params)
	return nil
}

// applyWindow writes sliced back into the AST: onto an existing IN node if
// one was found, as a freshly AND-ed IN clause otherwise. A window that
// slices to zero rows collapses the whole condition to a literal FALSE
// instead of an empty IN (...), which sqlgen rejects as unrepresentable
// and which no SQL dialect accepts as valid syntax.
func applyWindow(r *ast.Retrieve, existing *ast.In, identifier *ast.Identifier, sliced []any, params map[string]any) {
	if len(sliced) == 0 {
		r.Conditions = &ast.Bool{Value: false}
		return
	}
	if existing != nil {
		existing.Parameters = syntheticParameters(identifier.Last().Name, sliced, params)
		return
	}
	in := newInClause(identifier, sliced, params)
	if r.Conditions == nil {
		r.Conditions = in
	} else {
		r.Conditions = &ast.BinaryOperator{Op: ast.OpAnd, Left: r.Conditions, Right: in}
	}
}

func mainRangeIdentifier(key metadata.MainRangeKey) *ast.Identifier {
	return &ast.Identifier{
		Name:  key.Range.RangeName(),
		Next:  &ast.Identifier{Name: key.PrimaryKey},
		Range: key.Range,
	}
}

func directiveTrue(r *ast.Retrieve, name string) bool {
	dv, ok := r.Directives[name]
	return ok && dv.Kind == ast.DirectiveBool && dv.Bool
}

// findMainRangeIn locates the IN test on key's range/primary key within
// cond, if any. It walks the whole condition tree, including under Or and
// Not, and returns the first match in pre-order, the same search the
// lowerer uses for FIELD() ordering.
func findMainRangeIn(cond ast.Expr, key metadata.MainRangeKey) (*ast.In, bool) {
	var found *ast.In
	ast.Walk(cond, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		in, ok := n.(*ast.In)
		if !ok {
			return true
		}
		if in.Identifier.Range == key.Range && in.Identifier.Last().Name == key.PrimaryKey {
			found = in
		}
		return true
	})
	return found, found != nil
}

// resolveInValues expands an existing In's parameter list into concrete
// Go values, resolving named parameters (including array-valued ones)
// against params the same way sqlgen does when it renders IN lists.
func resolveInValues(in *ast.In, params map[string]any) ([]any, error) {
	var values []any
	for _, p := range in.Parameters {
		switch t := p.(type) {
		case *ast.Number:
			if t.Kind == ast.NumberFloat {
				values = append(values, t.Float)
			} else {
				values = append(values, t.Int)
			}
		case *ast.StringLit:
			values = append(values, t.Value)
		case *ast.Parameter:
			v, ok := params[t.Name]
			if !ok {
				return nil, objerr.NewLoweringError(objerr.LoweringUnrepresentableExpression,
					"no value supplied for parameter :%s", t.Name)
			}
			if vs, ok := v.([]any); ok {
				values = append(values, vs...)
				continue
			}
			values = append(values, v)
		default:
			return nil, objerr.NewLoweringError(objerr.LoweringUnrepresentableExpression,
				"'in' parameter must be a number, string, or bind parameter, got %T", p)
		}
	}
	return values, nil
}

// clampSlice returns values[start:end], clamped to values' bounds. A
// window past the end of the result set yields an empty slice rather than
// panicking (spec.md §8: "a query with window 0 using window_size 10 runs
// the primary-key fetch but slices [0, 10)" — the same clamp applies to
// any window, not just the first).
func clampSlice(values []any, start, end int) []any {
	if start < 0 {
		start = 0
	}
	if start >= len(values) {
		return nil
	}
	if end > len(values) {
		end = len(values)
	}
	return values[start:end]
}

func newInClause(identifier *ast.Identifier, sliced []any, params map[string]any) *ast.In {
	return &ast.In{
		Identifier: identifier,
		Parameters: syntheticParameters(identifier.Last().Name, sliced, params),
	}
}

// syntheticParameters binds each value in sliced to a freshly named
// parameter under params and returns the corresponding Parameter nodes, in
// order. Values are always rebound as placeholders rather than inlined
// literals, since a resolved primary key may be of any underlying Go type
// (string, int64, UUID, ...), not only the numeric literal shape the
// grammar allows for a compile-time `in (...)` list.
func syntheticParameters(property string, sliced []any, params map[string]any) []ast.Expr {
	out := make([]ast.Expr, len(sliced))
	for i, v := range sliced {
		name := fmt.Sprintf("__page_%s_%d", property, i)
		params[name] = v
		out[i] = &ast.Parameter{Name: name}
	}
	return out
}
