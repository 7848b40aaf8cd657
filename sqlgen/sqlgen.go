// Package sqlgen lowers a validated Retrieve into the single SQL dialect
// ObjectQuel targets: backtick-quoted identifiers, `?` placeholders, and
// MySQL's FIELD() for pagination ordering. It is the only package in the
// compiler that renders SQL text; everything before it works purely on
// the AST.
//
// The renderer follows the teacher's strings.Builder-per-clause technique
// (_examples/oarkflow-sqlparser/dialect.go's renderSelect family) without
// its multi-dialect target selection: this compiler has exactly one
// output contract, so there is nothing to select between.
package sqlgen

import (
	"sort"
	"strconv"
	"strings"

	"github.com/quellabs/objectquel/ast"
	"github.com/quellabs/objectquel/metadata"
	"github.com/quellabs/objectquel/objerr"
)

// Lower renders r to SQL against store, resolving named parameters from
// params. It returns the statement and the bound-parameter vector in
// strict left-to-right textual order (spec.md §8, invariant 4). r must
// already have been through semantic.Run and, if paginated, the
// pagination rewriter; Lower does not validate or mutate the tree.
func Lower(r *ast.Retrieve, store metadata.Store, params map[string]any) (string, []any, error) {
	l := &lowerer{r: r, store: store, params: params}
	return l.lower()
}

type lowerer struct {
	r      *ast.Retrieve
	store  metadata.Store
	params map[string]any
	bound  []any
}

func (l *lowerer) lower() (string, []any, error) {
	fields, err := l.renderFields()
	if err != nil {
		return "", nil, err
	}
	from, err := l.renderFrom()
	if err != nil {
		return "", nil, err
	}
	joins, err := l.renderJoins()
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if l.r.Unique {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(strings.Join(fields, ", "))
	b.WriteString(" FROM ")
	b.WriteString(from)
	for _, j := range joins {
		b.WriteString(" ")
		b.WriteString(j)
	}

	if l.r.Conditions != nil {
		cond, err := l.renderExpr(l.r.Conditions)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" WHERE ")
		b.WriteString(cond)
	}

	order, err := l.renderOrderBy()
	if err != nil {
		return "", nil, err
	}
	if order != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(order)
	}

	return b.String(), l.bound, nil
}

// ---- Fields -----------------------------------------------------------

func (l *lowerer) renderFields() ([]string, error) {
	var all []string
	for _, a := range l.r.Values {
		fs, err := l.renderAliasFields(a)
		if err != nil {
			return nil, err
		}
		all = append(all, fs...)
	}
	seen := map[string]bool{}
	var deduped []string
	for _, f := range all {
		if seen[f] {
			continue
		}
		seen[f] = true
		deduped = append(deduped, f)
	}
	if len(deduped) == 0 {
		return nil, objerr.NewLoweringError(objerr.LoweringUnrepresentableExpression, "query selects no fields")
	}
	return deduped, nil
}

func (l *lowerer) renderAliasFields(a *ast.Alias) ([]string, error) {
	if a.AliasPattern == nil {
		expr, err := l.renderExpr(a.Expression)
		if err != nil {
			return nil, err
		}
		return []string{expr + " as `" + a.Name + "`"}, nil
	}

	id, ok := a.Expression.(*ast.Identifier)
	if !ok || id.Range == nil {
		return nil, objerr.NewLoweringError(objerr.LoweringUnrepresentableExpression,
			"alias %q has an entity alias pattern but its expression isn't a resolved range reference", a.Name)
	}
	db, ok := id.Range.(*ast.RangeDatabase)
	if !ok {
		return nil, objerr.NewLoweringError(objerr.LoweringUnrepresentableExpression,
			"alias %q expands a JSON-sourced range, which has no column map", a.Name)
	}
	cols, ok := l.store.ColumnMap(db.EntityName)
	if !ok {
		return nil, objerr.NewLoweringError(objerr.LoweringUnrepresentableExpression,
			"alias %q expands unknown entity %q", a.Name, db.EntityName)
	}
	props := make([]string, 0, len(cols))
	for prop := range cols {
		props = append(props, prop)
	}
	sort.Strings(props)

	fields := make([]string, 0, len(props))
	for _, prop := range props {
		col := cols[prop]
		fields = append(fields, "`"+db.Name+"`.`"+col+"` as `"+db.Name+"_"+prop+"`")
	}
	return fields, nil
}

// ---- FROM / JOIN --------------------------------------------------------

func (l *lowerer) renderFrom() (string, error) {
	var roots []string
	for _, rg := range l.r.Ranges {
		db, ok := rg.(*ast.RangeDatabase)
		if !ok || db.JoinProperty != nil {
			continue
		}
		table, ok := l.store.OwningTable(db.EntityName)
		if !ok {
			return "", objerr.NewLoweringError(objerr.LoweringUnrepresentableExpression,
				"unknown table for entity %q (range %q)", db.EntityName, db.Name)
		}
		roots = append(roots, "`"+table+"` as `"+db.Name+"`")
	}
	if len(roots) == 0 {
		return "", objerr.NewLoweringError(objerr.LoweringUnrepresentableExpression, "query has no FROM-root range")
	}
	return strings.Join(roots, ", "), nil
}

func (l *lowerer) renderJoins() ([]string, error) {
	var joins []string
	for _, rg := range l.r.Ranges {
		db, ok := rg.(*ast.RangeDatabase)
		if !ok || db.JoinProperty == nil {
			continue
		}
		table, ok := l.store.OwningTable(db.EntityName)
		if !ok {
			return nil, objerr.NewLoweringError(objerr.LoweringUnrepresentableExpression,
				"unknown table for entity %q (range %q)", db.EntityName, db.Name)
		}
		cond, err := l.renderExpr(db.JoinProperty)
		if err != nil {
			return nil, err
		}
		kind := "LEFT"
		if db.Required {
			kind = "INNER"
		}
		joins = append(joins, kind+" JOIN `"+table+"` as `"+db.Name+"` ON "+cond)
	}
	return joins, nil
}

// ---- ORDER BY -----------------------------------------------------------

func (l *lowerer) renderOrderBy() (string, error) {
	if l.r.SortInApplicationLogic {
		return "", nil
	}
	if l.inValuesAreFinal() {
		if expr, items, ok := l.mainRangeInClause(); ok {
			fieldExpr, err := l.renderExpr(expr)
			if err != nil {
				return "", err
			}
			placeholders := make([]string, 0, len(items))
			seenLiteral := map[string]bool{}
			seenValue := map[any]bool{}
			for _, it := range items {
				if it.isParam {
					if seenValue[it.value] {
						continue
					}
					seenValue[it.value] = true
					l.bound = append(l.bound, it.value)
					placeholders = append(placeholders, "?")
				} else {
					if seenLiteral[it.literal] {
						continue
					}
					seenLiteral[it.literal] = true
					placeholders = append(placeholders, it.literal)
				}
			}
			return "FIELD(" + fieldExpr + ", " + strings.Join(placeholders, ", ") + ")", nil
		}
	}

	var items []string
	for _, s := range l.r.Sort {
		expr, err := l.renderExpr(s.Expr)
		if err != nil {
			return "", err
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		items = append(items, expr+" "+dir)
	}
	return strings.Join(items, ", "), nil
}

func (l *lowerer) inValuesAreFinal() bool {
	dv, ok := l.r.Directives["InValuesAreFinal"]
	return ok && dv.Kind == ast.DirectiveBool && dv.Bool
}

// mainRangeInClause finds the first `IN` test on the main range's primary
// key anywhere in the condition tree (pre-order, including under OR and
// NOT) and returns its identifier expression together
// with its expanded parameter items, in order.
func (l *lowerer) mainRangeInClause() (*ast.Identifier, []inValue, bool) {
	key, ok := l.store.PrimaryKeyOfMainRange(l.r)
	if !ok {
		return nil, nil, false
	}
	var found *ast.In
	ast.Walk(l.r.Conditions, func(n ast.Node) bool {
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
	if found == nil {
		return nil, nil, false
	}
	items, err := l.expandInParams(found.Parameters)
	if err != nil {
		return nil, nil, false
	}
	return found.Identifier, items, true
}

// ---- literal rendering --------------------------------------------------

func formatNumber(n *ast.Number) string {
	if n.Kind == ast.NumberFloat {
		return strconv.FormatFloat(n.Float, 'f', -1, 64)
	}
	return strconv.FormatInt(n.Int, 10)
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
