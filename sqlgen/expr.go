package sqlgen

import (
	"strings"

	"github.com/quellabs/objectquel/ast"
	"github.com/quellabs/objectquel/objerr"
)

var binaryOpSQL = map[ast.BinaryOp]string{
	ast.OpAnd: "AND", ast.OpOr: "OR",
	ast.OpEq: "=", ast.OpNeq: "!=",
	ast.OpLt: "<", ast.OpLe: "<=", ast.OpGt: ">", ast.OpGe: ">=",
	ast.OpPlus: "+", ast.OpMinus: "-", ast.OpMul: "*", ast.OpDiv: "/", ast.OpMod: "%",
	ast.OpShL: "<<", ast.OpShR: ">>",
}

// renderExpr renders e as SQL text, appending any caller-parameter values
// it encounters to l.bound in the same left-to-right order they appear in
// the rendered text.
func (l *lowerer) renderExpr(e ast.Expr) (string, error) {
	switch t := e.(type) {
	case *ast.Identifier:
		return l.renderIdentifier(t)
	case *ast.BinaryOperator:
		return l.renderBinaryOperator(t)
	case *ast.Not:
		inner, err := l.renderExpr(t.Expr)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case *ast.Number:
		return formatNumber(t), nil
	case *ast.StringLit:
		return "'" + escapeSQLString(t.Value) + "'", nil
	case *ast.Bool:
		if t.Value {
			return "TRUE", nil
		}
		return "FALSE", nil
	case *ast.Null:
		return "NULL", nil
	case *ast.Parameter:
		v, err := l.resolveParam(t.Name)
		if err != nil {
			return "", err
		}
		l.bound = append(l.bound, v)
		return "?", nil
	case *ast.In:
		return l.renderIn(t)
	default:
		return "", objerr.NewLoweringError(objerr.LoweringUnrepresentableExpression,
			"%T has no SQL representation", e)
	}
}

func (l *lowerer) renderIdentifier(id *ast.Identifier) (string, error) {
	if id.Range == nil || id.Next == nil {
		return "", objerr.NewLoweringError(objerr.LoweringUnrepresentableExpression,
			"identifier %q has no resolved range/column to lower", id.String())
	}
	prop := id.Last().Name

	db, ok := id.Range.(*ast.RangeDatabase)
	if !ok {
		return "`" + id.Range.RangeName() + "`.`" + prop + "`", nil
	}
	cols, ok := l.store.ColumnMap(db.EntityName)
	if !ok {
		return "", objerr.NewLoweringError(objerr.LoweringUnrepresentableExpression,
			"identifier %q references unknown entity %q", id.String(), db.EntityName)
	}
	// transformViaRelations already rewrites a via-clause's own-side
	// identifier from its relation property straight to the physical join
	// column, so prop is sometimes already a column rather than a property;
	// the semantic pipeline's validate-properties pass has already rejected
	// anything that's neither, so falling back to prop as-is here is safe.
	col, ok := cols[prop]
	if !ok {
		col = prop
	}
	return "`" + id.Range.RangeName() + "`.`" + col + "`", nil
}

func (l *lowerer) renderBinaryOperator(b *ast.BinaryOperator) (string, error) {
	if b.Op == ast.OpEq || b.Op == ast.OpNeq {
		if _, ok := b.Right.(*ast.Null); ok {
			left, err := l.renderExpr(b.Left)
			if err != nil {
				return "", err
			}
			if b.Op == ast.OpEq {
				return left + " IS NULL", nil
			}
			return left + " IS NOT NULL", nil
		}
		if _, ok := b.Left.(*ast.Null); ok {
			right, err := l.renderExpr(b.Right)
			if err != nil {
				return "", err
			}
			if b.Op == ast.OpEq {
				return right + " IS NULL", nil
			}
			return right + " IS NOT NULL", nil
		}
	}

	op, ok := binaryOpSQL[b.Op]
	if !ok {
		return "", objerr.NewLoweringError(objerr.LoweringUnrepresentableExpression, "unknown operator %v", b.Op)
	}
	left, err := l.renderExpr(b.Left)
	if err != nil {
		return "", err
	}
	right, err := l.renderExpr(b.Right)
	if err != nil {
		return "", err
	}
	return "(" + left + " " + op + " " + right + ")", nil
}

func (l *lowerer) renderIn(in *ast.In) (string, error) {
	left, err := l.renderIdentifier(in.Identifier)
	if err != nil {
		return "", err
	}
	items, err := l.expandInParams(in.Parameters)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", objerr.NewLoweringError(objerr.LoweringUnrepresentableExpression, "'in' on %q has no values", left)
	}
	placeholders := make([]string, len(items))
	for i, it := range items {
		if it.isParam {
			l.bound = append(l.bound, it.value)
			placeholders[i] = "?"
		} else {
			placeholders[i] = it.literal
		}
	}
	return left + " IN (" + strings.Join(placeholders, ", ") + ")", nil
}

func (l *lowerer) resolveParam(name string) (any, error) {
	v, ok := l.params[name]
	if !ok {
		return nil, objerr.NewLoweringError(objerr.LoweringUnrepresentableExpression, "no value supplied for parameter :%s", name)
	}
	return v, nil
}

// inValue is one element of an `in (...)` list, already expanded from the
// AST: a compile-time number or string renders as an inline literal, a named
// parameter renders as a placeholder bound to its resolved value.
type inValue struct {
	isParam bool
	literal string
	value   any
}

// expandInParams expands an In node's parameter list. A caller may bind
// either one scalar per named parameter (`in (:a, :b)`) or a single
// array-valued name standing in for the whole list (`in (:ids)`); both
// are accepted since the grammar doesn't distinguish them syntactically.
func (l *lowerer) expandInParams(params []ast.Expr) ([]inValue, error) {
	var items []inValue
	for _, p := range params {
		switch t := p.(type) {
		case *ast.Number:
			items = append(items, inValue{literal: formatNumber(t)})
		case *ast.StringLit:
			items = append(items, inValue{literal: "'" + escapeSQLString(t.Value) + "'"})
		case *ast.Parameter:
			v, err := l.resolveParam(t.Name)
			if err != nil {
				return nil, err
			}
			if vs, ok := v.([]any); ok {
				for _, e := range vs {
					items = append(items, inValue{isParam: true, value: e})
				}
				continue
			}
			items = append(items, inValue{isParam: true, value: v})
		default:
			return nil, objerr.NewLoweringError(objerr.LoweringUnrepresentableExpression,
				"'in' parameter must be a number, string, or bind parameter, got %T", p)
		}
	}
	return items, nil
}
