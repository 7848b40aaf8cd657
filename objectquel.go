// Package objectquel is the compiler façade: it sequences parsing,
// semantic analysis, pagination rewriting, and SQL lowering behind a
// single Compile entry point, and re-exports the AST and metadata
// contracts so an embedder needs only this one import path, the way
// the teacher's sqlparser.go package re-exports its subpackages'
// core types.
package objectquel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quellabs/objectquel/ast"
	"github.com/quellabs/objectquel/internal/obstrace"
	"github.com/quellabs/objectquel/metadata"
	"github.com/quellabs/objectquel/objerr"
	"github.com/quellabs/objectquel/paginate"
	"github.com/quellabs/objectquel/parser"
	"github.com/quellabs/objectquel/semantic"
	"github.com/quellabs/objectquel/sqlgen"
)

// Re-export the core types so an embedder only needs this one import path
// for the common case.
type (
	Retrieve      = ast.Retrieve
	Store         = metadata.Store
	QueryExecutor = paginate.QueryExecutor
)

// CompiledQuery is the result of a successful Compile: the rendered SQL,
// its bound parameters in strict left-to-right order, and the validated,
// post-pagination AST alongside the pagination bookkeeping a hydrator
// needs (spec.md §6).
type CompiledQuery struct {
	SQL                    string
	BoundParams            []any
	AST                    *ast.Retrieve
	Window                 *uint32
	WindowSize             *uint32
	SortInApplicationLogic bool
	FullQueryResultCount   *uint64
}

// Option configures a Compile call.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger attaches a logger that receives Debug-level progress (range
// count, sort mode, pagination result count) and Warn-level failures
// carrying the error, plus its objerr code for semantic failures, as the
// pipeline runs. The compiler passes themselves (lexer, parser, ast, semantic,
// sqlgen, paginate) never import log/slog directly; only this façade does
// (SPEC_FULL.md §2.1), so Compile is the sole place logging is threaded
// in.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Compile runs source through the full pipeline: parse, validate, rewrite
// pagination if a window is present, and lower to SQL. exec may be nil if
// the query has no window or is known not to need the auxiliary
// primary-key fetch; Compile returns a LoweringError-wrapped failure only
// if pagination was actually required and exec was not supplied.
func Compile(ctx context.Context, source string, params map[string]any, store metadata.Store, exec QueryExecutor, opts ...Option) (*CompiledQuery, error) {
	cfg := &options{logger: slog.New(slog.DiscardHandler)}
	for _, o := range opts {
		o(cfg)
	}

	r, err := parser.Parse(ctx, source)
	if err != nil {
		cfg.logger.Warn("objectquel: parse failed", "error", err)
		return nil, err
	}
	cfg.logger.Debug("objectquel: parsed", "ranges", len(r.Ranges))

	if err := semantic.Run(ctx, r, store); err != nil {
		cfg.logger.Warn("objectquel: semantic pass failed", "error", err, "code", objerr.Code(err))
		return nil, err
	}
	cfg.logger.Debug("objectquel: validated", "sort_in_application_logic", r.SortInApplicationLogic)

	if r.Window != nil && !r.SortInApplicationLogic {
		if exec == nil {
			return nil, objerr.NewLoweringError(objerr.LoweringUnrepresentableExpression,
				"query has a window but no QueryExecutor was supplied for the pagination rewrite")
		}
		if err := paginate.Rewrite(ctx, r, store, params, exec); err != nil {
			cfg.logger.Warn("objectquel: pagination rewrite failed", "error", err)
			return nil, err
		}
		cfg.logger.Debug("objectquel: paginated", "full_query_result_count", derefUint64(r.FullQueryResultCount))
	}

	_, lowerSpan := obstrace.StartLower(ctx, len(r.Ranges))
	sql, bound, err := sqlgen.Lower(r, store, params)
	obstrace.End(lowerSpan, err)
	if err != nil {
		cfg.logger.Warn("objectquel: lowering failed", "error", err)
		return nil, err
	}

	return &CompiledQuery{
		SQL:                    sql,
		BoundParams:            bound,
		AST:                    r,
		Window:                 r.Window,
		WindowSize:             r.WindowSize,
		SortInApplicationLogic: r.SortInApplicationLogic,
		FullQueryResultCount:   r.FullQueryResultCount,
	}, nil
}

// Explain renders a one-paragraph human summary of the compiled query:
// its ranges, join kinds, and pagination/sort-mode outcome. It is pure
// presentation over CompiledQuery's already-public fields (SPEC_FULL.md
// §4), used by the CLI's `compile -v` flag.
func (c *CompiledQuery) Explain() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d range(s): ", len(c.AST.Ranges))
	parts := make([]string, 0, len(c.AST.Ranges))
	for _, rg := range c.AST.Ranges {
		db, ok := rg.(*ast.RangeDatabase)
		if !ok {
			parts = append(parts, fmt.Sprintf("%s (json)", rg.RangeName()))
			continue
		}
		switch {
		case db.JoinProperty == nil:
			parts = append(parts, fmt.Sprintf("%s (from-root, %s)", db.Name, db.EntityName))
		case db.Required:
			parts = append(parts, fmt.Sprintf("%s (inner join, %s)", db.Name, db.EntityName))
		default:
			parts = append(parts, fmt.Sprintf("%s (left join, %s)", db.Name, db.EntityName))
		}
	}
	b.WriteString(strings.Join(parts, ", "))

	if c.SortInApplicationLogic {
		b.WriteString("; sort runs in application logic, ORDER BY omitted")
	}
	if c.Window != nil {
		fmt.Fprintf(&b, "; window %d using window_size %d", *c.Window, derefUint32(c.WindowSize))
		if c.FullQueryResultCount != nil {
			fmt.Fprintf(&b, ", %d total row(s) before windowing", *c.FullQueryResultCount)
		}
	}
	b.WriteString(".")
	return b.String()
}

func derefUint32(v *uint32) uint32 {
	if v == nil {
		return 0
	}
	return *v
}

func derefUint64(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}
