// Package objerr defines the ObjectQuel compiler's error taxonomy.
// Every constructor returns an error tagged with a stable oops code so
// callers can compare codes with errors.Is/oops helpers while still getting
// rich %+v context (line numbers, range names, offending kinds) for free.
package objerr

import (
	"github.com/samber/oops"
)

// Stable error codes, one per spec.md §7 error kind.
const (
	LexUnterminatedString = "LEX_UNTERMINATED_STRING"
	LexUnterminatedRegex  = "LEX_UNTERMINATED_REGEX"
	LexInvalidEscape      = "LEX_INVALID_ESCAPE"
	LexMalformedFloat     = "LEX_MALFORMED_FLOAT"
	LexUnexpectedEOF      = "LEX_UNEXPECTED_EOF"
	LexUnexpected         = "LEX_UNEXPECTED"

	ParseUnexpectedToken = "PARSE_UNEXPECTED_TOKEN"
	ParseExpectedButFound = "PARSE_EXPECTED_BUT_FOUND"
	ParseMultipleQueries  = "PARSE_MULTIPLE_QUERIES"

	SemanticDuplicateRange       = "SEMANTIC_DUPLICATE_RANGE"
	SemanticMissingFromRoot      = "SEMANTIC_MISSING_FROM_ROOT"
	SemanticUnknownEntity        = "SEMANTIC_UNKNOWN_ENTITY"
	SemanticUnknownProperty      = "SEMANTIC_UNKNOWN_PROPERTY"
	SemanticEntityArithmetic     = "SEMANTIC_ENTITY_ARITHMETIC"
	SemanticRangeReferencesNonRange = "SEMANTIC_RANGE_REFERENCES_NON_RANGE"
	SemanticInvalidViaRelation   = "SEMANTIC_INVALID_VIA_RELATION"
	SemanticUnsupportedVersion   = "SEMANTIC_UNSUPPORTED_VERSION"

	LoweringUnrepresentableExpression = "LOWERING_UNREPRESENTABLE_EXPRESSION"

	AdapterQueryFailed = "ADAPTER_QUERY_FAILED"

	Cancel = "CANCELED"
)

// LexError wraps a lexical failure. It always carries the source line.
type LexError struct {
	err  oops.OopsError
	Line uint32
}

func (e *LexError) Error() string { return e.err.Error() }
func (e *LexError) Unwrap() error { return e.err }

// NewLexError builds a LexError with the given code and formatted message.
func NewLexError(code string, line uint32, format string, args ...any) *LexError {
	return &LexError{
		Line: line,
		err:  oops.Code(code).With("line", line).Errorf(format, args...),
	}
}

// ParseError wraps a grammar failure. It always carries the source line.
type ParseError struct {
	err  oops.OopsError
	Line uint32
}

func (e *ParseError) Error() string { return e.err.Error() }
func (e *ParseError) Unwrap() error { return e.err }

func NewParseError(code string, line uint32, format string, args ...any) *ParseError {
	return &ParseError{
		Line: line,
		err:  oops.Code(code).With("line", line).Errorf(format, args...),
	}
}

// WrapLexAsParse re-raises a lexer failure as a parser failure, preserving
// its line and underlying oops context (spec.md §4.2: "All lex errors are
// re-raised as parser errors with wrapping").
func WrapLexAsParse(err error) *ParseError {
	if le, ok := err.(*LexError); ok {
		return &ParseError{
			Line: le.Line,
			err:  oops.Code(ParseUnexpectedToken).With("line", le.Line).Wrap(le),
		}
	}
	return &ParseError{err: oops.Code(ParseUnexpectedToken).Wrap(err)}
}

// SemanticError wraps a failure raised by the semantic pass pipeline.
type SemanticError struct {
	err  oops.OopsError
	Pass string
}

func (e *SemanticError) Error() string { return e.err.Error() }
func (e *SemanticError) Unwrap() error { return e.err }

func NewSemanticError(code, pass string, format string, args ...any) *SemanticError {
	return &SemanticError{
		Pass: pass,
		err:  oops.Code(code).With("pass", pass).Errorf(format, args...),
	}
}

// LoweringError wraps a failure raised while translating the AST to SQL.
type LoweringError struct{ err oops.OopsError }

func (e *LoweringError) Error() string { return e.err.Error() }
func (e *LoweringError) Unwrap() error { return e.err }

func NewLoweringError(code string, format string, args ...any) *LoweringError {
	return &LoweringError{err: oops.Code(code).Errorf(format, args...)}
}

// AdapterError wraps a failure from the pagination rewriter's QueryExecutor
// call. It never retries (spec.md §7: "passes AdapterError through without
// retry").
type AdapterError struct{ err oops.OopsError }

func (e *AdapterError) Error() string { return e.err.Error() }
func (e *AdapterError) Unwrap() error { return e.err }

func NewAdapterError(sql string, cause error) *AdapterError {
	return &AdapterError{err: oops.Code(AdapterQueryFailed).With("sql", sql).Wrap(cause)}
}

// CanceledError wraps a context cancellation observed between tokens or
// between semantic passes.
type CanceledError struct{ err oops.OopsError }

func (e *CanceledError) Error() string { return e.err.Error() }
func (e *CanceledError) Unwrap() error { return e.err }

func Canceled(cause error) *CanceledError {
	return &CanceledError{err: oops.Code(Cancel).Wrap(cause)}
}

// Code extracts the stable oops code from any error produced by this
// package, or "" if err did not originate here.
func Code(err error) string {
	if oe, ok := oops.AsOops(err); ok {
		return oe.Code()
	}
	return ""
}
