package semantic

import (
	"context"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/quellabs/objectquel/ast"
	"github.com/quellabs/objectquel/metadata"
	"github.com/quellabs/objectquel/objerr"
)

// SupportedLanguageVersion is the ObjectQuel dialect this compiler build
// implements. A query's @LanguageVersion directive, when present, is
// checked against it with a caret range: same major version, any
// minor/patch at or above it (>= 1.0.0, < 2.0.0).
const SupportedLanguageVersion = "1.0.0"

// checkLanguageVersion rejects a query whose @LanguageVersion directive
// names a dialect version this build doesn't support. Directive values
// carry no string literal, so the version is written as a bare number
// (`@LanguageVersion 1`, `@LanguageVersion 1.2`) or identifier
// (`@LanguageVersion v1_2_0`, underscores standing in for dots).
func checkLanguageVersion(_ context.Context, r *ast.Retrieve, _ metadata.Store, _ *state) error {
	dv, ok := r.Directives["LanguageVersion"]
	if !ok {
		return nil
	}

	var raw string
	switch dv.Kind {
	case ast.DirectiveNumber:
		raw = strconv.FormatFloat(dv.Number, 'f', -1, 64)
	case ast.DirectiveIdent:
		raw = strings.TrimPrefix(dv.Ident, "v")
		raw = strings.ReplaceAll(raw, "_", ".")
	default:
		return objerr.NewSemanticError(objerr.SemanticUnsupportedVersion, "language-version",
			"@LanguageVersion must be a number or identifier, not a boolean")
	}
	for strings.Count(raw, ".") < 2 {
		raw += ".0"
	}

	requested, err := semver.NewVersion(raw)
	if err != nil {
		return objerr.NewSemanticError(objerr.SemanticUnsupportedVersion, "language-version",
			"@LanguageVersion %q is not a valid version", raw)
	}
	constraint, err := semver.NewConstraint("^" + SupportedLanguageVersion)
	if err != nil {
		return err
	}
	if !constraint.Check(requested) {
		return objerr.NewSemanticError(objerr.SemanticUnsupportedVersion, "language-version",
			"unsupported @LanguageVersion %s (this build supports ^%s)", requested, SupportedLanguageVersion)
	}
	return nil
}
