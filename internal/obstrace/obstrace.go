// Package obstrace wraps OpenTelemetry spans around three points of the
// compiler pipeline: a Compile call (source size attribute), sqlgen.Lower
// (range count), and the pagination rewriter's adapter call (window and
// window size). Lexing, parsing and the semantic passes get no spans.
package obstrace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("objectquel")

// StartCompile opens the root span for a Compile call.
func StartCompile(ctx context.Context, source string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "objectquel.Compile",
		trace.WithAttributes(attribute.Int("source.bytes", len(source))))
}

// StartLower opens a span around SQL lowering.
func StartLower(ctx context.Context, rangeCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "objectquel.Lower",
		trace.WithAttributes(attribute.Int("ranges", rangeCount)))
}

// StartPaginationFetch opens a span around the pagination rewriter's
// primary-key query through a QueryExecutor.
func StartPaginationFetch(ctx context.Context, window, windowSize uint32) (context.Context, trace.Span) {
	return tracer.Start(ctx, "objectquel.paginate.Fetch",
		trace.WithAttributes(
			attribute.Int64("window", int64(window)),
			attribute.Int64("window_size", int64(windowSize)),
		))
}

// End finalizes span, recording err as a span error if non-nil.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
