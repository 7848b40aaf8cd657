package obslog

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestSetupJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("objectquelc", "1.0.0", "json", &buf)

	logger.Info("compiled query")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON: %v\noutput: %s", err, buf.String())
	}
	if entry["msg"] != "compiled query" {
		t.Errorf("msg = %v, want 'compiled query'", entry["msg"])
	}
	if entry["service"] != "objectquelc" {
		t.Errorf("service = %v, want 'objectquelc'", entry["service"])
	}
}

func TestSetupTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("objectquelc", "1.0.0", "text", &buf)

	logger.Info("compiled query")

	output := buf.String()
	if !strings.Contains(output, "compiled query") {
		t.Errorf("output missing message: %s", output)
	}
}

func TestHandlerTraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("objectquelc", "1.0.0", "json", &buf)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	logger.InfoContext(ctx, "traced message")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if entry["trace_id"] != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace_id = %v, want the configured trace ID", entry["trace_id"])
	}
	if entry["span_id"] != "00f067aa0ba902b7" {
		t.Errorf("span_id = %v, want the configured span ID", entry["span_id"])
	}
}
