package obstrace

import (
	"context"
	"errors"
	"testing"
)

func TestStartCompileReturnsUsableSpan(t *testing.T) {
	ctx, span := StartCompile(context.Background(), "range of p is Product\nretrieve (p.name)")
	if ctx == nil {
		t.Fatal("expected a non-nil context")
	}
	End(span, nil)
}

func TestEndRecordsError(t *testing.T) {
	_, span := StartLower(context.Background(), 2)
	End(span, errors.New("boom"))
}

func TestStartPaginationFetch(t *testing.T) {
	_, span := StartPaginationFetch(context.Background(), 1, 20)
	End(span, nil)
}
