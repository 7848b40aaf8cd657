package reqid

import (
	"context"
	"testing"
)

func TestNewProducesDistinctMonotonicIDs(t *testing.T) {
	a := New()
	b := New()
	if a.Compare(b) >= 0 {
		t.Fatalf("expected %s to sort before %s", a, b)
	}
}

func TestFromContextGeneratesWhenAbsent(t *testing.T) {
	id, ctx := FromContext(context.Background())
	if id.String() == "" {
		t.Fatal("expected a non-empty generated ID")
	}
	again, _ := FromContext(ctx)
	if again != id {
		t.Fatalf("expected the attached ID to round-trip, got %s want %s", again, id)
	}
}

func TestWithContextOverridesGenerated(t *testing.T) {
	want := New()
	ctx := WithContext(context.Background(), want)
	got, _ := FromContext(ctx)
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}
