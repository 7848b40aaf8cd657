// Package reqid generates sortable, time-ordered correlation IDs for CLI
// invocations and adapter queries, attached to logs and trace spans so a
// single compile or pagination fetch can be followed across both.
package reqid

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// New generates a new correlation ID.
func New() ulid.ULID {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
}

type contextKey struct{}

// WithContext attaches id to ctx, retrievable with FromContext.
func WithContext(ctx context.Context, id ulid.ULID) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the correlation ID attached to ctx, generating and
// attaching a fresh one to the returned context if none was present.
func FromContext(ctx context.Context) (ulid.ULID, context.Context) {
	if id, ok := ctx.Value(contextKey{}).(ulid.ULID); ok {
		return id, ctx
	}
	id := New()
	return id, WithContext(ctx, id)
}
