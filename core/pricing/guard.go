package pricing

import (
	"context"
	"sync/atomic"
)

type resolutionKey struct{}

// resolution marks a context as being inside Resolve
type resolution struct {
	active atomic.Bool
}

// enterResolution returns a context marked for the duration of one
// resolution and a release func. ok is false when ctx is already inside an
// active resolution.
func enterResolution(ctx context.Context) (context.Context, func(), bool) {
	if Resolving(ctx) {
		return ctx, func() {}, false
	}
	res := &resolution{}
	res.active.Store(true)
	return context.WithValue(ctx, resolutionKey{}, res), func() { res.active.Store(false) }, true
}

// Resolving reports whether ctx belongs to an in-progress resolution
func Resolving(ctx context.Context) bool {
	res, ok := ctx.Value(resolutionKey{}).(*resolution)
	return ok && res.active.Load()
}
