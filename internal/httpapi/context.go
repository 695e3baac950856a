package httpapi

import (
	"context"
	"sync/atomic"
)

var baseCtx atomic.Pointer[context.Context]

// serverBaseCtx is the process-level context canceled on shutdown.
// Defaults to Background if not set.
func serverBaseCtx() context.Context {
	if p := baseCtx.Load(); p != nil {
		return *p
	}
	return context.Background()
}

// SetBaseContext sets the process-level base context used by handlers.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		baseCtx.Store(nil)
		return
	}
	baseCtx.Store(&ctx)
}

// joinContexts returns a child of b (keeping its values) that is also
// canceled when a is done. The returned cancel func must be called when the
// handler ends.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(b)
	stop := context.AfterFunc(a, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
