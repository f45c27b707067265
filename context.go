package bark

import (
	"context"
)

type ctxDispatcherKey struct{}

var dispatcherKey = ctxDispatcherKey{}

// WithDispatcher returns a new context carrying the dispatcher.
func WithDispatcher(ctx context.Context, d *Dispatcher) context.Context {
	return context.WithValue(ctx, dispatcherKey, d)
}

// FromContext retrieves the dispatcher from the context.
// The boolean return value indicates if a dispatcher was found.
func FromContext(ctx context.Context) (*Dispatcher, bool) {
	if ctx == nil {
		return nil, false
	}

	d, ok := ctx.Value(dispatcherKey).(*Dispatcher)
	return d, ok && d != nil
}

// FromContextOrDefault retrieves the dispatcher from the context,
// falling back to the default dispatcher if none is present.
//
// This is a convenience function equivalent to:
//
//	d, ok := FromContext(ctx)
//	if !ok {
//	    d = Default()
//	}
func FromContextOrDefault(ctx context.Context) *Dispatcher {
	if d, ok := FromContext(ctx); ok {
		return d
	}

	return Default()
}
