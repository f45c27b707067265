package bark

// Exported for testing only. These symbols are only available during tests
// and do not pollute the public API.

// DispatcherKey is the context key used to store dispatchers.
var DispatcherKey = dispatcherKey

// NewFallbackLogger creates a fallback logger for testing.
var NewFallbackLogger = newFallbackLogger

// HandlerName exposes the status display name of a handler.
var HandlerName = handlerName

// FallbackLogger exposes the fallback logger type for testing.
type FallbackLogger = fallbackLogger

// HandlerFailed exposes the failure report for testing.
func (l *fallbackLogger) HandlerFailed(h Handler, e *Event, err error) {
	l.handlerFailed(h, e, err)
}
