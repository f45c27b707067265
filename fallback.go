package bark

import (
	"io"
	"log"
	"os"
	"sync"

	"github.com/balinomad/go-atomicwriter"

	"github.com/balinomad/go-bark/handler"
)

// fallbackPrefix marks diagnostics written by bark itself.
const fallbackPrefix = "[BARK] "

// fallbackLogger reports failures of the facade itself, such as a handler
// returning an error. It never goes through registered handlers.
// Safe for concurrent use by multiple goroutines.
type fallbackLogger struct {
	w *atomicwriter.AtomicWriter
	l *log.Logger
}

// newFallbackLogger creates a fallbackLogger writing to w.
func newFallbackLogger(w io.Writer) (*fallbackLogger, error) {
	if w == nil {
		return nil, ErrNilWriter
	}

	aw, err := atomicwriter.NewAtomicWriter(w)
	if err != nil {
		return nil, handler.NewAtomicWriterError(err)
	}

	return &fallbackLogger{
		w: aw,
		l: log.New(aw, fallbackPrefix, log.LstdFlags),
	}, nil
}

// newSimpleFallbackLogger creates a fallback logger with stderr output.
// Panics only if os.Stderr is nil.
func newSimpleFallbackLogger() *fallbackLogger {
	if os.Stderr == nil {
		panic("os.Stderr is nil; cannot create fallback logger")
	}

	// Cannot fail: stderr is non-nil
	l, _ := newFallbackLogger(os.Stderr)

	return l
}

// handlerFailed reports an error returned by a handler for an event.
func (l *fallbackLogger) handlerFailed(h handler.Handler, e *handler.Event, err error) {
	l.l.Printf("handler %s failed on %s event (tag %q, message %q): %v",
		handlerName(h), e.Level, e.Tag, e.Message, err)
}

// SetOutput swaps the output without blocking concurrent reports.
func (l *fallbackLogger) SetOutput(w io.Writer) error {
	if w == nil {
		return ErrNilWriter
	}
	return l.w.Swap(w)
}

// globalFallback is the fallback logger shared by dispatchers that were not
// given their own output. Initialized lazily on first use.
var globalFallback = struct {
	once sync.Once
	l    *fallbackLogger
}{}

// getGlobalFallback returns the global fallback logger, initializing it on first call.
func getGlobalFallback() *fallbackLogger {
	globalFallback.once.Do(func() {
		globalFallback.l = newSimpleFallbackLogger()
	})
	return globalFallback.l
}
