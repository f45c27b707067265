package bark

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/balinomad/go-bark/detect"
	"github.com/balinomad/go-bark/handler"
)

// Dispatcher routes log calls to registered handlers.
//
// It holds the ordered handler list, the optional global tag and the mute
// flag. Every log call takes a snapshot of the three under a read lock and
// fans out to the snapshot without holding it: handlers registered or
// removed during an in-flight call only affect subsequent calls.
//
// Handlers are invoked synchronously on the caller's goroutine, in
// registration order. An error returned by a handler is reported to the
// fallback logger and the remaining handlers still run. A panicking handler
// is not recovered and aborts the rest of the fan-out.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []handler.Handler // Copy-on-write, never mutated in place
	tag      string
	tagSet   bool
	muted    bool

	autoTag  bool
	detector TagDetector
	fallback *fallbackLogger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher) error

// WithDetector sets the caller-identity detector. Defaults to detect.Default().
func WithDetector(det TagDetector) Option {
	return func(d *Dispatcher) error {
		if det == nil {
			return optionError("WithDetector", ErrNilDetector)
		}
		d.detector = det
		return nil
	}
}

// WithAutoTag enables or disables caller-identity detection. When disabled
// and no global tag is set, events carry an empty tag and the detector is
// never invoked. Enabled by default.
func WithAutoTag(enabled bool) Option {
	return func(d *Dispatcher) error {
		d.autoTag = enabled
		return nil
	}
}

// WithTag sets the initial global tag.
func WithTag(tag string) Option {
	return func(d *Dispatcher) error {
		d.tag, d.tagSet = tag, true
		return nil
	}
}

// WithHandlers registers handlers in order, applying the category policy.
func WithHandlers(hs ...handler.Handler) Option {
	return func(d *Dispatcher) error {
		for _, h := range hs {
			if err := d.Register(h); err != nil {
				return optionError("WithHandlers", err)
			}
		}
		return nil
	}
}

// WithFallbackOutput sets where handler failures are reported.
// Defaults to a process-wide logger writing to stderr.
func WithFallbackOutput(w io.Writer) Option {
	return func(d *Dispatcher) error {
		l, err := newFallbackLogger(w)
		if err != nil {
			return optionError("WithFallbackOutput", err)
		}
		d.fallback = l
		return nil
	}
}

// New creates a Dispatcher with no handlers, no global tag, unmuted.
func New(opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{autoTag: true}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	if d.detector == nil {
		d.detector = detect.Default()
	}

	return d, nil
}

var eventPool = sync.Pool{
	New: func() any { return &handler.Event{} },
}

// Log dispatches a message with an optional error at the given level.
// It is a no-op while muted or when no handlers are registered.
func (d *Dispatcher) Log(level Level, msg string, err error) {
	d.log(level, msg, err)
}

// Verbose logs a message at the verbose level.
func (d *Dispatcher) Verbose(msg string, err ...error) {
	d.log(VerboseLevel, msg, joinErrors(err))
}

// Debug logs a message at the debug level.
func (d *Dispatcher) Debug(msg string, err ...error) {
	d.log(DebugLevel, msg, joinErrors(err))
}

// Info logs a message at the info level.
func (d *Dispatcher) Info(msg string, err ...error) {
	d.log(InfoLevel, msg, joinErrors(err))
}

// Warning logs a message at the warning level.
func (d *Dispatcher) Warning(msg string, err ...error) {
	d.log(WarningLevel, msg, joinErrors(err))
}

// Error logs a message at the error level.
func (d *Dispatcher) Error(msg string, err ...error) {
	d.log(ErrorLevel, msg, joinErrors(err))
}

// Critical logs a message at the critical level.
func (d *Dispatcher) Critical(msg string, err ...error) {
	d.log(CriticalLevel, msg, joinErrors(err))
}

// log is the single dispatch path.
func (d *Dispatcher) log(level Level, msg string, err error) {
	d.mu.RLock()
	handlers, muted := d.handlers, d.muted
	tag, tagSet := d.tag, d.tagSet
	d.mu.RUnlock()

	if muted || len(handlers) == 0 {
		return
	}

	var pc uintptr
	if !tagSet {
		tag, pc = d.detectCaller()
	}

	e := eventPool.Get().(*handler.Event)
	e.Time = time.Now()
	e.Level = level
	e.Tag = tag
	e.Message = msg
	e.Err = err
	e.PC = pc

	for _, h := range handlers {
		if herr := h.Handle(e); herr != nil {
			d.fallbackLogger().handlerFailed(h, e, herr)
		}
	}

	e.Reset()
	eventPool.Put(e)
}

// detectCaller resolves the tag when no global tag is set.
func (d *Dispatcher) detectCaller() (string, uintptr) {
	if !d.autoTag {
		return "", 0
	}
	if cd, ok := d.detector.(CallerDetector); ok {
		return cd.DetectCaller()
	}
	return d.detector.DetectTag(), 0
}

func (d *Dispatcher) fallbackLogger() *fallbackLogger {
	if d.fallback != nil {
		return d.fallback
	}
	return getGlobalFallback()
}

// Register adds a handler at the end of the handler list. If the handler's
// category is exclusive, any registered handler of the same category is
// removed first. Registering an already registered handler is a no-op.
func (d *Dispatcher) Register(h handler.Handler) error {
	if h == nil {
		return ErrNilHandler
	}
	if !handler.IsValidCategory(h.Category()) {
		return fmt.Errorf("%w: %d", ErrInvalidCategory, h.Category())
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	next := make([]handler.Handler, 0, len(d.handlers)+1)
	for _, cur := range d.handlers {
		if sameHandler(cur, h) {
			return nil
		}
		if h.Category().Exclusive() && cur.Category() == h.Category() {
			continue
		}
		next = append(next, cur)
	}
	d.handlers = append(next, h)

	return nil
}

// Unregister removes the handler by identity. It reports whether the
// handler was registered.
func (d *Dispatcher) Unregister(h handler.Handler) bool {
	if h == nil {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for i, cur := range d.handlers {
		if sameHandler(cur, h) {
			next := make([]handler.Handler, 0, len(d.handlers)-1)
			next = append(next, d.handlers[:i]...)
			d.handlers = append(next, d.handlers[i+1:]...)
			return true
		}
	}

	return false
}

// ReleaseAll removes every registered handler.
func (d *Dispatcher) ReleaseAll() {
	d.mu.Lock()
	d.handlers = nil
	d.mu.Unlock()
}

// Handlers returns a snapshot of the registered handlers in registration order.
func (d *Dispatcher) Handlers() []handler.Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return append([]handler.Handler(nil), d.handlers...)
}

// Mute silences every log call until Unmute.
func (d *Dispatcher) Mute() {
	d.mu.Lock()
	d.muted = true
	d.mu.Unlock()
}

// Unmute restores logging after Mute.
func (d *Dispatcher) Unmute() {
	d.mu.Lock()
	d.muted = false
	d.mu.Unlock()
}

// Muted reports whether the dispatcher is muted.
func (d *Dispatcher) Muted() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.muted
}

// SetTag sets a global tag used verbatim for every subsequent log call.
// Caller detection is skipped while a global tag is set.
func (d *Dispatcher) SetTag(tag string) {
	d.mu.Lock()
	d.tag, d.tagSet = tag, true
	d.mu.Unlock()
}

// ClearTag removes the global tag and resumes caller detection.
func (d *Dispatcher) ClearTag() {
	d.mu.Lock()
	d.tag, d.tagSet = "", false
	d.mu.Unlock()
}

// Tag returns the global tag and whether one is set.
func (d *Dispatcher) Tag() (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.tag, d.tagSet
}

// Reset removes all handlers, clears the global tag and unmutes.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	d.handlers = nil
	d.tag, d.tagSet = "", false
	d.muted = false
	d.mu.Unlock()
}

// Sync flushes every registered handler that buffers output.
func (d *Dispatcher) Sync() error {
	var errs []error
	for _, h := range d.Handlers() {
		if s, ok := h.(handler.Syncer); ok {
			if err := s.Sync(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", handlerName(h), err))
			}
		}
	}
	return errors.Join(errs...)
}

// Status returns a human-readable snapshot of the dispatcher state:
//
//	Bark Status:
//	  Muted: false
//	  Tag: auto-detect
//	  Handlers: 2
//	    [0] console
//	    [1] zap
func (d *Dispatcher) Status() string {
	d.mu.RLock()
	handlers, muted := d.handlers, d.muted
	tag, tagSet := d.tag, d.tagSet
	d.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString("Bark Status:\n")
	fmt.Fprintf(&sb, "  Muted: %t\n", muted)
	fmt.Fprintf(&sb, "  Tag: %s\n", d.tagMode(tag, tagSet))
	fmt.Fprintf(&sb, "  Handlers: %d\n", len(handlers))
	for i, h := range handlers {
		fmt.Fprintf(&sb, "    [%d] %s\n", i, handlerName(h))
	}

	return sb.String()
}

func (d *Dispatcher) tagMode(tag string, tagSet bool) string {
	if tagSet {
		return "global: " + tag
	}
	if !d.autoTag {
		return "disabled"
	}
	if dd, ok := d.detector.(interface{ Disabled() bool }); ok && dd.Disabled() {
		return "disabled"
	}
	return "auto-detect"
}

// handlerName returns the display name of a handler: its Name when it
// implements handler.Namer, otherwise its type name.
func handlerName(h handler.Handler) string {
	if n, ok := h.(handler.Namer); ok {
		return n.Name()
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", h), "*")
}

// sameHandler compares handlers by identity. Handlers of non-comparable
// dynamic types are never considered equal.
func sameHandler(a, b handler.Handler) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

// joinErrors collapses the optional error arguments of the leveled methods.
func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}
