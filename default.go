package bark

import (
	"sync"
)

// global is the process-wide default dispatcher.
// It is initialized on first use.
var global = struct {
	mu sync.Mutex
	d  *Dispatcher
}{}

// SetDefault replaces the default dispatcher used by the package-level functions.
// A nil dispatcher restores a fresh default on next use.
func SetDefault(d *Dispatcher) {
	global.mu.Lock()
	global.d = d
	global.mu.Unlock()
}

// Default returns the default dispatcher. If none has been set, it creates
// one with no handlers, auto-detected tags and the stderr fallback logger.
func Default() *Dispatcher {
	global.mu.Lock()
	defer global.mu.Unlock()

	if global.d == nil {
		// Cannot fail without options
		global.d, _ = New()
	}

	return global.d
}

// Log dispatches a message at the given level using the default dispatcher.
func Log(level Level, msg string, err error) {
	Default().log(level, msg, err)
}

// Verbose logs a message at the verbose level using the default dispatcher.
func Verbose(msg string, err ...error) {
	Default().log(VerboseLevel, msg, joinErrors(err))
}

// Debug logs a message at the debug level using the default dispatcher.
func Debug(msg string, err ...error) {
	Default().log(DebugLevel, msg, joinErrors(err))
}

// Info logs a message at the info level using the default dispatcher.
func Info(msg string, err ...error) {
	Default().log(InfoLevel, msg, joinErrors(err))
}

// Warning logs a message at the warning level using the default dispatcher.
func Warning(msg string, err ...error) {
	Default().log(WarningLevel, msg, joinErrors(err))
}

// Error logs a message at the error level using the default dispatcher.
func Error(msg string, err ...error) {
	Default().log(ErrorLevel, msg, joinErrors(err))
}

// Critical logs a message at the critical level using the default dispatcher.
func Critical(msg string, err ...error) {
	Default().log(CriticalLevel, msg, joinErrors(err))
}

// Register adds a handler to the default dispatcher.
func Register(h Handler) error {
	return Default().Register(h)
}

// Unregister removes a handler from the default dispatcher.
func Unregister(h Handler) bool {
	return Default().Unregister(h)
}

// ReleaseAll removes every handler from the default dispatcher.
func ReleaseAll() {
	Default().ReleaseAll()
}

// Mute silences the default dispatcher.
func Mute() {
	Default().Mute()
}

// Unmute restores logging on the default dispatcher.
func Unmute() {
	Default().Unmute()
}

// SetTag sets the global tag of the default dispatcher.
func SetTag(tag string) {
	Default().SetTag(tag)
}

// ClearTag removes the global tag of the default dispatcher.
func ClearTag() {
	Default().ClearTag()
}

// Status returns the status of the default dispatcher.
func Status() string {
	return Default().Status()
}

// Reset restores the default dispatcher to its initial state.
func Reset() {
	Default().Reset()
}
