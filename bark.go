// Package bark is a logging facade. Application code calls leveled log
// functions; a Dispatcher routes every call to the registered handlers,
// attaching a tag derived from the caller's identity, and applies the
// global mute switch and the per-category registration policy.
//
// Handlers live in subpackages of handler, caller and test-environment
// detection in package detect.
package bark

import (
	"github.com/balinomad/go-bark/handler"
)

// Re-export types so users only import bark.
type (
	Level    = handler.Level
	Category = handler.Category
	Event    = handler.Event
	Handler  = handler.Handler
)

// Re-export level constants.
const (
	VerboseLevel  Level = handler.VerboseLevel
	DebugLevel    Level = handler.DebugLevel
	InfoLevel     Level = handler.InfoLevel
	WarningLevel  Level = handler.WarningLevel
	ErrorLevel    Level = handler.ErrorLevel
	CriticalLevel Level = handler.CriticalLevel
)

// Re-export category constants.
const (
	ConsoleCategory Category = handler.ConsoleCategory
	SystemCategory  Category = handler.SystemCategory
	FileCategory    Category = handler.FileCategory
	CustomCategory  Category = handler.CustomCategory
)

// Re-export errors.
var (
	ErrInvalidLevel      error = handler.ErrInvalidLevel
	ErrInvalidCategory   error = handler.ErrInvalidCategory
	ErrAtomicWriterFail  error = handler.ErrAtomicWriterFail
	ErrOptionApplyFailed error = handler.ErrOptionApplyFailed
	ErrInvalidFormat     error = handler.ErrInvalidFormat
	ErrNilWriter         error = handler.ErrNilWriter
	ErrNilHandler        error = handler.ErrNilHandler
)

// ParseLevel converts a level name to a Level.
func ParseLevel(s string) (Level, error) {
	return handler.ParseLevel(s)
}

// TagDetector derives a tag identifying the calling code.
type TagDetector interface {
	DetectTag() string
}

// CallerDetector is implemented by detectors that also report the program
// counter of the detected caller. The dispatcher passes it on in Event.PC.
type CallerDetector interface {
	TagDetector
	DetectCaller() (tag string, pc uintptr)
}
