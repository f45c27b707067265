package handler

import (
	"fmt"
	"strings"

	"github.com/balinomad/go-caller"
)

// DefaultTimeFormat is the timestamp layout used by text handlers.
const DefaultTimeFormat = "15:04:05.000"

// Decorator holds the pluggable rendering hooks of a TextFormatter.
// A nil hook falls back to the plain rendering.
type Decorator struct {
	// Level renders the level label.
	Level func(Level) string

	// Error renders the error line attached to an event.
	Error func(error) string
}

// PlainDecorator renders labels and errors without any decoration.
var PlainDecorator = Decorator{
	Level: PlainLevel,
	Error: PlainError,
}

// PlainLevel renders the bracketed level label.
func PlainLevel(l Level) string {
	return l.Label()
}

// PlainError renders an error as "Error: <message>".
func PlainError(err error) string {
	return "Error: " + err.Error()
}

// TextFormatter renders events as human-readable lines:
//
//	[<time> ]<label> - [<tag>: ]<message>[ (<source>)]
//	[<error line>]
//	[<detailed error>]
//
// The detailed error is the %+v rendering of the error, written only for
// ERROR and above and only when it adds information to the error line.
type TextFormatter struct {
	Decorator      Decorator
	Timestamp      bool
	TimeFormat     string
	Source         bool
	DetailedErrors bool
}

// Format renders the event, including the trailing newline.
func (f *TextFormatter) Format(e *Event) string {
	var sb strings.Builder

	if f.Timestamp && !e.Time.IsZero() {
		layout := f.TimeFormat
		if layout == "" {
			layout = DefaultTimeFormat
		}
		sb.WriteString(e.Time.Format(layout))
		sb.WriteByte(' ')
	}

	levelFn := f.Decorator.Level
	if levelFn == nil {
		levelFn = PlainLevel
	}
	sb.WriteString(levelFn(e.Level))
	sb.WriteString(" - ")

	if e.Tag != "" {
		sb.WriteString(e.Tag)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)

	if f.Source {
		if loc := SourceLocation(e.PC); loc != "" {
			sb.WriteString(" (")
			sb.WriteString(loc)
			sb.WriteByte(')')
		}
	}
	sb.WriteByte('\n')

	if e.Err != nil {
		errFn := f.Decorator.Error
		if errFn == nil {
			errFn = PlainError
		}
		sb.WriteString(errFn(e.Err))
		sb.WriteByte('\n')

		if f.DetailedErrors && e.Level >= ErrorLevel {
			if detail := fmt.Sprintf("%+v", e.Err); detail != e.Err.Error() {
				sb.WriteString(detail)
				sb.WriteByte('\n')
			}
		}
	}

	return sb.String()
}

// SourceLocation converts a program counter to a file:line location.
// Returns an empty string when pc is zero.
func SourceLocation(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	return caller.NewFromPC(pc).Location()
}
