package console

import (
	"fmt"

	"github.com/balinomad/go-bark/handler"
)

// ANSI escape sequences used by ColorDecorator.
const (
	ansiReset     = "\x1b[0m"
	ansiRed       = "\x1b[31m"
	ansiGreen     = "\x1b[32m"
	ansiYellow    = "\x1b[33m"
	ansiBlue      = "\x1b[34m"
	ansiGray      = "\x1b[90m"
	ansiBrightRed = "\x1b[91m"
)

// ColorMode selects when the colored decorator is applied.
type ColorMode uint8

const (
	// ColorNever always renders plain output.
	ColorNever ColorMode = iota

	// ColorAuto colors output only when the output stream is a
	// color-capable terminal.
	ColorAuto

	// ColorAlways colors output unconditionally.
	ColorAlways
)

// String returns the mode name.
func (m ColorMode) String() string {
	switch m {
	case ColorNever:
		return "never"
	case ColorAuto:
		return "auto"
	case ColorAlways:
		return "always"
	default:
		return fmt.Sprintf("ColorMode(%d)", m)
	}
}

// levelColors is indexed by handler.Level.
var levelColors = [...]string{
	handler.VerboseLevel:  ansiGray,
	handler.DebugLevel:    ansiBlue,
	handler.InfoLevel:     ansiGreen,
	handler.WarningLevel:  ansiYellow,
	handler.ErrorLevel:    ansiRed,
	handler.CriticalLevel: ansiBrightRed,
}

// ColorDecorator renders level labels in their level color and error
// lines in red. Every colored segment is followed by a reset sequence.
var ColorDecorator = handler.Decorator{
	Level: ColorLevel,
	Error: ColorError,
}

// ColorLevel renders the level label wrapped in its ANSI color.
func ColorLevel(l handler.Level) string {
	if !handler.IsValidLevel(l) {
		return handler.PlainLevel(l)
	}
	return levelColors[l] + l.Label() + ansiReset
}

// ColorError renders the error line in red.
func ColorError(err error) string {
	return ansiRed + handler.PlainError(err) + ansiReset
}
