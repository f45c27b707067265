package detect

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// colorTerms are TERM prefixes of terminal types known to render ANSI colors.
var colorTerms = []string{
	"xterm", "screen", "vt100", "ansi", "linux", "tmux",
	"rxvt", "cygwin", "konsole", "alacritty", "kitty",
}

// fder is implemented by *os.File and by writers wrapping a file descriptor.
type fder interface {
	Fd() uintptr
}

// ColorProbe decides whether a stream can render ANSI colors.
// The zero value is not usable; use NewColorProbe.
type ColorProbe struct {
	isTerminal func(fd uintptr) bool
	getenv     func(key string) string
}

// NewColorProbe creates a ColorProbe. Nil arguments select the real
// terminal check and os.Getenv.
func NewColorProbe(isTerminal func(fd uintptr) bool, getenv func(key string) string) *ColorProbe {
	if isTerminal == nil {
		isTerminal = func(fd uintptr) bool {
			return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		}
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	return &ColorProbe{isTerminal: isTerminal, getenv: getenv}
}

// SupportsColor reports whether w is an interactive terminal whose declared
// terminal type renders colors. It returns false when either check fails or
// cannot be performed, and when NO_COLOR is set.
func (p *ColorProbe) SupportsColor(w io.Writer) bool {
	f, ok := w.(fder)
	if !ok || !p.isTerminal(f.Fd()) {
		return false
	}

	if p.getenv("NO_COLOR") != "" {
		return false
	}

	term := strings.ToLower(p.getenv("TERM"))
	if term == "" || term == "dumb" {
		return false
	}
	for _, t := range colorTerms {
		if strings.HasPrefix(term, t) {
			return true
		}
	}

	return false
}

var defaultColorProbe = NewColorProbe(nil, nil)

// SupportsColor reports whether w can render ANSI colors, using the real
// terminal check and process environment.
func SupportsColor(w io.Writer) bool {
	return defaultColorProbe.SupportsColor(w)
}
