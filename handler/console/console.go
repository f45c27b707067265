// Package console provides CONSOLE category handlers that print
// human-readable lines, with optional ANSI coloring.
//
// By default the handlers only print while tests are running, so that
// test output shows the log trail of the code under test. NewAlwaysActive
// builds a handler that prints regardless of the execution context.
package console

import (
	"errors"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-colorable"

	"github.com/balinomad/go-bark/detect"
	"github.com/balinomad/go-bark/handler"
)

// consoleOptions holds configuration for the console handler.
type consoleOptions struct {
	base           *handler.BaseOptions
	color          ColorMode
	colorProbe     func(io.Writer) bool
	timeFormat     string
	detailedErrors bool
}

// ConsoleOption configures console handler creation.
type ConsoleOption func(*consoleOptions) error

// WithVolume sets the minimum level.
func WithVolume(level handler.Level) ConsoleOption {
	return func(o *consoleOptions) error {
		return handler.WithVolume(level)(o.base)
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) ConsoleOption {
	return func(o *consoleOptions) error {
		return handler.WithOutput(w)(o.base)
	}
}

// WithTimestamp enables or disables the leading timestamp. Enabled by default.
func WithTimestamp(enabled bool) ConsoleOption {
	return func(o *consoleOptions) error {
		return handler.WithTimestamp(enabled)(o.base)
	}
}

// WithTimeFormat sets the timestamp layout. Defaults to handler.DefaultTimeFormat.
func WithTimeFormat(layout string) ConsoleOption {
	return func(o *consoleOptions) error {
		if layout == "" {
			return handler.NewOptionApplyError("WithTimeFormat", errors.New("layout cannot be empty"))
		}
		o.timeFormat = layout
		return nil
	}
}

// WithSource appends the caller location to every line.
func WithSource(enabled bool) ConsoleOption {
	return func(o *consoleOptions) error {
		return handler.WithSource(enabled)(o.base)
	}
}

// WithDetailedErrors enables or disables the %+v error rendering
// for ERROR and above. Enabled by default.
func WithDetailedErrors(enabled bool) ConsoleOption {
	return func(o *consoleOptions) error {
		o.detailedErrors = enabled
		return nil
	}
}

// WithColor sets the color mode.
func WithColor(mode ColorMode) ConsoleOption {
	return func(o *consoleOptions) error {
		if mode > ColorAlways {
			return handler.NewOptionApplyError("WithColor", errors.New("unknown color mode"))
		}
		o.color = mode
		return nil
	}
}

// WithColorProbe replaces the color capability check used by ColorAuto.
// Defaults to detect.SupportsColor.
func WithColorProbe(probe func(io.Writer) bool) ConsoleOption {
	return func(o *consoleOptions) error {
		if probe == nil {
			return handler.NewOptionApplyError("WithColorProbe", errors.New("probe cannot be nil"))
		}
		o.colorProbe = probe
		return nil
	}
}

// WithTestMode sets the behavior during test runs. Defaults to handler.TestModeOnly.
func WithTestMode(mode handler.TestMode) ConsoleOption {
	return func(o *consoleOptions) error {
		return handler.WithTestMode(mode)(o.base)
	}
}

// WithTestDetector replaces the test-environment detector.
func WithTestDetector(isTesting func() bool) ConsoleOption {
	return func(o *consoleOptions) error {
		return handler.WithTestDetector(isTesting)(o.base)
	}
}

// consoleHandler writes formatted lines to its output.
type consoleHandler struct {
	base  *handler.BaseHandler
	name  string
	color ColorMode
	probe func(io.Writer) bool

	mu        sync.RWMutex
	formatter handler.TextFormatter
}

// Ensure consoleHandler implements the following interfaces.
var (
	_ handler.Handler      = (*consoleHandler)(nil)
	_ handler.Namer        = (*consoleHandler)(nil)
	_ handler.Configurator = (*consoleHandler)(nil)
)

// New creates a plain console handler writing to stdout.
func New(opts ...ConsoleOption) (handler.Handler, error) {
	return newHandler("console", os.Stdout, ColorNever, opts)
}

// NewColored creates a console handler that colors level labels and
// errors when stdout supports it. The default output is a colorable
// stdout, so escape sequences are translated on Windows consoles.
func NewColored(opts ...ConsoleOption) (handler.Handler, error) {
	return newHandler("colored-console", colorable.NewColorableStdout(), ColorAuto, opts)
}

// NewAlwaysActive creates a colored console handler that prints
// regardless of whether tests are running.
func NewAlwaysActive(opts ...ConsoleOption) (handler.Handler, error) {
	opts = append([]ConsoleOption{WithTestMode(handler.TestModeAlways)}, opts...)
	return newHandler("always-console", colorable.NewColorableStdout(), ColorAuto, opts)
}

func newHandler(name string, out io.Writer, color ColorMode, opts []ConsoleOption) (handler.Handler, error) {
	o := &consoleOptions{
		base: &handler.BaseOptions{
			Volume:        handler.DefaultLevel,
			Category:      handler.ConsoleCategory,
			Output:        out,
			WithTimestamp: true,
			TestMode:      handler.TestModeOnly,
		},
		color:          color,
		colorProbe:     detect.SupportsColor,
		timeFormat:     handler.DefaultTimeFormat,
		detailedErrors: true,
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	base, err := handler.NewBaseHandler(o.base)
	if err != nil {
		return nil, err
	}

	h := &consoleHandler{
		base:  base,
		name:  name,
		color: o.color,
		probe: o.colorProbe,
		formatter: handler.TextFormatter{
			TimeFormat:     o.timeFormat,
			DetailedErrors: o.detailedErrors,
		},
	}
	h.formatter.Decorator = h.decoratorFor(o.base.Output)

	return h, nil
}

// Handle implements the handler.Handler interface.
func (h *consoleHandler) Handle(e *handler.Event) error {
	if !h.base.ShouldHandle(e.Level) {
		return nil
	}

	h.mu.RLock()
	f := h.formatter
	h.mu.RUnlock()

	f.Timestamp = h.base.TimestampEnabled()
	f.Source = h.base.SourceEnabled()

	_, err := io.WriteString(h.base.AtomicWriter(), f.Format(e))
	return err
}

// Volume returns the minimum level.
func (h *consoleHandler) Volume() handler.Level {
	return h.base.Volume()
}

// Category returns handler.ConsoleCategory.
func (h *consoleHandler) Category() handler.Category {
	return h.base.Category()
}

// Name returns the handler display name.
func (h *consoleHandler) Name() string {
	return h.name
}

// SetVolume dynamically changes the minimum level of events that will be processed.
func (h *consoleHandler) SetVolume(level handler.Level) error {
	return h.base.SetVolume(level)
}

// SetOutput sets the log destination. In ColorAuto mode the color
// capability is re-evaluated for the new writer.
func (h *consoleHandler) SetOutput(w io.Writer) error {
	if err := h.base.SetOutput(w); err != nil {
		return err
	}

	h.mu.Lock()
	h.formatter.Decorator = h.decoratorFor(w)
	h.mu.Unlock()

	return nil
}

// decoratorFor selects the decorator for output w.
func (h *consoleHandler) decoratorFor(w io.Writer) handler.Decorator {
	switch h.color {
	case ColorAlways:
		return ColorDecorator
	case ColorAuto:
		if h.probe(w) {
			return ColorDecorator
		}
	}
	return handler.PlainDecorator
}
