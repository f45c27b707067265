// Package stdlog provides a SYSTEM category handler that writes events
// through a standard library log.Logger.
package stdlog

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/balinomad/go-ctxmap"

	"github.com/balinomad/go-bark/handler"
)

// DefaultKeySeparator is the default separator between a field prefix and a key.
const DefaultKeySeparator = "_"

// timeLayout matches the log.LstdFlags rendering.
const timeLayout = "2006/01/02 15:04:05"

// fieldStringer returns a string representation of a key-value pair.
var fieldStringer = func(k string, v any) string { return k + "=" + fmt.Sprint(v) }

// stdlogOptions holds configuration for the stdlog handler.
type stdlogOptions struct {
	base   *handler.BaseOptions
	prefix string
}

// StdlogOption configures stdlog handler creation.
type StdlogOption func(*stdlogOptions) error

// WithVolume sets the minimum level.
func WithVolume(level handler.Level) StdlogOption {
	return func(o *stdlogOptions) error {
		return handler.WithVolume(level)(o.base)
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) StdlogOption {
	return func(o *stdlogOptions) error {
		return handler.WithOutput(w)(o.base)
	}
}

// WithTimestamp enables or disables the leading timestamp. Enabled by default.
func WithTimestamp(enabled bool) StdlogOption {
	return func(o *stdlogOptions) error {
		return handler.WithTimestamp(enabled)(o.base)
	}
}

// WithSource enables or disables the source field with the caller location.
func WithSource(enabled bool) StdlogOption {
	return func(o *stdlogOptions) error {
		return handler.WithSource(enabled)(o.base)
	}
}

// WithFieldPrefix prepends prefix and DefaultKeySeparator to every field key.
func WithFieldPrefix(prefix string) StdlogOption {
	return func(o *stdlogOptions) error {
		o.prefix = prefix
		return nil
	}
}

// WithTestMode sets the behavior during test runs. Defaults to handler.TestModeSkip.
func WithTestMode(mode handler.TestMode) StdlogOption {
	return func(o *stdlogOptions) error {
		return handler.WithTestMode(mode)(o.base)
	}
}

// WithTestDetector replaces the test-environment detector.
func WithTestDetector(isTesting func() bool) StdlogOption {
	return func(o *stdlogOptions) error {
		return handler.WithTestDetector(isTesting)(o.base)
	}
}

// stdlogHandler writes events through a log.Logger.
type stdlogHandler struct {
	base   *handler.BaseHandler
	l      *log.Logger
	fields *ctxmap.CtxMap
}

// Ensure stdlogHandler implements the following interfaces.
var (
	_ handler.Handler      = (*stdlogHandler)(nil)
	_ handler.Namer        = (*stdlogHandler)(nil)
	_ handler.Configurator = (*stdlogHandler)(nil)
)

// New creates a new handler.Handler instance backed by the standard log package.
func New(opts ...StdlogOption) (handler.Handler, error) {
	o := &stdlogOptions{
		base: &handler.BaseOptions{
			Volume:        handler.DefaultLevel,
			Category:      handler.SystemCategory,
			Output:        os.Stderr,
			WithTimestamp: true,
			TestMode:      handler.TestModeSkip,
		},
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

	fields := ctxmap.NewCtxMap(DefaultKeySeparator, " ", fieldStringer)
	if o.prefix != "" {
		fields = fields.WithPrefix(o.prefix)
	}

	return &stdlogHandler{
		base:   base,
		l:      log.New(base.AtomicWriter(), "", 0),
		fields: fields,
	}, nil
}

// Handle implements the handler.Handler interface for the standard logger.
func (h *stdlogHandler) Handle(e *handler.Event) error {
	if !h.base.ShouldHandle(e.Level) {
		return nil
	}

	pairs := make([]any, 0, 6)
	if e.Tag != "" {
		pairs = append(pairs, "tag", e.Tag)
	}
	if e.Err != nil {
		pairs = append(pairs, "error", e.Err)
	}
	if h.base.SourceEnabled() {
		if loc := handler.SourceLocation(e.PC); loc != "" {
			pairs = append(pairs, "source", loc)
		}
	}
	fields := h.fields.WithPairs(pairs...)

	var sb strings.Builder
	if h.base.TimestampEnabled() && !e.Time.IsZero() {
		sb.WriteString(e.Time.Format(timeLayout))
		sb.WriteByte(' ')
	}
	sb.WriteString(e.Level.Label())
	sb.WriteByte(' ')
	sb.WriteString(e.Message)
	if fields.Len() > 0 {
		sb.WriteByte(' ')
		sb.WriteString(fields.String())
	}

	return h.l.Output(0, sb.String())
}

// Volume returns the minimum level.
func (h *stdlogHandler) Volume() handler.Level {
	return h.base.Volume()
}

// Category returns handler.SystemCategory.
func (h *stdlogHandler) Category() handler.Category {
	return h.base.Category()
}

// Name returns the handler display name.
func (h *stdlogHandler) Name() string {
	return "stdlog"
}

// SetVolume dynamically changes the minimum level of events that will be processed.
func (h *stdlogHandler) SetVolume(level handler.Level) error {
	return h.base.SetVolume(level)
}

// SetOutput sets the log destination.
func (h *stdlogHandler) SetOutput(w io.Writer) error {
	return h.base.SetOutput(w)
}
