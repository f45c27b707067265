// Package zerolog provides a SYSTEM category handler that routes events to a
// github.com/rs/zerolog logger.
package zerolog

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/balinomad/go-bark/handler"
)

// validFormats is the list of supported output formats.
var validFormats = []string{"json", "console"}

// zerologOptions holds configuration for the zerolog handler.
type zerologOptions struct {
	base *handler.BaseOptions
}

// ZerologOption configures zerolog handler creation.
type ZerologOption func(*zerologOptions) error

// WithVolume sets the minimum level.
func WithVolume(level handler.Level) ZerologOption {
	return func(o *zerologOptions) error {
		return handler.WithVolume(level)(o.base)
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) ZerologOption {
	return func(o *zerologOptions) error {
		return handler.WithOutput(w)(o.base)
	}
}

// WithFormat sets the output format ("json" or "console").
func WithFormat(format string) ZerologOption {
	return func(o *zerologOptions) error {
		return handler.WithFormat(format)(o.base)
	}
}

// WithTimestamp enables or disables the time field. Enabled by default.
func WithTimestamp(enabled bool) ZerologOption {
	return func(o *zerologOptions) error {
		return handler.WithTimestamp(enabled)(o.base)
	}
}

// WithSource enables or disables the caller field with the caller location.
func WithSource(enabled bool) ZerologOption {
	return func(o *zerologOptions) error {
		return handler.WithSource(enabled)(o.base)
	}
}

// WithTestMode sets the behavior during test runs. Defaults to handler.TestModeSkip.
func WithTestMode(mode handler.TestMode) ZerologOption {
	return func(o *zerologOptions) error {
		return handler.WithTestMode(mode)(o.base)
	}
}

// WithTestDetector replaces the test-environment detector.
func WithTestDetector(isTesting func() bool) ZerologOption {
	return func(o *zerologOptions) error {
		return handler.WithTestDetector(isTesting)(o.base)
	}
}

// zerologHandler is a wrapper around zerolog.Logger.
type zerologHandler struct {
	base *handler.BaseHandler

	mu     sync.RWMutex
	logger zerolog.Logger
}

// Ensure zerologHandler implements the following interfaces.
var (
	_ handler.Handler      = (*zerologHandler)(nil)
	_ handler.Namer        = (*zerologHandler)(nil)
	_ handler.Configurator = (*zerologHandler)(nil)
)

// levelMapper maps bark levels to zerolog levels.
var levelMapper = handler.NewLevelMapper(
	zerolog.TraceLevel, // Verbose
	zerolog.DebugLevel, // Debug
	zerolog.InfoLevel,  // Info
	zerolog.WarnLevel,  // Warning
	zerolog.ErrorLevel, // Error
	zerolog.ErrorLevel, // Critical (no native equivalent)
)

// New creates a new handler.Handler instance backed by zerolog.
func New(opts ...ZerologOption) (handler.Handler, error) {
	o := &zerologOptions{
		base: &handler.BaseOptions{
			Volume:        handler.DefaultLevel,
			Category:      handler.SystemCategory,
			Output:        os.Stderr,
			Format:        "json",
			ValidFormats:  validFormats,
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

	var w io.Writer = base.AtomicWriter()
	if base.Format() == "console" {
		w = zerolog.ConsoleWriter{
			Out:        base.AtomicWriter(),
			TimeFormat: time.RFC3339,
			NoColor:    true,
		}
	}

	return &zerologHandler{
		base:   base,
		logger: zerolog.New(w).Level(levelMapper.Map(base.Volume())),
	}, nil
}

// Handle implements the handler.Handler interface for zerolog.
func (h *zerologHandler) Handle(e *handler.Event) error {
	if !h.base.ShouldHandle(e.Level) {
		return nil
	}

	h.mu.RLock()
	l := h.logger
	h.mu.RUnlock()

	event := l.WithLevel(levelMapper.Map(e.Level))
	if event == nil {
		return nil
	}

	if h.base.TimestampEnabled() && !e.Time.IsZero() {
		event.Time(zerolog.TimestampFieldName, e.Time)
	}
	if e.Tag != "" {
		event.Str("tag", e.Tag)
	}
	if e.Err != nil {
		event.Err(e.Err)
	}
	if h.base.SourceEnabled() {
		if loc := handler.SourceLocation(e.PC); loc != "" {
			event.Str(zerolog.CallerFieldName, loc)
		}
	}

	event.Msg(e.Message)

	return nil
}

// Volume returns the minimum level.
func (h *zerologHandler) Volume() handler.Level {
	return h.base.Volume()
}

// Category returns handler.SystemCategory.
func (h *zerologHandler) Category() handler.Category {
	return h.base.Category()
}

// Name returns the handler display name.
func (h *zerologHandler) Name() string {
	return "zerolog"
}

// SetVolume dynamically changes the minimum level of events that will be processed.
func (h *zerologHandler) SetVolume(level handler.Level) error {
	if err := h.base.SetVolume(level); err != nil {
		return err
	}

	h.mu.Lock()
	h.logger = h.logger.Level(levelMapper.Map(level))
	h.mu.Unlock()

	return nil
}

// SetOutput sets the log destination.
func (h *zerologHandler) SetOutput(w io.Writer) error {
	return h.base.SetOutput(w)
}
