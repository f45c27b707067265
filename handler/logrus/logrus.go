// Package logrus provides a SYSTEM category handler that routes events to a
// github.com/sirupsen/logrus logger.
package logrus

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/balinomad/go-bark/handler"
)

// validFormats is the list of supported output formats.
var validFormats = []string{"text", "json"}

// timestampFormat is used by both formatters.
const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// logrusOptions holds configuration for the logrus logger.
type logrusOptions struct {
	base *handler.BaseOptions
}

// LogrusOption configures logrus handler creation.
type LogrusOption func(*logrusOptions) error

// WithVolume sets the minimum level.
func WithVolume(level handler.Level) LogrusOption {
	return func(o *logrusOptions) error {
		return handler.WithVolume(level)(o.base)
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) LogrusOption {
	return func(o *logrusOptions) error {
		return handler.WithOutput(w)(o.base)
	}
}

// WithFormat sets the output format ("text" or "json").
func WithFormat(format string) LogrusOption {
	return func(o *logrusOptions) error {
		return handler.WithFormat(format)(o.base)
	}
}

// WithSource enables or disables source location reporting.
// Native logrus caller reporting cannot skip the facade frames,
// so the location is resolved from the event program counter instead.
func WithSource(enabled bool) LogrusOption {
	return func(o *logrusOptions) error {
		return handler.WithSource(enabled)(o.base)
	}
}

// WithTestMode sets the behavior during test runs. Defaults to handler.TestModeSkip.
func WithTestMode(mode handler.TestMode) LogrusOption {
	return func(o *logrusOptions) error {
		return handler.WithTestMode(mode)(o.base)
	}
}

// WithTestDetector replaces the test-environment detector.
func WithTestDetector(isTesting func() bool) LogrusOption {
	return func(o *logrusOptions) error {
		return handler.WithTestDetector(isTesting)(o.base)
	}
}

// logrusHandler is a wrapper around logrus.Logger.
type logrusHandler struct {
	base   *handler.BaseHandler
	logger *logrus.Logger
}

// Ensure logrusHandler implements the following interfaces.
var (
	_ handler.Handler      = (*logrusHandler)(nil)
	_ handler.Namer        = (*logrusHandler)(nil)
	_ handler.Configurator = (*logrusHandler)(nil)
)

// levelMapper maps bark levels to logrus levels.
var levelMapper = handler.NewLevelMapper(
	logrus.TraceLevel, // Verbose
	logrus.DebugLevel, // Debug
	logrus.InfoLevel,  // Info
	logrus.WarnLevel,  // Warning
	logrus.ErrorLevel, // Error
	logrus.ErrorLevel, // Critical (Fatal and Panic terminate the program)
)

// New creates a new handler.Handler instance backed by logrus.
func New(opts ...LogrusOption) (handler.Handler, error) {
	o := &logrusOptions{
		base: &handler.BaseOptions{
			Volume:        handler.DefaultLevel,
			Category:      handler.SystemCategory,
			Output:        os.Stderr,
			Format:        "text",
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

	logger := logrus.New()
	logger.SetOutput(base.AtomicWriter())
	logger.SetLevel(levelMapper.Map(base.Volume()))
	logger.SetReportCaller(false)

	if base.Format() == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timestampFormat})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: timestampFormat,
			DisableColors:   true,
		})
	}

	return &logrusHandler{
		base:   base,
		logger: logger,
	}, nil
}

// Handle implements the handler.Handler interface for logrus.
func (h *logrusHandler) Handle(e *handler.Event) error {
	if !h.base.ShouldHandle(e.Level) {
		return nil
	}

	lvl := levelMapper.Map(e.Level)
	if !h.logger.IsLevelEnabled(lvl) {
		return nil
	}

	fields := make(logrus.Fields, 3)
	if e.Tag != "" {
		fields["tag"] = e.Tag
	}
	if e.Err != nil {
		fields[logrus.ErrorKey] = e.Err
	}
	if h.base.SourceEnabled() {
		if loc := handler.SourceLocation(e.PC); loc != "" {
			fields["source"] = loc
		}
	}

	entry := logrus.NewEntry(h.logger).WithFields(fields)
	if !e.Time.IsZero() {
		entry = entry.WithTime(e.Time)
	}
	entry.Log(lvl, e.Message)

	return nil
}

// Volume returns the minimum level.
func (h *logrusHandler) Volume() handler.Level {
	return h.base.Volume()
}

// Category returns handler.SystemCategory.
func (h *logrusHandler) Category() handler.Category {
	return h.base.Category()
}

// Name returns the handler display name.
func (h *logrusHandler) Name() string {
	return "logrus"
}

// SetVolume dynamically changes the minimum level of events that will be processed.
func (h *logrusHandler) SetVolume(level handler.Level) error {
	if err := h.base.SetVolume(level); err != nil {
		return err
	}
	h.logger.SetLevel(levelMapper.Map(level))

	return nil
}

// SetOutput sets the log destination.
func (h *logrusHandler) SetOutput(w io.Writer) error {
	return h.base.SetOutput(w)
}
