// Package zap provides a SYSTEM category handler that routes events to a
// go.uber.org/zap logger.
package zap

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/balinomad/go-bark/handler"
)

// validFormats is the list of supported output formats.
var validFormats = []string{"json", "console"}

// zapOptions holds configuration for the zap handler.
type zapOptions struct {
	base *handler.BaseOptions
}

// ZapOption configures zap handler creation.
type ZapOption func(*zapOptions) error

// WithVolume sets the minimum level.
func WithVolume(level handler.Level) ZapOption {
	return func(o *zapOptions) error {
		return handler.WithVolume(level)(o.base)
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) ZapOption {
	return func(o *zapOptions) error {
		return handler.WithOutput(w)(o.base)
	}
}

// WithFormat sets the output format ("json" or "console").
func WithFormat(format string) ZapOption {
	return func(o *zapOptions) error {
		return handler.WithFormat(format)(o.base)
	}
}

// WithSource enables or disables the "source" field with the caller location.
func WithSource(enabled bool) ZapOption {
	return func(o *zapOptions) error {
		return handler.WithSource(enabled)(o.base)
	}
}

// WithTestMode sets the behavior during test runs. Defaults to handler.TestModeSkip.
func WithTestMode(mode handler.TestMode) ZapOption {
	return func(o *zapOptions) error {
		return handler.WithTestMode(mode)(o.base)
	}
}

// WithTestDetector replaces the test-environment detector.
func WithTestDetector(isTesting func() bool) ZapOption {
	return func(o *zapOptions) error {
		return handler.WithTestDetector(isTesting)(o.base)
	}
}

// zapHandler routes events to a zap logger.
type zapHandler struct {
	base   *handler.BaseHandler
	logger *zap.Logger
	lvl    zap.AtomicLevel
}

// Ensure zapHandler implements the following interfaces.
var (
	_ handler.Handler      = (*zapHandler)(nil)
	_ handler.Namer        = (*zapHandler)(nil)
	_ handler.Configurator = (*zapHandler)(nil)
	_ handler.Syncer       = (*zapHandler)(nil)
)

// levelMapper maps bark levels to zap levels.
// DPanicLevel only panics in development loggers, which this handler never builds.
var levelMapper = handler.NewLevelMapper(
	zapcore.DebugLevel,  // Verbose (no native equivalent)
	zapcore.DebugLevel,  // Debug
	zapcore.InfoLevel,   // Info
	zapcore.WarnLevel,   // Warning
	zapcore.ErrorLevel,  // Error
	zapcore.DPanicLevel, // Critical
)

// New creates a new handler.Handler instance backed by zap.
func New(opts ...ZapOption) (handler.Handler, error) {
	o := &zapOptions{
		base: &handler.BaseOptions{
			Volume:       handler.DefaultLevel,
			Category:     handler.SystemCategory,
			Output:       os.Stderr,
			Format:       "json",
			ValidFormats: validFormats,
			TestMode:     handler.TestModeSkip,
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

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	if base.Format() == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	lvl := zap.NewAtomicLevelAt(levelMapper.Map(base.Volume()))
	core := zapcore.NewCore(encoder, zapcore.AddSync(base.AtomicWriter()), lvl)

	return &zapHandler{
		base:   base,
		logger: zap.New(core),
		lvl:    lvl,
	}, nil
}

// Handle implements the handler.Handler interface for zap.
func (h *zapHandler) Handle(e *handler.Event) error {
	if !h.base.ShouldHandle(e.Level) {
		return nil
	}

	ce := h.logger.Check(levelMapper.Map(e.Level), e.Message)
	if ce == nil {
		return nil
	}
	if !e.Time.IsZero() {
		ce.Time = e.Time
	}

	fields := make([]zap.Field, 0, 3)
	if e.Tag != "" {
		fields = append(fields, zap.String("tag", e.Tag))
	}
	if e.Err != nil {
		fields = append(fields, zap.Error(e.Err))
	}
	if h.base.SourceEnabled() {
		if loc := handler.SourceLocation(e.PC); loc != "" {
			fields = append(fields, zap.String("source", loc))
		}
	}

	ce.Write(fields...)

	return nil
}

// Volume returns the minimum level.
func (h *zapHandler) Volume() handler.Level {
	return h.base.Volume()
}

// Category returns handler.SystemCategory.
func (h *zapHandler) Category() handler.Category {
	return h.base.Category()
}

// Name returns the handler display name.
func (h *zapHandler) Name() string {
	return "zap"
}

// SetVolume dynamically changes the minimum level of events that will be processed.
func (h *zapHandler) SetVolume(level handler.Level) error {
	if err := h.base.SetVolume(level); err != nil {
		return err
	}

	h.lvl.SetLevel(levelMapper.Map(level))

	return nil
}

// SetOutput changes the destination for log output.
func (h *zapHandler) SetOutput(w io.Writer) error {
	return h.base.SetOutput(w)
}

// Sync flushes any buffered log entries.
func (h *zapHandler) Sync() error {
	return h.logger.Sync()
}
