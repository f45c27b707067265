// Package file provides a FILE category handler that appends plain text
// lines to a size-rotated log file.
package file

import (
	"errors"
	"io"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/balinomad/go-bark/handler"
	filewriter "github.com/balinomad/go-bark/writer/file"
	"github.com/balinomad/go-bark/writer/multi"
)

// DefaultTimeFormat is the timestamp layout of file lines.
const DefaultTimeFormat = "2006-01-02 15:04:05.000"

// fileOptions holds configuration for the file handler.
type fileOptions struct {
	base       *handler.BaseOptions
	file       *filewriter.Config
	mirrors    []io.Writer
	timeFormat string
}

// FileOption configures file handler creation.
type FileOption func(*fileOptions) error

// WithVolume sets the minimum level.
func WithVolume(level handler.Level) FileOption {
	return func(o *fileOptions) error {
		return handler.WithVolume(level)(o.base)
	}
}

// WithFile sets the rotating file the handler writes to.
func WithFile(cfg filewriter.Config) FileOption {
	return func(o *fileOptions) error {
		if cfg.Filename == "" {
			return handler.NewOptionApplyError("WithFile", filewriter.ErrNoFilename)
		}
		o.file = &cfg
		return nil
	}
}

// WithOutput replaces the rotating file with an arbitrary writer.
func WithOutput(w io.Writer) FileOption {
	return func(o *fileOptions) error {
		return handler.WithOutput(w)(o.base)
	}
}

// WithMirror duplicates every line to the given writers as well.
func WithMirror(writers ...io.Writer) FileOption {
	return func(o *fileOptions) error {
		for _, w := range writers {
			if w == nil {
				return handler.NewOptionApplyError("WithMirror", handler.ErrNilWriter)
			}
		}
		o.mirrors = append(o.mirrors, writers...)
		return nil
	}
}

// WithTimestamp enables or disables the leading timestamp. Enabled by default.
func WithTimestamp(enabled bool) FileOption {
	return func(o *fileOptions) error {
		return handler.WithTimestamp(enabled)(o.base)
	}
}

// WithTimeFormat sets the timestamp layout. Defaults to DefaultTimeFormat.
func WithTimeFormat(layout string) FileOption {
	return func(o *fileOptions) error {
		if layout == "" {
			return handler.NewOptionApplyError("WithTimeFormat", errors.New("layout cannot be empty"))
		}
		o.timeFormat = layout
		return nil
	}
}

// WithSource appends the caller location to every line.
func WithSource(enabled bool) FileOption {
	return func(o *fileOptions) error {
		return handler.WithSource(enabled)(o.base)
	}
}

// WithTestMode sets the behavior during test runs. Defaults to handler.TestModeSkip.
func WithTestMode(mode handler.TestMode) FileOption {
	return func(o *fileOptions) error {
		return handler.WithTestMode(mode)(o.base)
	}
}

// WithTestDetector replaces the test-environment detector.
func WithTestDetector(isTesting func() bool) FileOption {
	return func(o *fileOptions) error {
		return handler.WithTestDetector(isTesting)(o.base)
	}
}

// fileHandler writes formatted lines through a multi.Writer.
type fileHandler struct {
	base      *handler.BaseHandler
	out       *multi.Writer
	rotator   *lumberjack.Logger
	formatter handler.TextFormatter
}

// Ensure fileHandler implements the following interfaces.
var (
	_ handler.Handler      = (*fileHandler)(nil)
	_ handler.Namer        = (*fileHandler)(nil)
	_ handler.Configurator = (*fileHandler)(nil)
	_ handler.Syncer       = (*fileHandler)(nil)
	_ io.Closer            = (*fileHandler)(nil)
)

// New creates a file handler. Either WithFile or WithOutput is required.
func New(opts ...FileOption) (handler.Handler, error) {
	o := &fileOptions{
		base: &handler.BaseOptions{
			Volume:        handler.DefaultLevel,
			Category:      handler.FileCategory,
			WithTimestamp: true,
			TestMode:      handler.TestModeSkip,
		},
		timeFormat: DefaultTimeFormat,
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	var rotator *lumberjack.Logger
	primary := o.base.Output
	if primary == nil {
		if o.file == nil {
			return nil, filewriter.ErrNoFilename
		}
		lj, err := filewriter.New(*o.file)
		if err != nil {
			return nil, err
		}
		rotator, primary = lj, lj
	}

	out := multi.New(append([]io.Writer{primary}, o.mirrors...)...)
	o.base.Output = out

	base, err := handler.NewBaseHandler(o.base)
	if err != nil {
		return nil, err
	}

	return &fileHandler{
		base:    base,
		out:     out,
		rotator: rotator,
		formatter: handler.TextFormatter{
			Decorator:      handler.PlainDecorator,
			TimeFormat:     o.timeFormat,
			DetailedErrors: true,
		},
	}, nil
}

// Handle implements the handler.Handler interface.
func (h *fileHandler) Handle(e *handler.Event) error {
	if !h.base.ShouldHandle(e.Level) {
		return nil
	}

	f := h.formatter
	f.Timestamp = h.base.TimestampEnabled()
	f.Source = h.base.SourceEnabled()

	_, err := io.WriteString(h.base.AtomicWriter(), f.Format(e))
	return err
}

// Volume returns the minimum level.
func (h *fileHandler) Volume() handler.Level {
	return h.base.Volume()
}

// Category returns handler.FileCategory.
func (h *fileHandler) Category() handler.Category {
	return h.base.Category()
}

// Name returns the handler display name.
func (h *fileHandler) Name() string {
	return "file"
}

// SetVolume dynamically changes the minimum level of events that will be processed.
func (h *fileHandler) SetVolume(level handler.Level) error {
	return h.base.SetVolume(level)
}

// SetOutput redirects all output, including mirrors, to w.
// The rotating file, if any, is left open; call Close to release it.
func (h *fileHandler) SetOutput(w io.Writer) error {
	return h.base.SetOutput(w)
}

// Sync flushes the file and mirrors that support it.
func (h *fileHandler) Sync() error {
	return h.out.Sync()
}

// Rotate forces a rotation of the log file.
// It is a no-op when the handler was created with WithOutput.
func (h *fileHandler) Rotate() error {
	if h.rotator == nil {
		return nil
	}
	return h.rotator.Rotate()
}

// Close closes the log file. Writers passed to WithOutput or WithMirror
// are owned by the caller and stay open.
func (h *fileHandler) Close() error {
	if h.rotator == nil {
		return nil
	}
	return h.rotator.Close()
}
