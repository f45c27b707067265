// Package log15 provides a SYSTEM category handler that routes events to a
// github.com/inconshreveable/log15/v3 logger.
package log15

import (
	"io"
	"os"
	"time"

	"github.com/inconshreveable/log15/v3"

	"github.com/balinomad/go-bark/handler"
)

// defaultFormat is the default output format.
const defaultFormat = "logfmt"

// validFormats is the list of supported output formats.
var validFormats = []string{"logfmt", "json", "terminal"}

// log15Options holds configuration for the log15 handler.
type log15Options struct {
	base *handler.BaseOptions
}

// Log15Option configures log15 handler creation.
type Log15Option func(*log15Options) error

// WithVolume sets the minimum level.
func WithVolume(level handler.Level) Log15Option {
	return func(o *log15Options) error {
		return handler.WithVolume(level)(o.base)
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Log15Option {
	return func(o *log15Options) error {
		return handler.WithOutput(w)(o.base)
	}
}

// WithFormat sets the output format ("logfmt", "json" or "terminal").
func WithFormat(format string) Log15Option {
	return func(o *log15Options) error {
		return handler.WithFormat(format)(o.base)
	}
}

// WithSource enables or disables the source field with the caller location.
func WithSource(enabled bool) Log15Option {
	return func(o *log15Options) error {
		return handler.WithSource(enabled)(o.base)
	}
}

// WithTestMode sets the behavior during test runs. Defaults to handler.TestModeSkip.
func WithTestMode(mode handler.TestMode) Log15Option {
	return func(o *log15Options) error {
		return handler.WithTestMode(mode)(o.base)
	}
}

// WithTestDetector replaces the test-environment detector.
func WithTestDetector(isTesting func() bool) Log15Option {
	return func(o *log15Options) error {
		return handler.WithTestDetector(isTesting)(o.base)
	}
}

// log15Handler is a wrapper around log15.Logger.
type log15Handler struct {
	base   *handler.BaseHandler
	logger log15.Logger
}

// Ensure log15Handler implements the following interfaces.
var (
	_ handler.Handler      = (*log15Handler)(nil)
	_ handler.Namer        = (*log15Handler)(nil)
	_ handler.Configurator = (*log15Handler)(nil)
)

// levelMapper maps bark levels to log15 levels.
var levelMapper = handler.NewLevelMapper(
	log15.LvlDebug, // Verbose (no native equivalent)
	log15.LvlDebug, // Debug
	log15.LvlInfo,  // Info
	log15.LvlWarn,  // Warning
	log15.LvlError, // Error
	log15.LvlCrit,  // Critical
)

// New creates a new handler.Handler instance backed by log15.
func New(opts ...Log15Option) (handler.Handler, error) {
	o := &log15Options{
		base: &handler.BaseOptions{
			Volume:        handler.DefaultLevel,
			Category:      handler.SystemCategory,
			Output:        os.Stderr,
			Format:        defaultFormat,
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

	h := &log15Handler{
		base:   base,
		logger: log15.New(),
	}
	h.logger.SetHandler(h.buildLog15Handler())

	return h, nil
}

// Handle implements the handler.Handler interface for log15.
func (h *log15Handler) Handle(e *handler.Event) error {
	if !h.base.ShouldHandle(e.Level) {
		return nil
	}

	fields := make([]any, 0, 6)
	if e.Tag != "" {
		fields = append(fields, "tag", e.Tag)
	}
	if e.Err != nil {
		fields = append(fields, "err", e.Err)
	}
	if h.base.SourceEnabled() {
		if loc := handler.SourceLocation(e.PC); loc != "" {
			fields = append(fields, "source", loc)
		}
	}

	t := e.Time
	if t.IsZero() {
		t = time.Now()
	}

	h.logger.GetHandler().Log(log15.Record{
		Time:     t,
		Lvl:      levelMapper.Map(e.Level),
		Msg:      e.Message,
		Ctx:      fields,
		KeyNames: log15.DefaultRecordKeyNames,
	})

	return nil
}

// Volume returns the minimum level.
func (h *log15Handler) Volume() handler.Level {
	return h.base.Volume()
}

// Category returns handler.SystemCategory.
func (h *log15Handler) Category() handler.Category {
	return h.base.Category()
}

// Name returns the handler display name.
func (h *log15Handler) Name() string {
	return "log15"
}

// SetVolume dynamically changes the minimum level of events that will be processed.
func (h *log15Handler) SetVolume(level handler.Level) error {
	if err := h.base.SetVolume(level); err != nil {
		return err
	}
	h.logger.SetHandler(h.buildLog15Handler())

	return nil
}

// SetOutput sets the log destination.
func (h *log15Handler) SetOutput(w io.Writer) error {
	return h.base.SetOutput(w)
}

// buildLog15Handler returns a log15.Handler based on the current configuration.
func (h *log15Handler) buildLog15Handler() log15.Handler {
	stream := log15.StreamHandler(h.base.AtomicWriter(), stringToFormat(h.base.Format()))
	return log15.LvlFilterHandler(levelMapper.Map(h.base.Volume()), stream)
}

// stringToFormat returns a log15.Format based on the given format string.
func stringToFormat(format string) log15.Format {
	switch format {
	case "json":
		return log15.JsonFormat()
	case "terminal":
		return log15.TerminalFormat()
	default:
		return log15.LogfmtFormat()
	}
}
