package handler

import (
	"errors"
	"io"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/balinomad/go-atomicwriter"

	"github.com/balinomad/go-bark/detect"
)

// StateFlag is a set of flags used to track handler state.
type StateFlag uint32

const (
	FlagTimestamp StateFlag = 1 << iota // Render a timestamp in front of each line
	FlagSource                          // Render the caller source location when known
)

// TestMode controls how a handler behaves inside an automated test run.
type TestMode uint8

const (
	// TestModeAlways keeps the handler active regardless of test detection.
	TestModeAlways TestMode = iota

	// TestModeSkip suppresses the handler while tests are running.
	// Native system handlers use it so test output stays on the console.
	TestModeSkip

	// TestModeOnly activates the handler only while tests are running.
	// Console test handlers use it.
	TestModeOnly
)

// String returns the name of the test mode.
func (m TestMode) String() string {
	switch m {
	case TestModeAlways:
		return "always"
	case TestModeSkip:
		return "skip"
	case TestModeOnly:
		return "only"
	default:
		return "unknown"
	}
}

// BaseOptions holds configuration common to most handlers.
type BaseOptions struct {
	Volume   Level     // Minimum level
	Category Category  // Registration category
	Output   io.Writer // Output writer

	// Format specifies the output format (e.g., "json", "text").
	// Optional if ValidFormats is empty (handler doesn't support format selection).
	// When ValidFormats is provided but Format is empty, defaults to ValidFormats[0].
	Format string

	// ValidFormats lists accepted format strings for this handler.
	ValidFormats []string

	WithTimestamp bool     // True if a timestamp should be rendered
	WithSource    bool     // True if the caller location should be rendered
	TestMode      TestMode // Behavior during automated test runs

	// IsTesting overrides test-environment detection. Defaults to detect.IsTesting.
	IsTesting func() bool
}

// BaseOption configures the BaseHandler.
type BaseOption func(*BaseOptions) error

// WithVolume sets the minimum level.
func WithVolume(level Level) BaseOption {
	return func(o *BaseOptions) error {
		if err := ValidateLevel(level); err != nil {
			return NewOptionApplyError("WithVolume", err)
		}
		o.Volume = level
		return nil
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) BaseOption {
	return func(o *BaseOptions) error {
		if w == nil {
			return NewOptionApplyError("WithOutput", ErrNilWriter)
		}
		o.Output = w
		return nil
	}
}

// WithFormat sets the output format.
func WithFormat(format string) BaseOption {
	return func(o *BaseOptions) error {
		if len(o.ValidFormats) > 0 && !slices.Contains(o.ValidFormats, format) {
			return NewOptionApplyError("WithFormat", NewInvalidFormatError(format, o.ValidFormats))
		}
		o.Format = format
		return nil
	}
}

// WithTimestamp enables or disables the rendered timestamp.
func WithTimestamp(enabled bool) BaseOption {
	return func(o *BaseOptions) error {
		o.WithTimestamp = enabled
		return nil
	}
}

// WithSource enables or disables rendering of the caller source location.
// The location is only known when the dispatcher detected the caller,
// so events logged under a global tag carry no location.
func WithSource(enabled bool) BaseOption {
	return func(o *BaseOptions) error {
		o.WithSource = enabled
		return nil
	}
}

// WithTestMode sets the behavior during automated test runs.
func WithTestMode(mode TestMode) BaseOption {
	return func(o *BaseOptions) error {
		if mode > TestModeOnly {
			return NewOptionApplyError("WithTestMode", errors.New("unknown test mode"))
		}
		o.TestMode = mode
		return nil
	}
}

// WithTestDetector replaces the test-environment detector.
func WithTestDetector(isTesting func() bool) BaseOption {
	return func(o *BaseOptions) error {
		o.IsTesting = isTesting
		return nil
	}
}

// BaseHandler provides shared state for handler implementations:
// the volume threshold, the category, the test mode and an output
// writer that can be swapped without blocking concurrent writes.
//
// Concurrency Model:
//   - atomic.Int32 for the volume and atomic.Uint32 for flags (lock-free reads)
//   - sync.RWMutex protects format
//   - the output is an AtomicWriter, SetOutput never blocks writers
type BaseHandler struct {
	mu        sync.RWMutex
	flags     atomic.Uint32
	volume    atomic.Int32
	out       *atomicwriter.AtomicWriter
	category  Category
	format    string
	testMode  TestMode
	isTesting func() bool
}

// NewBaseHandler initializes a new BaseHandler.
func NewBaseHandler(opts *BaseOptions) (*BaseHandler, error) {
	if opts.Output == nil {
		return nil, NewAtomicWriterError(errors.New("output writer is required"))
	}
	if err := ValidateLevel(opts.Volume); err != nil {
		return nil, err
	}
	if !IsValidCategory(opts.Category) {
		return nil, ErrInvalidCategory
	}

	// Validate format if ValidFormats provided
	if len(opts.ValidFormats) > 0 {
		if opts.Format != "" {
			if !slices.Contains(opts.ValidFormats, opts.Format) {
				return nil, NewInvalidFormatError(opts.Format, opts.ValidFormats)
			}
		} else {
			opts.Format = opts.ValidFormats[0]
		}
	}

	aw, err := atomicwriter.NewAtomicWriter(opts.Output)
	if err != nil {
		return nil, NewAtomicWriterError(err)
	}

	isTesting := opts.IsTesting
	if isTesting == nil {
		isTesting = detect.IsTesting
	}

	h := &BaseHandler{
		out:       aw,
		category:  opts.Category,
		format:    opts.Format,
		testMode:  opts.TestMode,
		isTesting: isTesting,
	}
	h.volume.Store(int32(opts.Volume))

	var flags uint32
	if opts.WithTimestamp {
		flags |= uint32(FlagTimestamp)
	}
	if opts.WithSource {
		flags |= uint32(FlagSource)
	}
	h.flags.Store(flags)

	return h, nil
}

// --- Thread-Safe State Access ---

// Volume returns the current minimum level.
func (h *BaseHandler) Volume() Level {
	return Level(h.volume.Load())
}

// Category returns the registration category.
func (h *BaseHandler) Category() Category {
	return h.category
}

// Enabled reports whether the handler acts on the given level.
func (h *BaseHandler) Enabled(level Level) bool {
	return level >= Level(h.volume.Load())
}

// Active reports whether the handler should produce output in the
// current execution context, according to its test mode.
// Test detection only runs for TestModeSkip and TestModeOnly.
func (h *BaseHandler) Active() bool {
	switch h.testMode {
	case TestModeSkip:
		return !h.isTesting()
	case TestModeOnly:
		return h.isTesting()
	default:
		return true
	}
}

// ShouldHandle combines Enabled and Active. The cheap volume check runs first.
func (h *BaseHandler) ShouldHandle(level Level) bool {
	return h.Enabled(level) && h.Active()
}

// TestMode returns the configured test mode.
func (h *BaseHandler) TestMode() TestMode {
	return h.testMode
}

// Format returns the configured format string.
func (h *BaseHandler) Format() string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.format
}

// TimestampEnabled returns whether a timestamp should be rendered.
func (h *BaseHandler) TimestampEnabled() bool {
	return h.HasFlag(FlagTimestamp)
}

// SourceEnabled returns whether the caller location should be rendered.
func (h *BaseHandler) SourceEnabled() bool {
	return h.HasFlag(FlagSource)
}

// AtomicWriter returns the underlying atomic writer.
// Handlers use this to get the thread-safe writer for backend initialization.
func (h *BaseHandler) AtomicWriter() *atomicwriter.AtomicWriter {
	return h.out
}

// --- Flag Management (Lock-Free) ---

// HasFlag checks if flag is set (lock-free).
func (h *BaseHandler) HasFlag(flag StateFlag) bool {
	return h.flags.Load()&uint32(flag) != 0
}

// SetFlag atomically sets or clears a flag.
func (h *BaseHandler) SetFlag(flag StateFlag, enabled bool) {
	for {
		old := h.flags.Load()
		new := old
		if enabled {
			new |= uint32(flag)
		} else {
			new &^= uint32(flag)
		}
		if h.flags.CompareAndSwap(old, new) {
			return
		}
	}
}

// --- Mutable Setters ---

// SetVolume changes the minimum level of events that will be processed.
func (h *BaseHandler) SetVolume(level Level) error {
	if err := ValidateLevel(level); err != nil {
		return err
	}

	h.volume.Store(int32(level))

	return nil
}

// SetOutput changes the destination for log output.
func (h *BaseHandler) SetOutput(w io.Writer) error {
	if w == nil {
		return ErrNilWriter
	}

	if err := h.out.Swap(w); err != nil {
		return NewAtomicWriterError(err)
	}

	return nil
}
