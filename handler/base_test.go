package handler_test

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/balinomad/go-bark/handler"
)

func newBase(t *testing.T, opts *handler.BaseOptions) *handler.BaseHandler {
	t.Helper()
	h, err := handler.NewBaseHandler(opts)
	if err != nil {
		t.Fatalf("NewBaseHandler() failed: %v", err)
	}
	return h
}

// TestNewBaseHandler verifies the constructor for BaseHandler.
func TestNewBaseHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    handler.BaseOptions
		wantErr error
	}{
		{
			name: "success",
			opts: handler.BaseOptions{Volume: handler.WarningLevel, Output: io.Discard},
		},
		{
			name:    "nil_writer_error",
			opts:    handler.BaseOptions{Volume: handler.InfoLevel},
			wantErr: handler.ErrAtomicWriterFail,
		},
		{
			name:    "invalid_volume",
			opts:    handler.BaseOptions{Volume: handler.MaxLevel + 1, Output: io.Discard},
			wantErr: handler.ErrInvalidLevel,
		},
		{
			name:    "invalid_category",
			opts:    handler.BaseOptions{Category: handler.CustomCategory + 1, Output: io.Discard},
			wantErr: handler.ErrInvalidCategory,
		},
		{
			name:    "invalid_format",
			opts:    handler.BaseOptions{Output: io.Discard, Format: "xml", ValidFormats: []string{"json", "text"}},
			wantErr: handler.ErrInvalidFormat,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, err := handler.NewBaseHandler(&tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewBaseHandler() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && h == nil {
				t.Fatal("NewBaseHandler() handler = nil, want non-nil")
			}
			if tt.wantErr != nil && h != nil {
				t.Errorf("NewBaseHandler() handler = %v, want nil", h)
			}
		})
	}
}

// TestNewBaseHandler_DefaultFormat verifies that the first valid format is the default.
func TestNewBaseHandler_DefaultFormat(t *testing.T) {
	t.Parallel()

	h := newBase(t, &handler.BaseOptions{Output: io.Discard, ValidFormats: []string{"json", "console"}})
	if got := h.Format(); got != "json" {
		t.Errorf("Format() = %q, want %q", got, "json")
	}
}

// TestBaseOptions verifies option application and validation.
func TestBaseOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opt     handler.BaseOption
		check   func(*handler.BaseOptions) bool
		wantErr error
	}{
		{
			name:  "volume",
			opt:   handler.WithVolume(handler.ErrorLevel),
			check: func(o *handler.BaseOptions) bool { return o.Volume == handler.ErrorLevel },
		},
		{
			name:    "invalid_volume",
			opt:     handler.WithVolume(handler.MinLevel - 1),
			wantErr: handler.ErrInvalidLevel,
		},
		{
			name:    "nil_output",
			opt:     handler.WithOutput(nil),
			wantErr: handler.ErrNilWriter,
		},
		{
			name:  "format",
			opt:   handler.WithFormat("text"),
			check: func(o *handler.BaseOptions) bool { return o.Format == "text" },
		},
		{
			name:    "unknown_format",
			opt:     handler.WithFormat("yaml"),
			wantErr: handler.ErrInvalidFormat,
		},
		{
			name:  "timestamp",
			opt:   handler.WithTimestamp(true),
			check: func(o *handler.BaseOptions) bool { return o.WithTimestamp },
		},
		{
			name:  "source",
			opt:   handler.WithSource(true),
			check: func(o *handler.BaseOptions) bool { return o.WithSource },
		},
		{
			name:  "test_mode",
			opt:   handler.WithTestMode(handler.TestModeOnly),
			check: func(o *handler.BaseOptions) bool { return o.TestMode == handler.TestModeOnly },
		},
		{
			name:    "unknown_test_mode",
			opt:     handler.WithTestMode(handler.TestModeOnly + 1),
			wantErr: handler.ErrOptionApplyFailed,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o := &handler.BaseOptions{ValidFormats: []string{"json", "text"}}
			err := tt.opt(o)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("option error = %v, want %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, handler.ErrOptionApplyFailed) {
				t.Errorf("option error = %v, want wrapped ErrOptionApplyFailed", err)
			}
			if tt.check != nil && !tt.check(o) {
				t.Errorf("option not applied: %+v", o)
			}
		})
	}
}

// TestBaseHandler_Enabled verifies the Enabled method logic.
func TestBaseHandler_Enabled(t *testing.T) {
	t.Parallel()
	h := newBase(t, &handler.BaseOptions{Volume: handler.InfoLevel, Output: io.Discard})

	tests := []struct {
		name  string
		level handler.Level
		want  bool
	}{
		{"level_below", handler.DebugLevel, false},
		{"level_equal", handler.InfoLevel, true},
		{"level_above", handler.WarningLevel, true},
		{"level_max", handler.MaxLevel, true},
		{"level_min", handler.MinLevel, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := h.Enabled(tt.level); got != tt.want {
				t.Errorf("Enabled(%v) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

// TestBaseHandler_Active verifies the test mode policy.
func TestBaseHandler_Active(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mode    handler.TestMode
		testing bool
		want    bool
	}{
		{"always_in_tests", handler.TestModeAlways, true, true},
		{"always_outside_tests", handler.TestModeAlways, false, true},
		{"skip_in_tests", handler.TestModeSkip, true, false},
		{"skip_outside_tests", handler.TestModeSkip, false, true},
		{"only_in_tests", handler.TestModeOnly, true, true},
		{"only_outside_tests", handler.TestModeOnly, false, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newBase(t, &handler.BaseOptions{
				Output:    io.Discard,
				TestMode:  tt.mode,
				IsTesting: func() bool { return tt.testing },
			})
			if got := h.Active(); got != tt.want {
				t.Errorf("Active() = %v, want %v", got, tt.want)
			}
			if got := h.ShouldHandle(handler.InfoLevel); got != tt.want {
				t.Errorf("ShouldHandle(InfoLevel) = %v, want %v", got, tt.want)
			}
			if h.TestMode() != tt.mode {
				t.Errorf("TestMode() = %v, want %v", h.TestMode(), tt.mode)
			}
		})
	}
}

// TestBaseHandler_Active_DefaultDetector verifies the real test detector is used by default.
func TestBaseHandler_Active_DefaultDetector(t *testing.T) {
	t.Parallel()

	only := newBase(t, &handler.BaseOptions{Output: io.Discard, TestMode: handler.TestModeOnly})
	if !only.Active() {
		t.Error("TestModeOnly handler inactive inside a test run")
	}
	skip := newBase(t, &handler.BaseOptions{Output: io.Discard, TestMode: handler.TestModeSkip})
	if skip.Active() {
		t.Error("TestModeSkip handler active inside a test run")
	}
}

// TestTestMode_String verifies test mode names.
func TestTestMode_String(t *testing.T) {
	t.Parallel()

	for mode, want := range map[handler.TestMode]string{
		handler.TestModeAlways: "always",
		handler.TestModeSkip:   "skip",
		handler.TestModeOnly:   "only",
		handler.TestMode(9):    "unknown",
	} {
		if got := mode.String(); got != want {
			t.Errorf("TestMode(%d).String() = %q, want %q", mode, got, want)
		}
	}
}

// TestBaseHandler_Flags verifies flag management.
func TestBaseHandler_Flags(t *testing.T) {
	t.Parallel()
	h := newBase(t, &handler.BaseOptions{Output: io.Discard, WithTimestamp: true})

	if !h.TimestampEnabled() {
		t.Error("TimestampEnabled() = false, want true")
	}
	if h.SourceEnabled() {
		t.Error("SourceEnabled() = true, want false")
	}

	h.SetFlag(handler.FlagSource, true)
	h.SetFlag(handler.FlagTimestamp, false)
	if h.TimestampEnabled() || !h.SourceEnabled() {
		t.Errorf("flags after SetFlag = (timestamp %v, source %v), want (false, true)", h.TimestampEnabled(), h.SourceEnabled())
	}
}

// TestBaseHandler_SetVolume verifies the SetVolume method.
func TestBaseHandler_SetVolume(t *testing.T) {
	t.Parallel()
	opts := handler.BaseOptions{Volume: handler.InfoLevel, Output: io.Discard}

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		o := opts
		h := newBase(t, &o)

		if err := h.SetVolume(handler.WarningLevel); err != nil {
			t.Fatalf("SetVolume(WarningLevel) error = %v, want nil", err)
		}
		if h.Volume() != handler.WarningLevel {
			t.Errorf("Volume() = %v, want %v", h.Volume(), handler.WarningLevel)
		}
		if h.Enabled(handler.InfoLevel) {
			t.Error("Enabled(InfoLevel) = true, want false after SetVolume")
		}
	})

	t.Run("invalid_level", func(t *testing.T) {
		t.Parallel()
		o := opts
		h := newBase(t, &o)

		for _, l := range []handler.Level{handler.MinLevel - 1, handler.MaxLevel + 1} {
			if err := h.SetVolume(l); !errors.Is(err, handler.ErrInvalidLevel) {
				t.Errorf("SetVolume(%v) error = %v, want ErrInvalidLevel", l, err)
			}
		}
		if h.Volume() != handler.InfoLevel {
			t.Errorf("Volume() = %v, want unchanged %v", h.Volume(), handler.InfoLevel)
		}
	})

	t.Run("concurrent_setvolume", func(t *testing.T) {
		t.Parallel()
		o := opts
		h := newBase(t, &o)

		var wg sync.WaitGroup
		levels := handler.Levels()
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func(level handler.Level) {
				defer wg.Done()
				_ = h.SetVolume(level)
			}(levels[i%len(levels)])
		}
		wg.Wait()

		if !handler.IsValidLevel(h.Volume()) {
			t.Errorf("Volume() = %v, want a valid level", h.Volume())
		}
	})
}

// TestBaseHandler_SetOutput verifies the SetOutput method.
func TestBaseHandler_SetOutput(t *testing.T) {
	t.Parallel()

	var buf1, buf2 bytes.Buffer
	h := newBase(t, &handler.BaseOptions{Output: &buf1})

	if err := h.SetOutput(&buf2); err != nil {
		t.Fatalf("SetOutput() error = %v, want nil", err)
	}
	if _, err := h.AtomicWriter().Write([]byte("hello")); err != nil {
		t.Fatalf("AtomicWriter.Write() failed: %v", err)
	}
	if buf1.Len() > 0 {
		t.Errorf("original writer buf.Len() = %d, want 0", buf1.Len())
	}
	if buf2.String() != "hello" {
		t.Errorf("new writer buf.String() = %q, want %q", buf2.String(), "hello")
	}

	if err := h.SetOutput(nil); !errors.Is(err, handler.ErrNilWriter) {
		t.Errorf("SetOutput(nil) error = %v, want %v", err, handler.ErrNilWriter)
	}
}
