package console_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/balinomad/go-bark/handler"
	"github.com/balinomad/go-bark/handler/console"
)

// wrappedError carries extra detail in its %+v rendering.
type wrappedError struct{ msg string }

func (e *wrappedError) Error() string { return e.msg }

func (e *wrappedError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		_, _ = io.WriteString(s, e.msg+"\n\tat checkout.go:42")
		return
	}
	_, _ = io.WriteString(s, e.msg)
}

func noColor(io.Writer) bool   { return false }
func withColor(io.Writer) bool { return true }

func TestConsoleHandler_Compliance(t *testing.T) {
	handler.ComplianceTest(t, func() (handler.Handler, error) {
		return console.New(console.WithOutput(io.Discard))
	})
}

func TestNew_InvalidOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opt  console.ConsoleOption
	}{
		{"empty time format", console.WithTimeFormat("")},
		{"nil probe", console.WithColorProbe(nil)},
		{"unknown color mode", console.WithColor(console.ColorMode(9))},
		{"nil output", console.WithOutput(nil)},
		{"invalid volume", console.WithVolume(handler.Level(42))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := console.New(tt.opt); err == nil {
				t.Error("New() error = nil, want error")
			}
		})
	}
}

func TestConsoleHandler_Names(t *testing.T) {
	t.Parallel()

	ctors := map[string]func(...console.ConsoleOption) (handler.Handler, error){
		"console":         console.New,
		"colored-console": console.NewColored,
		"always-console":  console.NewAlwaysActive,
	}

	for want, ctor := range ctors {
		h, err := ctor(console.WithOutput(io.Discard))
		if err != nil {
			t.Fatalf("%s: New() error = %v", want, err)
		}
		if got := h.(handler.Namer).Name(); got != want {
			t.Errorf("Name() = %q, want %q", got, want)
		}
		if h.Category() != handler.ConsoleCategory {
			t.Errorf("%s: Category() = %v, want console", want, h.Category())
		}
	}
}

func TestConsoleHandler_Handle(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 5, 1, 13, 4, 5, 678_000_000, time.UTC)

	tests := []struct {
		name  string
		opts  []console.ConsoleOption
		event handler.Event
		want  string
	}{
		{
			name:  "timestamp and tag",
			event: handler.Event{Time: ts, Level: handler.InfoLevel, Tag: "Cart", Message: "added"},
			want:  "13:04:05.678 [INFO] - Cart: added\n",
		},
		{
			name:  "no timestamp",
			opts:  []console.ConsoleOption{console.WithTimestamp(false)},
			event: handler.Event{Time: ts, Level: handler.DebugLevel, Tag: "Cart", Message: "added"},
			want:  "[DEBUG] - Cart: added\n",
		},
		{
			name:  "custom time format",
			opts:  []console.ConsoleOption{console.WithTimeFormat(time.DateTime)},
			event: handler.Event{Time: ts, Level: handler.InfoLevel, Message: "x"},
			want:  "2024-05-01 13:04:05 [INFO] - x\n",
		},
		{
			name:  "warning error line without detail",
			opts:  []console.ConsoleOption{console.WithTimestamp(false)},
			event: handler.Event{Level: handler.WarningLevel, Tag: "Cart", Message: "retry", Err: &wrappedError{"timeout"}},
			want:  "[WARNING] - Cart: retry\nError: timeout\n",
		},
		{
			name:  "error with detail",
			opts:  []console.ConsoleOption{console.WithTimestamp(false)},
			event: handler.Event{Level: handler.ErrorLevel, Tag: "Cart", Message: "failed", Err: &wrappedError{"timeout"}},
			want:  "[ERROR] - Cart: failed\nError: timeout\ntimeout\n\tat checkout.go:42\n",
		},
		{
			name:  "detail disabled",
			opts:  []console.ConsoleOption{console.WithTimestamp(false), console.WithDetailedErrors(false)},
			event: handler.Event{Level: handler.CriticalLevel, Tag: "Cart", Message: "failed", Err: &wrappedError{"timeout"}},
			want:  "[CRITICAL] - Cart: failed\nError: timeout\n",
		},
		{
			name:  "forced color",
			opts:  []console.ConsoleOption{console.WithTimestamp(false), console.WithColor(console.ColorAlways)},
			event: handler.Event{Level: handler.WarningLevel, Tag: "Cart", Message: "slow", Err: errors.New("late")},
			want:  "\x1b[33m[WARNING]\x1b[0m - Cart: slow\n\x1b[31mError: late\x1b[0m\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			opts := append([]console.ConsoleOption{console.WithOutput(&buf)}, tt.opts...)
			h, err := console.New(opts...)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			if err := h.Handle(&tt.event); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConsoleHandler_ColorAuto(t *testing.T) {
	t.Parallel()

	event := &handler.Event{Level: handler.VerboseLevel, Message: "m"}

	var plain bytes.Buffer
	h, err := console.NewColored(console.WithOutput(&plain), console.WithTimestamp(false), console.WithColorProbe(noColor))
	if err != nil {
		t.Fatalf("NewColored() error = %v", err)
	}
	_ = h.Handle(event)
	if got, want := plain.String(), "[VERBOSE] - m\n"; got != want {
		t.Errorf("non-terminal output = %q, want %q", got, want)
	}

	var colored bytes.Buffer
	h, err = console.NewColored(console.WithOutput(&colored), console.WithTimestamp(false), console.WithColorProbe(withColor))
	if err != nil {
		t.Fatalf("NewColored() error = %v", err)
	}
	_ = h.Handle(event)
	if got, want := colored.String(), "\x1b[90m[VERBOSE]\x1b[0m - m\n"; got != want {
		t.Errorf("terminal output = %q, want %q", got, want)
	}
}

func TestConsoleHandler_SetOutputReprobesColor(t *testing.T) {
	t.Parallel()

	var first, second bytes.Buffer
	probe := func(w io.Writer) bool { return w == &second }

	h, err := console.NewColored(console.WithOutput(&first), console.WithTimestamp(false), console.WithColorProbe(probe))
	if err != nil {
		t.Fatalf("NewColored() error = %v", err)
	}

	_ = h.Handle(&handler.Event{Level: handler.InfoLevel, Message: "a"})
	if err := h.(handler.Configurator).SetOutput(&second); err != nil {
		t.Fatalf("SetOutput() error = %v", err)
	}
	_ = h.Handle(&handler.Event{Level: handler.InfoLevel, Message: "b"})

	if strings.Contains(first.String(), "\x1b[") {
		t.Errorf("first output = %q, want no color", first.String())
	}
	if !strings.HasPrefix(second.String(), "\x1b[32m[INFO]") {
		t.Errorf("second output = %q, want green label", second.String())
	}
}

func TestConsoleHandler_TestModes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ctor      func(...console.ConsoleOption) (handler.Handler, error)
		isTesting bool
		wantOut   bool
	}{
		{"plain in tests", console.New, true, true},
		{"plain outside tests", console.New, false, false},
		{"colored outside tests", console.NewColored, false, false},
		{"always active outside tests", console.NewAlwaysActive, false, true},
		{"always active in tests", console.NewAlwaysActive, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			isTesting := tt.isTesting
			h, err := tt.ctor(
				console.WithOutput(&buf),
				console.WithColor(console.ColorNever),
				console.WithTestDetector(func() bool { return isTesting }),
			)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			_ = h.Handle(&handler.Event{Level: handler.InfoLevel, Message: "m"})
			if got := buf.Len() > 0; got != tt.wantOut {
				t.Errorf("wrote output = %v, want %v", got, tt.wantOut)
			}
		})
	}
}

func TestConsoleHandler_Volume(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h, err := console.New(console.WithOutput(&buf), console.WithVolume(handler.WarningLevel))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_ = h.Handle(&handler.Event{Level: handler.InfoLevel, Message: "dropped"})
	if buf.Len() != 0 {
		t.Errorf("output = %q, want nothing below volume", buf.String())
	}
	_ = h.Handle(&handler.Event{Level: handler.WarningLevel, Message: "kept"})
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("output = %q, want warning entry", buf.String())
	}
}

func TestColorLevel(t *testing.T) {
	t.Parallel()

	want := map[handler.Level]string{
		handler.VerboseLevel:  "\x1b[90m[VERBOSE]\x1b[0m",
		handler.DebugLevel:    "\x1b[34m[DEBUG]\x1b[0m",
		handler.InfoLevel:     "\x1b[32m[INFO]\x1b[0m",
		handler.WarningLevel:  "\x1b[33m[WARNING]\x1b[0m",
		handler.ErrorLevel:    "\x1b[31m[ERROR]\x1b[0m",
		handler.CriticalLevel: "\x1b[91m[CRITICAL]\x1b[0m",
	}
	for l, w := range want {
		if got := console.ColorLevel(l); got != w {
			t.Errorf("ColorLevel(%v) = %q, want %q", l, got, w)
		}
	}
}

func TestColorMode_String(t *testing.T) {
	t.Parallel()

	for mode, want := range map[console.ColorMode]string{
		console.ColorNever:   "never",
		console.ColorAuto:    "auto",
		console.ColorAlways:  "always",
		console.ColorMode(7): "ColorMode(7)",
	} {
		if got := mode.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
