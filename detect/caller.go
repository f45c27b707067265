// Package detect inspects the current execution context on behalf of the
// bark dispatcher and its handlers: it derives a short tag identifying the
// calling code, reports whether execution happens inside an automated test
// run and whether an output stream can render ANSI colors.
//
// All detection is best effort. Detection never panics outward and never
// returns an error; failures resolve to a sentinel tag or to false.
package detect

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"testing"
)

const (
	// DefaultSentinel is the tag returned when no caller passes the filter.
	DefaultSentinel = "Bark"

	// TruncationMarker prefixes tags shortened to the maximum length.
	TruncationMarker = "*"

	// AndroidTagLimit is the tag length limit of the Android log facility.
	AndroidTagLimit = 23

	// ModulePath is the import path of the bark module. Frames from this
	// module (the facade and its handlers) are never reported as callers.
	ModulePath = "github.com/balinomad/go-bark"
)

// DefaultExcludedPackages lists import path prefixes of libraries that sit
// between application code and the facade and must not be reported as callers:
// test frameworks, logging backends and helper libraries used by handlers.
var DefaultExcludedPackages = []string{
	"github.com/stretchr/testify",
	"github.com/onsi/ginkgo",
	"github.com/onsi/gomega",
	"gotest.tools",
	"golang.org/x/",
	"go.uber.org/",
	"github.com/rs/zerolog",
	"github.com/sirupsen/logrus",
	"github.com/inconshreveable/log15",
	"github.com/balinomad/go-caller",
	"github.com/balinomad/go-atomicwriter",
	"github.com/balinomad/go-ctxmap",
	"github.com/prometheus/",
	"gopkg.in/natefinch/lumberjack",
}

// nativeExcludedPrefixes are platform framework and runtime type prefixes.
var nativeExcludedPrefixes = []string{"NS", "UI", "CF", "CA", "CG", "Swift", "_", "XC"}

// nativeFacadeNames are type names of the facade as seen in native symbols.
var nativeFacadeNames = []string{"TagDetection", "TestDetection", "Trainer"}

var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

// options holds the configuration of a Detector.
type options struct {
	stack      StackSource
	testBinary func() bool
	modulePath string
	excluded   []string
	maxLength  int
	sentinel   string
	disabled   bool
}

// Option configures a Detector.
type Option func(*options) error

// WithStackSource replaces the call stack source. Defaults to RuntimeStack.
// A replaced source is always walked by IsTesting, since its frames need not
// belong to the running binary.
func WithStackSource(src StackSource) Option {
	return func(o *options) error {
		if src == nil {
			return errors.New("stack source cannot be nil")
		}
		o.stack = src
		o.testBinary = nil
		return nil
	}
}

// WithModulePath sets the import path of the facade module whose frames
// are skipped. Defaults to ModulePath.
func WithModulePath(path string) Option {
	return func(o *options) error {
		o.modulePath = strings.TrimSuffix(path, "/")
		return nil
	}
}

// WithExcludedPackages adds import path prefixes whose frames are skipped.
func WithExcludedPackages(prefixes ...string) Option {
	return func(o *options) error {
		o.excluded = append(o.excluded, prefixes...)
		return nil
	}
}

// WithMaxLength limits the tag length. Longer tags keep their tail and are
// prefixed with TruncationMarker. Zero means unlimited.
func WithMaxLength(n int) Option {
	return func(o *options) error {
		if n < 0 || n == 1 {
			return fmt.Errorf("max length must be 0 or greater than 1, got %d", n)
		}
		o.maxLength = n
		return nil
	}
}

// WithSentinel sets the tag returned when detection finds no caller.
func WithSentinel(tag string) Option {
	return func(o *options) error {
		o.sentinel = tag
		return nil
	}
}

// WithDisabled turns caller detection off. A disabled detector does not
// walk the stack and returns an empty tag.
func WithDisabled(disabled bool) Option {
	return func(o *options) error {
		o.disabled = disabled
		return nil
	}
}

// Detector derives caller tags and test-environment information from the
// call stack. A Detector is immutable and safe for concurrent use.
type Detector struct {
	stack      StackSource
	testBinary func() bool
	modulePath string
	excluded   []string
	maxLength  int
	sentinel   string
	disabled   bool
}

// New creates a Detector.
func New(opts ...Option) (*Detector, error) {
	o := &options{
		stack:      RuntimeStack,
		testBinary: testing.Testing,
		modulePath: ModulePath,
		excluded:   append([]string(nil), DefaultExcludedPackages...),
		sentinel:   DefaultSentinel,
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	return &Detector{
		stack:      o.stack,
		testBinary: o.testBinary,
		modulePath: o.modulePath,
		excluded:   o.excluded,
		maxLength:  o.maxLength,
		sentinel:   o.sentinel,
		disabled:   o.disabled,
	}, nil
}

// Disabled reports whether caller detection is turned off.
func (d *Detector) Disabled() bool {
	return d.disabled
}

// DetectTag returns the short identifier of the calling code.
func (d *Detector) DetectTag() string {
	tag, _ := d.DetectCaller()
	return tag
}

// DetectCaller walks the call stack from the innermost frame outward and
// returns the tag of the first frame that passes the exclusion filter,
// together with its program counter (0 for native symbols).
// It returns the sentinel when no frame qualifies and an empty tag when
// detection is disabled. Repeated calls from one call site return the same tag.
func (d *Detector) DetectCaller() (tag string, pc uintptr) {
	if d.disabled {
		return "", 0
	}

	defer func() {
		if r := recover(); r != nil {
			tag, pc = d.sentinel, 0
		}
	}()

	for _, f := range d.stack() {
		if name, ok := d.identify(f); ok {
			return d.truncate(name), f.PC
		}
	}

	return d.sentinel, 0
}

// identify extracts the frame identifier and applies the exclusion filter.
func (d *Detector) identify(f Frame) (string, bool) {
	if f.Function != "" {
		return d.identifyGo(f)
	}
	if f.Symbol != "" {
		return identifyNative(f.Symbol)
	}
	return "", false
}

// identifyGo applies the exclusion filter to a Go frame.
// Standard library and runtime frames are always rejected. Test entry
// points and test types are accepted before the facade exclusion,
// so tests of the facade itself report their own name.
func (d *Detector) identifyGo(f Frame) (string, bool) {
	ident := GoIdentifier(f.Function)
	if ident == "" || !identifierPattern.MatchString(strings.ReplaceAll(ident, "_", "x")) {
		return "", false
	}

	pkgPath, _ := SplitGoSymbol(f.Function)
	if isStandardFrame(pkgPath, f.File) {
		return "", false
	}

	if looksLikeTestName(ident) {
		return ident, true
	}

	if d.isFacade(pkgPath) {
		return "", false
	}
	for _, p := range d.excluded {
		if strings.HasPrefix(pkgPath, p) {
			return "", false
		}
	}

	return ident, true
}

// isFacade reports whether the package belongs to the facade module.
// External test packages ("<module>_test") are not part of the facade.
func (d *Detector) isFacade(pkgPath string) bool {
	if d.modulePath == "" || strings.HasSuffix(pkgPath, "_test") {
		return false
	}
	return pkgPath == d.modulePath || strings.HasPrefix(pkgPath, d.modulePath+"/")
}

// standardRoots are the first import path elements of the standard library.
var standardRoots = map[string]struct{}{
	"archive": {}, "bufio": {}, "builtin": {}, "bytes": {}, "cmp": {},
	"compress": {}, "container": {}, "context": {}, "crypto": {}, "database": {},
	"debug": {}, "embed": {}, "encoding": {}, "errors": {}, "expvar": {},
	"flag": {}, "fmt": {}, "go": {}, "hash": {}, "html": {},
	"image": {}, "index": {}, "internal": {}, "io": {}, "iter": {},
	"log": {}, "maps": {}, "math": {}, "mime": {}, "net": {},
	"os": {}, "path": {}, "plugin": {}, "reflect": {}, "regexp": {},
	"runtime": {}, "slices": {}, "sort": {}, "strconv": {}, "strings": {},
	"structs": {}, "sync": {}, "syscall": {}, "testing": {}, "text": {},
	"time": {}, "unicode": {}, "unique": {}, "unsafe": {}, "vendor": {},
	"weak": {},
}

// isStandardPackage reports whether the import path belongs to the Go
// standard library or the runtime. Compiler-generated symbols ("type:.eq...")
// and empty paths count as runtime. Package main is application code.
func isStandardPackage(pkgPath string) bool {
	if pkgPath == "" || strings.Contains(pkgPath, ":") {
		return true
	}
	first, _, _ := strings.Cut(pkgPath, "/")
	_, ok := standardRoots[first]
	return ok
}

// isStandardFrame reports whether a Go frame belongs to the standard library,
// by its source file when it lies in the local Go source tree, otherwise by
// its import path.
func isStandardFrame(pkgPath, file string) bool {
	if root := goSourceRoot(); root != "" && file != "" && strings.HasPrefix(filepath.ToSlash(file), root) {
		return true
	}
	return isStandardPackage(pkgPath)
}

// goSourceRoot returns the directory holding the standard library sources
// this binary was built from, e.g. "/usr/local/go/src/". It is empty when
// the runtime sources are not recorded with absolute paths (-trimpath).
var goSourceRoot = sync.OnceValue(func() string {
	pc := reflect.ValueOf(runtime.Callers).Pointer()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}
	file, _ := fn.FileLine(pc)
	file = filepath.ToSlash(file)
	i := strings.LastIndex(file, "/runtime/")
	if i <= 0 {
		return ""
	}
	return file[:i+1]
})

// identifyNative parses a native symbol and applies the native filter.
func identifyNative(symbol string) (string, bool) {
	name, ok := ParseSymbol(symbol)
	if !ok {
		return "", false
	}

	if !includeNative(name) {
		return "", false
	}

	return nativeSimpleName(name), true
}

// includeNative reports whether a native type name is application code.
func includeNative(name string) bool {
	if strings.HasSuffix(name, "Test") || strings.HasSuffix(name, "Tests") {
		return true
	}

	if strings.HasSuffix(name, DefaultSentinel) {
		return false
	}
	for _, n := range nativeFacadeNames {
		if strings.Contains(name, n) {
			return false
		}
	}
	for _, p := range nativeExcludedPrefixes {
		if strings.HasPrefix(name, p) {
			return false
		}
	}

	return identifierPattern.MatchString(name)
}

// truncate shortens a tag to the maximum length, keeping the tail.
func (d *Detector) truncate(tag string) string {
	if d.maxLength <= 0 {
		return tag
	}

	r := []rune(tag)
	if len(r) <= d.maxLength {
		return tag
	}

	keep := d.maxLength - len([]rune(TruncationMarker))
	return TruncationMarker + string(r[len(r)-keep:])
}
