package detect

import (
	"regexp"
	"strings"
	"sync"
)

// testFrameworkPackages are import path prefixes of Go test frameworks.
var testFrameworkPackages = []string{
	"testing",
	"github.com/stretchr/testify",
	"github.com/onsi/ginkgo",
	"github.com/onsi/gomega",
	"gotest.tools",
}

// nativeTestFragments are lowercase fragments of native test harness symbols.
var nativeTestFragments = []string{"xctest", "junit"}

var nativeTestCasePattern = regexp.MustCompile(`\btest[a-z]+\b`)

// IsTesting reports whether the current call stack belongs to an automated
// test run: a frame comes from a test framework package, or the entry point
// of a frame declared in a _test.go file follows the Go test naming
// convention. A detector reading the runtime stack answers false without
// walking it when the binary is not a test binary. Repeated calls from one
// call context return the same result. It never panics; any failure
// resolves to false.
func (d *Detector) IsTesting() (inTest bool) {
	defer func() {
		if r := recover(); r != nil {
			inTest = false
		}
	}()

	if d.testBinary != nil && !d.testBinary() {
		return false
	}

	for _, f := range d.stack() {
		if f.Function != "" && isGoTestFrame(f) {
			return true
		}
		if f.Symbol != "" && isNativeTestFrame(f.Symbol) {
			return true
		}
	}

	return false
}

// isGoTestFrame reports whether a Go frame belongs to a test framework
// or to a test entry point. Entry names are only trusted for frames of
// test files, or when the file is unknown.
func isGoTestFrame(f Frame) bool {
	pkgPath, _ := SplitGoSymbol(f.Function)
	for _, p := range testFrameworkPackages {
		if pkgPath == p || strings.HasPrefix(pkgPath, p+"/") {
			return true
		}
	}

	if f.File != "" && !strings.HasSuffix(f.File, "_test.go") {
		return false
	}
	return hasTestEntryPrefix(goEntryName(f.Function))
}

// isNativeTestFrame reports whether a native symbol line belongs to a test harness.
func isNativeTestFrame(symbol string) bool {
	s := strings.ToLower(symbol)
	for _, f := range nativeTestFragments {
		if strings.Contains(s, f) {
			return true
		}
	}

	if !strings.Contains(s, "test") {
		return false
	}

	return strings.Contains(s, "testcase") || strings.Contains(s, "tests") || nativeTestCasePattern.MatchString(s)
}

var (
	defaultDetector     *Detector
	defaultDetectorOnce sync.Once
)

// Default returns the package-level detector, configured with defaults.
func Default() *Detector {
	defaultDetectorOnce.Do(func() {
		// New cannot fail without options
		defaultDetector, _ = New()
	})
	return defaultDetector
}

// CallerTag returns the caller tag detected by the default detector.
func CallerTag() string {
	return Default().DetectTag()
}

// IsTesting reports whether the default detector sees a test run on the
// current call stack.
func IsTesting() bool {
	return Default().IsTesting()
}
