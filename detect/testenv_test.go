package detect_test

import (
	"testing"

	"github.com/balinomad/go-bark/detect"
)

// TestIsTesting_RuntimeStack verifies that a running test is recognized.
func TestIsTesting_RuntimeStack(t *testing.T) {
	t.Parallel()

	if !detect.IsTesting() {
		t.Error("IsTesting() = false, want true")
	}
}

// TestDetector_IsTesting_GoFrames verifies test framework and entry point recognition.
func TestDetector_IsTesting_GoFrames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fns  []string
		want bool
	}{
		{"testing_package", []string{"example.com/app.helper", "testing.tRunner"}, true},
		{"test_entry", []string{"example.com/app.TestLogin.func1"}, true},
		{"benchmark_entry", []string{"example.com/app.BenchmarkEncode"}, true},
		{"suite_method", []string{"example.com/app.(*LoginSuite).TestValidPassword"}, true},
		{"testify", []string{"github.com/stretchr/testify/suite.Run"}, true},
		{"ginkgo_v2", []string{"github.com/onsi/ginkgo/v2/internal.(*Suite).runNode"}, true},
		{"application", []string{"example.com/app.(*Server).Start", "main.main", "runtime.main"}, false},
		{"testament_is_not_a_test", []string{"example.com/app.Testament"}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := newDetector(t, detect.WithStackSource(goStack(tt.fns...)))
			if got := d.IsTesting(); got != tt.want {
				t.Errorf("IsTesting() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestDetector_IsTesting_SourceFile verifies that test-style names count only in test files.
func TestDetector_IsTesting_SourceFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file string
		fn   string
		want bool
	}{
		{"method_in_source_file", "/src/app/client.go", "example.com/app.(*Client).TestConnection", false},
		{"method_in_test_file", "/src/app/client_test.go", "example.com/app.(*Client).TestConnection", true},
		{"example_type_in_source_file", "/src/app/service.go", "example.com/app.ExampleService.Run", false},
		{"test_entry_in_test_file", "/src/app/login_test.go", "example.com/app.TestLogin", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			frames := []detect.Frame{{Function: tt.fn, File: tt.file, PC: 1}}
			d := newDetector(t, detect.WithStackSource(func() []detect.Frame { return frames }))
			if got := d.IsTesting(); got != tt.want {
				t.Errorf("IsTesting() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestDetector_IsTesting_NotTestBinary verifies that the stack is not walked outside test binaries.
func TestDetector_IsTesting_NotTestBinary(t *testing.T) {
	t.Parallel()

	d := newDetector(t)
	if !d.IsTesting() {
		t.Fatal("IsTesting() = false in a test binary, want true")
	}

	detect.SetTestBinary(d, func() bool { return false })
	if d.IsTesting() {
		t.Error("IsTesting() = true outside a test binary, want false")
	}
}

// TestIsNativeTestFrame verifies recognition of native test harness symbols.
func TestIsNativeTestFrame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		symbol string
		want   bool
	}{
		{"4   XCTest   0x0000000104001000 -[XCTestCase invokeTest] + 20", true},
		{"org.junit.runners.ParentRunner.run", true},
		{"com.example.LoginTests.checksPassword", true},
		{"com.example.LoginTestCase.run", true},
		{"com.example.Login.testValidPassword", true},
		{"com.example.Latest.fetch", false},
		{"com.example.app.MainActivity.onCreate", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.symbol, func(t *testing.T) {
			t.Parallel()
			if got := detect.IsNativeTestFrame(tt.symbol); got != tt.want {
				t.Errorf("isNativeTestFrame(%q) = %v, want %v", tt.symbol, got, tt.want)
			}
		})
	}
}

// TestDetector_IsTesting_Consistent verifies repeated calls agree.
func TestDetector_IsTesting_Consistent(t *testing.T) {
	t.Parallel()

	d := newDetector(t, detect.WithStackSource(detect.SymbolStack([]string{"org.junit.runner.JUnitCore.run"})))
	for i := 0; i < 3; i++ {
		if !d.IsTesting() {
			t.Fatalf("IsTesting() call %d = false, want true", i)
		}
	}
}
