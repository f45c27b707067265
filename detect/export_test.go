package detect

// Exported for testing.
var (
	IsStandardPackage = isStandardPackage
	GoEntryName       = goEntryName
	NativeSimpleName  = nativeSimpleName
	LooksLikeTestName = looksLikeTestName
	IncludeNative     = includeNative
	IsNativeTestFrame = isNativeTestFrame
	GoSourceRoot      = goSourceRoot
)

// SetTestBinary replaces the test binary check of d.
func SetTestBinary(d *Detector, f func() bool) {
	d.testBinary = f
}
