package detect

import (
	"regexp"
	"strings"
	"unicode"
)

// SplitGoSymbol splits a Go function symbol into its package import path and
// the package-relative remainder. The package path ends at the first '.'
// after the last '/'; the linker escapes dots in the last path element.
//
//	"example.com/app/user.(*Service).Create" → "example.com/app/user", "(*Service).Create"
//	"main.main"                              → "main", "main"
func SplitGoSymbol(fn string) (pkgPath, rest string) {
	slash := strings.LastIndexByte(fn, '/')
	dot := strings.IndexByte(fn[slash+1:], '.')
	if dot < 0 {
		return "", fn
	}
	dot += slash + 1

	return fn[:dot], fn[dot+1:]
}

// PackageName returns the last element of an import path.
func PackageName(pkgPath string) string {
	name := pkgPath[strings.LastIndexByte(pkgPath, '/')+1:]
	return strings.ReplaceAll(name, "%2e", ".")
}

// GoIdentifier returns the short identifier of the executing context of a
// Go function symbol: the receiver type name for methods, the function
// name for package-level functions. The package path prefix, generic type
// arguments and closure suffixes are discarded. Package initializers
// resolve to the package name.
//
//	"example.com/app/user.(*Service).Create.func1" → "Service"
//	"example.com/app/user.Repo[...].Get"           → "Repo"
//	"example.com/app/user.NewService.func2.1"      → "NewService"
//	"example.com/app/user.init.0"                  → "user"
func GoIdentifier(fn string) string {
	pkgPath, rest := SplitGoSymbol(fn)
	rest = strings.ReplaceAll(rest, "[...]", "")
	if rest == "" {
		return ""
	}

	if rest[0] == '(' {
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return ""
		}
		return strings.TrimPrefix(rest[1:end], "*")
	}

	first, _, _ := strings.Cut(rest, ".")

	if first == "init" || first == "glob" || first == "" {
		if pkgPath == "" {
			return ""
		}
		return PackageName(pkgPath)
	}

	// Either a function, possibly followed by closure segments,
	// or a value receiver method "Type.Method"; both resolve to the first segment.
	return first
}

// goEntryName returns the name of the top-level function or method
// a Go symbol belongs to, without receiver and closure suffixes.
func goEntryName(fn string) string {
	_, rest := SplitGoSymbol(fn)
	rest = strings.ReplaceAll(rest, "[...]", "")
	if rest != "" && rest[0] == '(' {
		if end := strings.IndexByte(rest, ')'); end >= 0 && end+2 <= len(rest) {
			rest = rest[end+2:]
		}
	}
	if i := strings.IndexByte(rest, '.'); i >= 0 {
		segs := strings.Split(rest, ".")
		if len(segs) > 1 && !isClosureSegment(segs[1]) {
			return segs[1]
		}
		return rest[:i]
	}
	return rest
}

// isClosureSegment reports whether a symbol segment names an anonymous
// function or a compiler generated wrapper: "func1", "1", "gowrap2", "deferwrap1".
func isClosureSegment(s string) bool {
	if s == "" {
		return true
	}
	for _, p := range []string{"func", "gowrap", "deferwrap"} {
		if rest, ok := strings.CutPrefix(s, p); ok && isDigits(rest) {
			return true
		}
	}
	return isDigits(s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// SymbolStrategy extracts a type-like identifier from a native symbol line.
type SymbolStrategy func(symbol string) (string, bool)

var (
	// "com.example.app.MyClass.method" or "kfun:com.example.MyClass#method"
	packagePathPattern = regexp.MustCompile(`(?:[a-z][a-z0-9_]*\.)+([A-Z][A-Za-z0-9]*)[#.]`)

	// "MyApp.MyClass.myMethod() -> ()"
	modulePathPattern = regexp.MustCompile(`([A-Z][A-Za-z0-9]*)\.([A-Z][A-Za-z0-9]*)\.[a-z]`)

	// "-[MyViewController viewDidLoad]" or "+[MyClass(Category) shared]"
	messageSendPattern = regexp.MustCompile(`[-+]\[([A-Za-z_][A-Za-z0-9_]*)(?:\([^)]*\))?\s`)

	typeLikePattern = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)
)

// NativeStrategies are the symbol parsing strategies, tried in order.
// Parsing stops at the first strategy that yields a type-like identifier.
var NativeStrategies = []SymbolStrategy{
	ParseDottedPath,
	ParseLengthEncoded,
	ParseMessageSend,
}

// ParseSymbol runs NativeStrategies against a native symbol line.
func ParseSymbol(symbol string) (string, bool) {
	for _, s := range NativeStrategies {
		if name, ok := s(symbol); ok {
			return name, true
		}
	}
	return "", false
}

// ParseDottedPath extracts the type from a fully qualified dotted path,
// either with a lowercase package path or with a module prefix.
func ParseDottedPath(symbol string) (string, bool) {
	if m := packagePathPattern.FindStringSubmatch(symbol); m != nil {
		return m[1], true
	}
	if m := modulePathPattern.FindStringSubmatch(symbol); m != nil {
		return m[2], true
	}
	return "", false
}

// mangledPrefixes introduce length-encoded mangled names.
var mangledPrefixes = []string{"$s", "$S", "_T0"}

// typeDiscriminators follow a type name in a length-encoded symbol:
// class, struct and enum.
const typeDiscriminators = "CVO"

// ParseLengthEncoded extracts the innermost nominal type from a compiler
// mangled name made of length-prefixed segments, such as
// "$s5MyApp7MyClassC8myMethodyyF" → "MyClass". A segment is accepted as a
// type only when it is followed by a type discriminator.
func ParseLengthEncoded(symbol string) (string, bool) {
	start := -1
	for _, p := range mangledPrefixes {
		if i := strings.Index(symbol, p); i >= 0 {
			start = i + len(p)
			break
		}
	}
	if start < 0 {
		return "", false
	}

	var found string
	i := start
	for i < len(symbol) && isDigit(symbol[i]) {
		n := 0
		for i < len(symbol) && isDigit(symbol[i]) {
			n = n*10 + int(symbol[i]-'0')
			i++
		}
		if n == 0 || i+n > len(symbol) {
			break
		}
		seg := symbol[i : i+n]
		i += n

		if i < len(symbol) && strings.IndexByte(typeDiscriminators, symbol[i]) >= 0 {
			if typeLikePattern.MatchString(seg) {
				found = seg
			}
			i++
		}
	}

	return found, found != ""
}

// ParseMessageSend extracts the receiver class of a bracketed
// message-send symbol such as "-[MyViewController viewDidLoad]".
func ParseMessageSend(symbol string) (string, bool) {
	m := messageSendPattern.FindStringSubmatch(symbol)
	if m == nil || !typeLikePattern.MatchString(m[1]) {
		return "", false
	}
	return m[1], true
}

// nativeSimpleName removes module prefixes and underscore-separated
// qualifiers: "MyApp.MainView" → "MainView", "Module_MyClass" → "MyClass".
func nativeSimpleName(name string) string {
	name = name[strings.LastIndexByte(name, '.')+1:]
	name = strings.TrimPrefix(name, "_")
	name = name[strings.LastIndexByte(name, '_')+1:]
	if name == "" {
		return "Unknown"
	}
	return name
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// hasTestEntryPrefix reports whether name follows the Go testing naming
// convention: Test, Benchmark, Fuzz or Example followed by nothing or a
// non-lowercase rune.
func hasTestEntryPrefix(name string) bool {
	for _, p := range []string{"Test", "Benchmark", "Fuzz", "Example"} {
		rest, ok := strings.CutPrefix(name, p)
		if !ok {
			continue
		}
		if rest == "" {
			return true
		}
		if r := []rune(rest)[0]; !unicode.IsLower(r) {
			return true
		}
	}
	return false
}

// looksLikeTestName reports whether an identifier names a test:
// a Go test entry point or an exported type ending in "Test" or "Tests".
func looksLikeTestName(name string) bool {
	if hasTestEntryPrefix(name) {
		return true
	}
	if name == "" || !unicode.IsUpper([]rune(name)[0]) {
		return false
	}
	return strings.HasSuffix(name, "Test") || strings.HasSuffix(name, "Tests")
}
