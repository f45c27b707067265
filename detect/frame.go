package detect

import (
	"bufio"
	"bytes"
	"runtime"
	"strings"
)

// maxStackDepth is the number of frames captured by RuntimeStack.
const maxStackDepth = 64

// Frame is a single entry of a call stack.
// Exactly one of Function and Symbol is normally set.
type Frame struct {
	// Function is a Go function symbol, e.g. "example.com/app/user.(*Service).Create.func1".
	Function string

	// Symbol is a raw native stack-walk line, e.g.
	// "2   MyApp   0x0000000100001234 $s5MyApp7MyClassC8myMethodyyF + 123".
	Symbol string

	// File is the source file of a Go frame, empty when unknown.
	File string

	// PC is the program counter of the frame, 0 when unknown.
	PC uintptr
}

// StackSource returns the current call stack, innermost frame first.
type StackSource func() []Frame

// RuntimeStack captures the calling goroutine's stack using runtime.Callers.
// Inlined calls are expanded into their own frames.
func RuntimeStack() []Frame {
	var pcs [maxStackDepth]uintptr
	// Skip runtime.Callers and RuntimeStack itself
	n := runtime.Callers(2, pcs[:])
	if n == 0 {
		return nil
	}

	out := make([]Frame, 0, n)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		out = append(out, Frame{Function: f.Function, File: f.File, PC: f.PC})
		if !more {
			break
		}
	}

	return out
}

// SymbolStack returns a StackSource that always yields the given native
// stack-walk lines, innermost first. It is meant for symbolized backtraces
// obtained outside the Go runtime (cgo backtrace_symbols, crash reports).
func SymbolStack(lines []string) StackSource {
	frames := make([]Frame, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			frames = append(frames, Frame{Symbol: l})
		}
	}
	return func() []Frame { return frames }
}

// ParseTrace converts a textual goroutine trace, as produced by
// runtime/debug.Stack or a panic, into frames.
//
//	goroutine 1 [running]:
//	main.(*Server).Start(0xc000012345)
//		/src/main.go:12 +0x1d
//	created by main.main in goroutine 1
//
// The file of each frame is taken from the indented location line.
func ParseTrace(trace []byte) []Frame {
	var frames []Frame

	sc := bufio.NewScanner(bytes.NewReader(trace))
	for sc.Scan() {
		line := sc.Text()
		if line != "" && line[0] == '\t' {
			if n := len(frames); n > 0 && frames[n-1].File == "" {
				frames[n-1].File = traceFile(line)
			}
			continue
		}
		if line == "" || line[0] == ' ' || strings.HasPrefix(line, "goroutine ") {
			continue
		}

		if rest, ok := strings.CutPrefix(line, "created by "); ok {
			if i := strings.Index(rest, " in goroutine "); i >= 0 {
				rest = rest[:i]
			}
			line = rest
		} else if strings.HasSuffix(line, ")") {
			if i := strings.LastIndexByte(line, '('); i > 0 {
				line = line[:i]
			}
		}

		frames = append(frames, Frame{Function: line})
	}

	return frames
}

// traceFile extracts the file from a trace location line
// such as "\t/src/main.go:12 +0x1d".
func traceFile(line string) string {
	loc := strings.TrimSpace(line)
	if i := strings.Index(loc, " +0x"); i >= 0 {
		loc = loc[:i]
	}
	if i := strings.LastIndexByte(loc, ':'); i >= 0 {
		loc = loc[:i]
	}
	return loc
}
