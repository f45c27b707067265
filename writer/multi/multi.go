// Package multi provides a concurrency-safe io.Writer that duplicates
// each write to a changeable set of writers.
package multi

import (
	"errors"
	"io"
	"reflect"
	"slices"
	"sync"
)

// syncer is implemented by writers that buffer, such as *os.File
// and *lumberjack.Logger.
type syncer interface {
	Sync() error
}

// Writer duplicates its writes to all the underlying writers.
// A failing writer does not prevent the others from receiving the write.
// It is safe for concurrent use.
type Writer struct {
	mu      sync.Mutex
	writers []io.Writer
}

// Ensure Writer implements io.WriteCloser.
var _ io.WriteCloser = (*Writer)(nil)

// New returns a Writer over a copy of the given writers.
func New(writers ...io.Writer) *Writer {
	return &Writer{writers: slices.Clone(writers)}
}

// Write writes p to every underlying writer, in order.
// It returns len(p) and nil only if every writer accepted the full slice;
// otherwise it returns the smallest count written and all errors joined.
func (t *Writer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(p)
	var errs []error
	for _, w := range t.writers {
		m, err := w.Write(p)
		if err == nil && m != len(p) {
			err = io.ErrShortWrite
		}
		if err != nil {
			errs = append(errs, err)
			n = min(n, m)
		}
	}

	return n, errors.Join(errs...)
}

// Add appends writers to the set.
func (t *Writer) Add(writers ...io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.writers = append(t.writers, writers...)
}

// Remove removes the first occurrence of w and reports whether it was present.
// Writers whose dynamic type is not comparable are never matched.
func (t *Writer) Remove(w io.Writer) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := slices.IndexFunc(t.writers, func(cur io.Writer) bool {
		return sameWriter(cur, w)
	})
	if i < 0 {
		return false
	}
	t.writers = slices.Delete(t.writers, i, i+1)

	return true
}

// sameWriter compares two writers without panicking on non-comparable types.
func sameWriter(a, b io.Writer) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta != nil && !ta.Comparable() {
		return false
	}
	return a == b
}

// Len returns the number of underlying writers.
func (t *Writer) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.writers)
}

// Sync flushes every underlying writer that has a Sync method.
// All errors are joined.
func (t *Writer) Sync() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	for _, w := range t.writers {
		if s, ok := w.(syncer); ok {
			if err := s.Sync(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}

// Close closes every underlying writer that implements io.Closer.
// It continues after a failure and returns all errors joined.
func (t *Writer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	for _, w := range t.writers {
		if c, ok := w.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}
